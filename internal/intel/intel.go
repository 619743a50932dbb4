// Package intel implements the intelligence phase: capped host searches
// against the Shodan API plus per-host detail lookups.
package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/config"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

type Executor struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

func New(cfg *config.Config) *Executor {
	return &Executor{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		baseURL: cfg.IntelBaseURL,
		apiKey:  cfg.ShodanAPIKey,
	}
}

func (e *Executor) Phase() state.Phase { return state.PhaseIntelligence }

// Run searches the intelligence service for hosts related to the target and
// pulls detail records for a handful of them. Service failures are recorded
// and the phase completes with whatever was retrieved; an empty result set
// is not a fault.
func (e *Executor) Run(ctx context.Context, inv *state.Investigation) state.Update {
	var u state.Update

	if e.apiKey == "" {
		u.Errors = append(u.Errors, state.PhaseError{
			Phase:   state.PhaseIntelligence,
			Message: "service: SHODAN_API_KEY not set, intelligence lookup skipped",
		})
		return u
	}

	hosts, err := e.search(ctx, inv.Target)
	if err != nil {
		u.Errors = append(u.Errors, state.PhaseError{
			Phase:   state.PhaseIntelligence,
			Message: fmt.Sprintf("service: domain search failed: %v", err),
		})
		return u
	}
	u.IntelHosts = hosts

	for _, ip := range uniqueIPs(hosts, config.MaxDetailLookups) {
		detail, err := e.hostDetail(ctx, ip)
		if err != nil {
			u.Errors = append(u.Errors, state.PhaseError{
				Phase:   state.PhaseIntelligence,
				Message: fmt.Sprintf("service: host detail lookup for %s failed: %v", ip, err),
			})
			continue
		}
		u.IntelDetails = append(u.IntelDetails, *detail)
	}

	return u
}

// search queries hosts whose records reference the target domain. The result
// count is ceilinged at config.MaxIntelResults regardless of how much the
// service has.
func (e *Executor) search(ctx context.Context, target string) ([]state.IntelHost, error) {
	q := url.Values{}
	q.Set("key", e.apiKey)
	q.Set("query", "hostname:"+target)
	q.Set("limit", fmt.Sprintf("%d", config.MaxIntelResults))

	body, err := e.fetch(ctx, e.baseURL+"/shodan/host/search?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp struct {
		Matches []struct {
			IPStr     string   `json:"ip_str"`
			Port      int      `json:"port"`
			Hostnames []string `json:"hostnames"`
			Org       string   `json:"org"`
			Product   string   `json:"product"`
		} `json:"matches"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed search response: %w", err)
	}

	var hosts []state.IntelHost
	for _, m := range resp.Matches {
		if len(hosts) >= config.MaxIntelResults {
			break
		}
		if m.IPStr == "" {
			continue
		}
		hosts = append(hosts, state.IntelHost{
			IP:        m.IPStr,
			Port:      m.Port,
			Hostnames: m.Hostnames,
			Org:       m.Org,
			Product:   m.Product,
		})
	}
	return hosts, nil
}

func (e *Executor) hostDetail(ctx context.Context, ip string) (*state.IntelDetail, error) {
	q := url.Values{}
	q.Set("key", e.apiKey)

	body, err := e.fetch(ctx, e.baseURL+"/shodan/host/"+url.PathEscape(ip)+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp struct {
		IPStr string   `json:"ip_str"`
		Ports []int    `json:"ports"`
		Vulns []string `json:"vulns"`
		OS    string   `json:"os"`
		Tags  []string `json:"tags"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("malformed host detail response: %w", err)
	}
	if resp.IPStr == "" {
		resp.IPStr = ip
	}
	return &state.IntelDetail{
		IP:    resp.IPStr,
		Ports: resp.Ports,
		Vulns: resp.Vulns,
		OS:    resp.OS,
		Tags:  resp.Tags,
	}, nil
}

func (e *Executor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; osint-agent/1.0)")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

func uniqueIPs(hosts []state.IntelHost, limit int) []string {
	seen := make(map[string]bool, len(hosts))
	var out []string
	for _, h := range hosts {
		if h.IP == "" || seen[h.IP] {
			continue
		}
		seen[h.IP] = true
		out = append(out, h.IP)
		if len(out) >= limit {
			break
		}
	}
	return out
}
