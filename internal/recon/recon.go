// Package recon implements the enumeration phase: subdomain discovery with
// subfinder followed by an httpx probe of everything discovered.
package recon

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/sandbox"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

// ToolRunner is the sandbox surface this phase needs.
type ToolRunner interface {
	Execute(ctx context.Context, name string, args ...string) (*sandbox.Result, error)
	ExecuteInput(ctx context.Context, input, name string, args ...string) (*sandbox.Result, error)
}

type Executor struct {
	sb ToolRunner
}

func New(sb ToolRunner) *Executor {
	return &Executor{sb: sb}
}

func (e *Executor) Phase() state.Phase { return state.PhaseEnumeration }

// Run enumerates subdomains for the target and probes them for live HTTP
// services. Tool failures are recorded and the phase completes with whatever
// partial data was obtained.
func (e *Executor) Run(ctx context.Context, inv *state.Investigation) state.Update {
	var u state.Update

	subs, errs := e.enumerate(ctx, inv)
	u.Subdomains = subs
	u.Errors = append(u.Errors, errs...)

	// Probe everything known plus everything just discovered.
	targets := append(append([]string{}, inv.Subdomains...), subs...)
	if len(targets) > 0 {
		hosts, errs := e.probe(ctx, targets)
		u.LiveHosts = hosts
		u.Errors = append(u.Errors, errs...)
	}

	return u
}

// enumerate runs subfinder and returns hostnames not already known to the
// investigation. subfinder emits one JSON object per line; plain hostname
// lines are accepted as a fallback for older builds.
func (e *Executor) enumerate(ctx context.Context, inv *state.Investigation) ([]string, []state.PhaseError) {
	var errs []state.PhaseError

	res, err := e.sb.Execute(ctx, "subfinder", "-d", inv.Target, "-silent", "-json")
	if err != nil {
		errs = append(errs, toolError(state.PhaseEnumeration, err))
		return nil, errs
	}

	known := make(map[string]bool, len(inv.Subdomains))
	for _, s := range inv.Subdomains {
		known[s] = true
	}

	var subs []string
	for _, line := range sandbox.Lines(res.Stdout) {
		host, ok := parseSubfinderLine(line)
		if !ok {
			errs = append(errs, state.PhaseError{
				Phase:   state.PhaseEnumeration,
				Message: fmt.Sprintf("parse: dropped unusable subfinder record %q", truncateLine(line)),
			})
			continue
		}
		if host == "" || known[host] {
			continue
		}
		known[host] = true
		subs = append(subs, host)
	}
	return subs, errs
}

func parseSubfinderLine(line string) (string, bool) {
	var rec struct {
		Host string `json:"host"`
	}
	if err := json.Unmarshal([]byte(line), &rec); err == nil {
		return strings.ToLower(strings.TrimSpace(rec.Host)), true
	}
	// Plain-text fallback: a bare hostname per line.
	host := strings.ToLower(strings.TrimSpace(line))
	if strings.Contains(host, ".") && !strings.ContainsAny(host, " \t{}\"") {
		return host, true
	}
	return "", false
}

// probe runs httpx over the candidate hostnames, fed via stdin so hostnames
// never touch a command line at all.
func (e *Executor) probe(ctx context.Context, hosts []string) ([]state.LiveHost, []state.PhaseError) {
	var errs []state.PhaseError

	input := strings.Join(dedupe(hosts), "\n")
	res, err := e.sb.ExecuteInput(ctx, input, "httpx", "-silent", "-json", "-status-code", "-title", "-tech-detect")
	if err != nil {
		errs = append(errs, toolError(state.PhaseEnumeration, err))
		return nil, errs
	}

	var live []state.LiveHost
	for _, line := range sandbox.Lines(res.Stdout) {
		var rec struct {
			URL           string   `json:"url"`
			StatusCode    int      `json:"status_code"`
			Title         string   `json:"title"`
			Tech          []string `json:"tech"`
			ContentLength int64    `json:"content_length"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.URL == "" {
			errs = append(errs, state.PhaseError{
				Phase:   state.PhaseEnumeration,
				Message: fmt.Sprintf("parse: dropped unusable httpx record %q", truncateLine(line)),
			})
			continue
		}
		live = append(live, state.LiveHost{
			URL:           rec.URL,
			StatusCode:    rec.StatusCode,
			Title:         rec.Title,
			Technologies:  rec.Tech,
			ContentLength: rec.ContentLength,
		})
	}
	return live, errs
}

func dedupe(hosts []string) []string {
	seen := make(map[string]bool, len(hosts))
	var out []string
	for _, h := range hosts {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func toolError(p state.Phase, err error) state.PhaseError {
	msg := err.Error()
	if f := sandbox.AsFault(err); f != nil {
		msg = fmt.Sprintf("tool fault (%s): %s", f.Kind, f.Error())
	}
	return state.PhaseError{Phase: p, Message: msg}
}

func truncateLine(line string) string {
	if len(line) > 120 {
		return line[:120] + "..."
	}
	return line
}
