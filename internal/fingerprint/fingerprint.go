// Package fingerprint implements the fingerprinting phase: whatweb
// technology detection against hosts discovered by earlier phases.
package fingerprint

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/config"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/sandbox"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

// ToolRunner is the sandbox surface this phase needs.
type ToolRunner interface {
	Execute(ctx context.Context, name string, args ...string) (*sandbox.Result, error)
}

type Executor struct {
	sb ToolRunner
}

func New(sb ToolRunner) *Executor {
	return &Executor{sb: sb}
}

func (e *Executor) Phase() state.Phase { return state.PhaseFingerprinting }

// Run fingerprints up to config.MaxFingerprintTargets URLs. Live hosts from
// the probe are preferred; remaining slots fall back to https:// URLs built
// from raw subdomains. With nothing to scan the phase completes untouched.
// A whatweb failure on one URL does not stop the rest.
func (e *Executor) Run(ctx context.Context, inv *state.Investigation) state.Update {
	var u state.Update

	targets := e.targets(inv)
	if len(targets) == 0 {
		return u
	}

	for _, target := range targets {
		techs, errs := e.scan(ctx, target)
		u.Technologies = append(u.Technologies, techs...)
		u.Errors = append(u.Errors, errs...)
	}
	return u
}

func (e *Executor) targets(inv *state.Investigation) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(url string) bool {
		if url == "" || seen[url] {
			return len(out) < config.MaxFingerprintTargets
		}
		seen[url] = true
		out = append(out, url)
		return len(out) < config.MaxFingerprintTargets
	}

	for _, h := range inv.LiveHosts {
		if !add(h.URL) {
			return out
		}
	}
	for _, s := range inv.Subdomains {
		if !add("https://" + s) {
			return out
		}
	}
	return out
}

// scan runs whatweb against one URL and normalizes its plugin output.
func (e *Executor) scan(ctx context.Context, url string) ([]state.Technology, []state.PhaseError) {
	var errs []state.PhaseError

	res, err := e.sb.Execute(ctx, "whatweb", url, "--log-json=/dev/stdout", "--quiet")
	if err != nil {
		var msg string
		if f := sandbox.AsFault(err); f != nil {
			msg = fmt.Sprintf("tool fault (%s): %s", f.Kind, f.Error())
		} else {
			msg = err.Error()
		}
		errs = append(errs, state.PhaseError{Phase: state.PhaseFingerprinting, Message: msg})
		return nil, errs
	}

	var techs []state.Technology
	for _, line := range sandbox.Lines(res.Stdout) {
		parsed, ok := parseLine(url, line)
		if !ok {
			errs = append(errs, state.PhaseError{
				Phase:   state.PhaseFingerprinting,
				Message: fmt.Sprintf("parse: dropped unusable whatweb record for %s", url),
			})
			continue
		}
		techs = append(techs, parsed...)
	}
	return techs, errs
}

// parseLine handles both shapes whatweb emits: a JSON array of result
// objects, or a single object per line.
func parseLine(url, line string) ([]state.Technology, bool) {
	var items []whatwebRecord
	if err := json.Unmarshal([]byte(line), &items); err != nil {
		var single whatwebRecord
		if err := json.Unmarshal([]byte(line), &single); err != nil {
			return nil, false
		}
		items = []whatwebRecord{single}
	}

	var techs []state.Technology
	for _, item := range items {
		techs = append(techs, item.technologies(url)...)
	}
	return techs, true
}

type whatwebRecord struct {
	Target  string                     `json:"target"`
	Plugins map[string]json.RawMessage `json:"plugins"`
}

func (r whatwebRecord) technologies(fallbackURL string) []state.Technology {
	url := r.Target
	if url == "" {
		url = fallbackURL
	}

	var techs []state.Technology
	for name, raw := range r.Plugins {
		tech := state.Technology{URL: url, Name: name}

		var plugin struct {
			Version []string `json:"version"`
			String  []string `json:"string"`
			Account []string `json:"account"`
			Module  []string `json:"module"`
		}
		if json.Unmarshal(raw, &plugin) == nil {
			if len(plugin.Version) > 0 {
				tech.Version = plugin.Version[0]
			}
			details := map[string]string{}
			if len(plugin.String) > 0 {
				details["string"] = strings.Join(plugin.String, ", ")
			}
			if len(plugin.Account) > 0 {
				details["account"] = strings.Join(plugin.Account, ", ")
			}
			if len(plugin.Module) > 0 {
				details["module"] = strings.Join(plugin.Module, ", ")
			}
			if len(details) > 0 {
				tech.Details = details
			}
		}
		techs = append(techs, tech)
	}
	return techs
}
