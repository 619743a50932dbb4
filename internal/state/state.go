// Package state holds the investigation record: every finding, error and
// progress marker accumulated for one target across its lifetime.
package state

import (
	"fmt"
	"time"
)

// Phase identifies one unit of work in the fixed investigation sequence.
type Phase string

const (
	PhaseEnumeration    Phase = "enumeration"
	PhaseIntelligence   Phase = "intelligence"
	PhaseFingerprinting Phase = "fingerprinting"
	PhaseReporting      Phase = "reporting"
)

// PhaseOrder is the fixed execution sequence. Phases are always completed
// in exactly this order, never skipped and never repeated.
var PhaseOrder = []Phase{
	PhaseEnumeration,
	PhaseIntelligence,
	PhaseFingerprinting,
	PhaseReporting,
}

// KnownPhase reports whether p is one of the four investigation phases.
func KnownPhase(p Phase) bool {
	for _, k := range PhaseOrder {
		if p == k {
			return true
		}
	}
	return false
}

// PhaseError records a non-fatal problem encountered while running a phase.
// Entries are append-only and survive for the life of the investigation.
type PhaseError struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message"`
}

// LiveHost is a hostname that answered an HTTP probe.
type LiveHost struct {
	URL           string   `json:"url"`
	StatusCode    int      `json:"status_code"`
	Title         string   `json:"title,omitempty"`
	Technologies  []string `json:"technologies,omitempty"`
	ContentLength int64    `json:"content_length,omitempty"`
}

// IntelHost is one host summary returned by the intelligence service.
type IntelHost struct {
	IP        string   `json:"ip"`
	Port      int      `json:"port,omitempty"`
	Hostnames []string `json:"hostnames,omitempty"`
	Org       string   `json:"org,omitempty"`
	Product   string   `json:"product,omitempty"`
}

// IntelDetail is the per-host detail record from the intelligence service.
type IntelDetail struct {
	IP    string   `json:"ip"`
	Ports []int    `json:"ports,omitempty"`
	Vulns []string `json:"vulns,omitempty"`
	OS    string   `json:"os,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// Technology is one fingerprinted technology on a target URL.
type Technology struct {
	URL     string            `json:"url"`
	Name    string            `json:"name"`
	Version string            `json:"version,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Investigation is the single mutable record threaded through a run. It is
// owned by the driver loop; executors read it and hand back an Update which
// the loop merges. No component keeps a long-lived alias.
type Investigation struct {
	ID     string `json:"id"`
	Target string `json:"target"`

	Subdomains   []string      `json:"subdomains"`
	LiveHosts    []LiveHost    `json:"live_hosts"`
	IntelHosts   []IntelHost   `json:"intel_hosts"`
	IntelDetails []IntelDetail `json:"intel_details"`
	Technologies []Technology  `json:"technologies"`

	CurrentPhase    Phase   `json:"current_phase"`
	CompletedPhases []Phase `json:"completed_phases"`

	Errors []PhaseError `json:"errors"`
	Report string       `json:"report"`

	StartedAt time.Time `json:"started_at"`
}

// New creates a fresh investigation for the given target.
func New(id, target string) *Investigation {
	return &Investigation{
		ID:        id,
		Target:    target,
		StartedAt: time.Now(),
	}
}

// Completed reports whether the given phase has already finished.
func (inv *Investigation) Completed(p Phase) bool {
	for _, c := range inv.CompletedPhases {
		if c == p {
			return true
		}
	}
	return false
}

// BeginPhase marks p as the phase currently executing.
func (inv *Investigation) BeginPhase(p Phase) {
	inv.CurrentPhase = p
}

// MarkCompleted appends p to the completed set and clears CurrentPhase in
// one step. Completing a phase twice, completing an unknown phase, or
// completing out of the fixed order is a state-corruption fault: the
// routing invariant no longer holds and the investigation must stop.
func (inv *Investigation) MarkCompleted(p Phase) error {
	if !KnownPhase(p) {
		return fmt.Errorf("%w: unknown phase %q", ErrStateCorruption, p)
	}
	if inv.Completed(p) {
		return fmt.Errorf("%w: phase %q completed twice", ErrStateCorruption, p)
	}
	// A completed set already at (or past) full length with p still missing
	// can only mean duplicated entries, e.g. a tampered checkpoint.
	if len(inv.CompletedPhases) >= len(PhaseOrder) {
		return fmt.Errorf("%w: %d phases completed but %q missing", ErrStateCorruption, len(inv.CompletedPhases), p)
	}
	if next := PhaseOrder[len(inv.CompletedPhases)]; next != p {
		return fmt.Errorf("%w: phase %q completed out of order (expected %q)", ErrStateCorruption, p, next)
	}
	inv.CompletedPhases = append(inv.CompletedPhases, p)
	inv.CurrentPhase = ""
	return nil
}

// AddSubdomains merges candidate hostnames into the subdomain set,
// preserving discovery order and dropping anything already known.
func (inv *Investigation) AddSubdomains(subs []string) int {
	seen := make(map[string]bool, len(inv.Subdomains))
	for _, s := range inv.Subdomains {
		seen[s] = true
	}
	added := 0
	for _, s := range subs {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		inv.Subdomains = append(inv.Subdomains, s)
		added++
	}
	return added
}

// AddError appends a phase error. Errors are never cleared and do not mark
// a phase incomplete.
func (inv *Investigation) AddError(p Phase, msg string) {
	inv.Errors = append(inv.Errors, PhaseError{Phase: p, Message: msg})
}

// ErrorsFor returns the errors recorded against a single phase.
func (inv *Investigation) ErrorsFor(p Phase) []PhaseError {
	var out []PhaseError
	for _, e := range inv.Errors {
		if e.Phase == p {
			out = append(out, e)
		}
	}
	return out
}
