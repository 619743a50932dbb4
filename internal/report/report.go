// Package report implements the reporting phase: it compiles the
// investigation's findings into a prompt and asks the text-generation
// service for the final reconnaissance report.
package report

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/config"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

const systemPrompt = "You are a senior penetration tester writing a reconnaissance report."

type Executor struct {
	llm *Client
}

func New(cfg *config.Config) *Executor {
	return &Executor{llm: NewClient(cfg)}
}

func (e *Executor) Phase() state.Phase { return state.PhaseReporting }

// Run generates the final report. A service failure leaves the report empty
// and records the fault; the caller surfaces that as the terminal outcome.
func (e *Executor) Run(ctx context.Context, inv *state.Investigation) state.Update {
	var u state.Update

	prompt, err := buildPrompt(inv)
	if err != nil {
		u.Errors = append(u.Errors, state.PhaseError{
			Phase:   state.PhaseReporting,
			Message: fmt.Sprintf("service: failed to compile findings: %v", err),
		})
		return u
	}

	text, err := e.llm.Chat(ctx, systemPrompt, prompt)
	if err != nil {
		u.Errors = append(u.Errors, state.PhaseError{
			Phase:   state.PhaseReporting,
			Message: fmt.Sprintf("service: report generation failed: %v", err),
		})
		return u
	}

	u.Report = text
	return u
}

// findingsSummary is the condensed view of the investigation handed to the
// text-generation service. Subdomains are sampled so a large estate does not
// blow the prompt budget.
type findingsSummary struct {
	Target           string              `json:"target"`
	SubdomainsCount  int                 `json:"subdomains_count"`
	SubdomainsSample []string            `json:"subdomains_sample"`
	LiveHosts        []state.LiveHost    `json:"live_hosts"`
	IntelHosts       int                 `json:"intel_hosts"`
	IntelDetails     []state.IntelDetail `json:"intel_details"`
	Technologies     []state.Technology  `json:"technologies"`
	Errors           []state.PhaseError  `json:"errors"`
}

func buildPrompt(inv *state.Investigation) (string, error) {
	sample := inv.Subdomains
	if len(sample) > 20 {
		sample = sample[:20]
	}

	summary := findingsSummary{
		Target:           inv.Target,
		SubdomainsCount:  len(inv.Subdomains),
		SubdomainsSample: sample,
		LiveHosts:        inv.LiveHosts,
		IntelHosts:       len(inv.IntelHosts),
		IntelDetails:     inv.IntelDetails,
		Technologies:     inv.Technologies,
		Errors:           inv.Errors,
	}

	findings, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Generate a professional OSINT reconnaissance report based on these findings:

%s

Structure the report as follows:

# OSINT Reconnaissance Report: %s

## Executive Summary
Brief overview of findings and overall security posture.

## Discovered Assets
- Total subdomains found
- Notable subdomains (admin panels, APIs, dev environments)
- IP addresses and hosting information

## Exposed Services
- Open ports and services
- Potential vulnerabilities (CVEs)
- Outdated software

## Technology Stack
- Web servers
- Frameworks and CMS platforms
- Notable version information

## Risk Assessment
Prioritized list of findings by security impact.

## Recommendations
Actionable next steps for further investigation or remediation.

Be specific, technical, and actionable. This is for a security professional.`, findings, inv.Target), nil
}
