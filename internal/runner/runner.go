// Package runner drives an investigation: it asks the router for the next
// phase, executes it, merges the result, and checkpoints, strictly one
// phase at a time until the router says terminate.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/checkpoint"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/config"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/debug"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/fingerprint"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/intel"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/recon"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/report"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/router"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/sandbox"
	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

// ErrReportFailed is the distinct terminal outcome when every phase
// completed but the report-generation service failed: all reconnaissance
// data is intact in the returned state, only the report text is missing.
var ErrReportFailed = errors.New("investigation finished but report generation failed")

// Capability is one phase's executor. Run reads the investigation and hands
// back a partial update; it never mutates state directly and never returns
// a fatal error. Tool and service problems become error entries in the
// update.
type Capability interface {
	Phase() state.Phase
	Run(ctx context.Context, inv *state.Investigation) state.Update
}

// Runner owns the investigation state for the duration of a run.
type Runner struct {
	cfg   *config.Config
	caps  map[state.Phase]Capability
	store checkpoint.Store // nil when checkpointing is disabled
}

// New builds a runner with the standard capability set. The sandbox runtime
// and tools image are verified up front; failure there is an unrecoverable
// setup fault.
func New(ctx context.Context, cfg *config.Config) (*Runner, error) {
	sb := sandbox.New(cfg.DockerImage, cfg.DockerTimeout)
	if err := sb.CheckRuntime(ctx); err != nil {
		return nil, fmt.Errorf("sandbox unavailable: %w", err)
	}

	r := &Runner{
		cfg: cfg,
		caps: map[state.Phase]Capability{
			state.PhaseEnumeration:    recon.New(sb),
			state.PhaseIntelligence:   intel.New(cfg),
			state.PhaseFingerprinting: fingerprint.New(sb),
			state.PhaseReporting:      report.New(cfg),
		},
	}

	if cfg.Checkpoint {
		store, err := checkpoint.NewSQLiteStore(cfg.CheckpointDir)
		if err != nil {
			return nil, fmt.Errorf("checkpoint store unavailable: %w", err)
		}
		r.store = store
	}
	return r, nil
}

// Close releases the checkpoint store, if any.
func (r *Runner) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

// Run executes the full investigation for target and returns the final
// state. Ordinary per-phase errors accumulate inside the state; the
// returned error is non-nil only for state corruption or a failed report.
func (r *Runner) Run(ctx context.Context, target string) (*state.Investigation, error) {
	if err := sandbox.ValidateTarget(target); err != nil {
		return nil, err
	}

	inv, err := r.restore(ctx, target)
	if err != nil {
		return nil, err
	}

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)

	for {
		decision, err := router.Route(inv)
		if err != nil {
			return inv, err
		}
		if decision.Action == router.ActionTerminate {
			break
		}

		phase := decision.Phase
		executor, ok := r.caps[phase]
		if !ok {
			return inv, fmt.Errorf("%w: no executor registered for phase %q", state.ErrStateCorruption, phase)
		}

		cyan.Printf("[->] Moving to phase: %s\n", phase)
		inv.BeginPhase(phase)

		update := executor.Run(ctx, inv)
		inv.Merge(update)

		if err := inv.MarkCompleted(phase); err != nil {
			return inv, err
		}

		green.Printf("[OK] %s\n", phaseSummary(phase, inv))

		if err := r.save(ctx, inv); err != nil {
			// Checkpointing is best effort: the run continues, the
			// operator just loses resume for this phase.
			color.Yellow("[!] Checkpoint save failed: %v", err)
		}
	}

	r.printErrorSummary(inv)
	debug.Summary()

	if inv.Report == "" {
		return inv, ErrReportFailed
	}
	return inv, nil
}

// restore loads a checkpointed state when checkpointing is enabled, falling
// back to a fresh investigation.
func (r *Runner) restore(ctx context.Context, target string) (*state.Investigation, error) {
	if r.store == nil {
		return state.New(uuid.NewString(), target), nil
	}

	id := checkpoint.ID(target)
	inv, err := r.store.Load(ctx, id)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return state.New(id, target), nil
	}
	if err != nil {
		return nil, err
	}

	color.Yellow("[*] Resuming investigation %s (%d/%d phases complete)",
		id, len(inv.CompletedPhases), len(state.PhaseOrder))
	return inv, nil
}

func (r *Runner) save(ctx context.Context, inv *state.Investigation) error {
	if r.store == nil {
		return nil
	}
	return r.store.Save(ctx, inv.ID, inv)
}

func phaseSummary(p state.Phase, inv *state.Investigation) string {
	switch p {
	case state.PhaseEnumeration:
		return fmt.Sprintf("Enumeration complete: %d subdomains, %d live hosts",
			len(inv.Subdomains), len(inv.LiveHosts))
	case state.PhaseIntelligence:
		return fmt.Sprintf("Intelligence complete: %d hosts, %d detail records",
			len(inv.IntelHosts), len(inv.IntelDetails))
	case state.PhaseFingerprinting:
		return fmt.Sprintf("Fingerprinting complete: %d technologies", len(inv.Technologies))
	case state.PhaseReporting:
		if inv.Report != "" {
			return "Report generated"
		}
		return "Reporting phase finished without a report"
	}
	return string(p) + " complete"
}

func (r *Runner) printErrorSummary(inv *state.Investigation) {
	if len(inv.Errors) == 0 {
		return
	}
	yellow := color.New(color.FgYellow)
	yellow.Printf("\n[!] %d error(s) recorded during the investigation:\n", len(inv.Errors))
	for _, e := range inv.Errors {
		yellow.Printf("    [%s] %s\n", e.Phase, e.Message)
	}
}
