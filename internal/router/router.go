// Package router decides which phase an investigation runs next. Routing is
// a pure function of the completed-phase set, so the driver loop can be
// restarted from any persisted state and land on the same decision.
package router

import (
	"fmt"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

// Action is the kind of decision the router hands back.
type Action int

const (
	ActionRunPhase Action = iota
	ActionTerminate
)

// Decision tells the driver loop what to do next.
type Decision struct {
	Action Action
	Phase  state.Phase
}

func (d Decision) String() string {
	if d.Action == ActionTerminate {
		return "terminate"
	}
	return "run " + string(d.Phase)
}

// Route returns the first phase in the fixed sequence not yet completed, or
// a terminate decision once all four are done. It has no side effects and
// reads nothing but CompletedPhases.
//
// An entry in CompletedPhases that is not one of the known phases, or that
// appears more than once, is not a tool failure to shrug off: it means the
// persisted state no longer matches the sequence this router was built for,
// and continuing could skip or repeat a phase. That surfaces as
// state.ErrStateCorruption before any phase executes.
func Route(inv *state.Investigation) (Decision, error) {
	done := make(map[state.Phase]bool, len(inv.CompletedPhases))
	for _, p := range inv.CompletedPhases {
		if !state.KnownPhase(p) {
			return Decision{}, fmt.Errorf("%w: unrecognized completed phase %q", state.ErrStateCorruption, p)
		}
		if done[p] {
			return Decision{}, fmt.Errorf("%w: phase %q recorded as completed twice", state.ErrStateCorruption, p)
		}
		done[p] = true
	}

	for _, p := range state.PhaseOrder {
		if !done[p] {
			return Decision{Action: ActionRunPhase, Phase: p}, nil
		}
	}
	return Decision{Action: ActionTerminate}, nil
}
