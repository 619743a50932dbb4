// Package checkpoint persists investigation state between phases so an
// interrupted run can resume where it left off.
package checkpoint

import (
	"context"
	"errors"

	"github.com/dazzyddos/OSINT-AI-Agent/internal/state"
)

// ErrNotFound is returned by Load when no checkpoint exists for an id.
var ErrNotFound = errors.New("checkpoint not found")

// Store is opaque key-value persistence of investigation state. The stored
// format is not guaranteed stable across versions.
type Store interface {
	Save(ctx context.Context, id string, inv *state.Investigation) error
	Load(ctx context.Context, id string) (*state.Investigation, error)
	List(ctx context.Context) ([]Entry, error)
	Close() error
}

// Entry is a summary row for listing stored investigations.
type Entry struct {
	ID        string `json:"id"`
	Target    string `json:"target"`
	Phases    int    `json:"completed_phases"`
	UpdatedAt string `json:"updated_at"`
}

// ID derives the checkpoint key for a target, matching one investigation
// per target.
func ID(target string) string {
	return "osint-" + target
}
