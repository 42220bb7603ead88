package repo

import (
	"context"

	"github.com/hamed0406/slotwatch/internal/domain"
)

// Ports (interfaces); adapters are in the subpackages.

// StateStore keeps the tracker's per-location streak state.
type StateStore interface {
	// Load returns the state for loc, creating the default ("nothing seen")
	// state on first use.
	Load(ctx context.Context, loc domain.Location) (domain.LocationState, error)
	Save(ctx context.Context, s domain.LocationState) error
	List(ctx context.Context) ([]domain.LocationState, error)
}

// PollLog is the write-only audit trail of upstream polls.
type PollLog interface {
	Append(ctx context.Context, r *domain.PollRecord) error
}

// PollSnapshot exposes the most recent poll per location.
type PollSnapshot interface {
	Latest(ctx context.Context) ([]domain.PollRecord, error)
}

// MultiLog writes to every log, returning the first error after trying all.
type MultiLog []PollLog

func (m MultiLog) Append(ctx context.Context, r *domain.PollRecord) error {
	var firstErr error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.Append(ctx, r); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
