// Package probe fetches slot availability from the scheduler API.
//
// A response whose body is not a JSON object with availableSlots fails the
// whole fetch with domain.ErrMalformedPayload, and the poller then leaves
// that location's state alone for the cycle. It is not an empty poll: an
// empty poll ends the streak and sends "no longer available". A single bad
// slot inside a good response is kept and rejected later by Slot.Start.
package probe

import (
	"context"

	"github.com/hamed0406/slotwatch/internal/domain"
)

// PollResult is one upstream answer for one location.
//
// StatusCode is 0 on transport errors. Body is kept verbatim for the
// audit log even when it fails to parse.
type PollResult struct {
	StatusCode int
	Body       []byte
	Slots      []domain.Slot
	LatencyMS  float64
}

// Fetcher returns the currently available slots for a location.
type Fetcher interface {
	Fetch(ctx context.Context, loc domain.Location) (PollResult, error)
}
