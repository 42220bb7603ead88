package probe

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/slotwatch/internal/domain"
)

// RetryFetcher retries transport failures only. A malformed payload is an
// answer, so retrying it would just hammer the upstream.
type RetryFetcher struct {
	Inner    Fetcher
	Attempts int
	Backoff  time.Duration
}

func (r *RetryFetcher) Fetch(ctx context.Context, loc domain.Location) (PollResult, error) {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var (
		last PollResult
		err  error
	)
	for i := 0; i < attempts; i++ {
		last, err = r.Inner.Fetch(ctx, loc)
		if err == nil || !errors.Is(err, domain.ErrTransport) {
			return last, err
		}
		if i < attempts-1 && r.Backoff > 0 {
			t := time.NewTimer(r.Backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return last, err
			case <-t.C:
			}
		}
	}
	return last, err
}
