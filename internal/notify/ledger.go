package notify

import (
	"sync"
	"time"
)

// Ledger counts successful dispatches over a trailing window (24h).
// It is diagnostic only; nothing is suppressed based on it.
type Ledger struct {
	mu     sync.Mutex
	span   time.Duration
	sentAt []time.Time
}

func NewLedger(span time.Duration) *Ledger {
	if span <= 0 {
		span = 24 * time.Hour
	}
	return &Ledger{span: span}
}

// Record appends now, prunes entries older than the span and returns the
// remaining count.
func (l *Ledger) Record(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sentAt = append(l.sentAt, now)
	l.pruneLocked(now)
	return len(l.sentAt)
}

// Count reports how many dispatches fall inside the span ending at now.
func (l *Ledger) Count(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(now)
	return len(l.sentAt)
}

func (l *Ledger) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.span)
	i := 0
	for i < len(l.sentAt) && !l.sentAt[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.sentAt = append(l.sentAt[:0], l.sentAt[i:]...)
	}
}
