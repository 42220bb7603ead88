package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/domain"
)

type GateConfig struct {
	RepeatCap int           // identical sends allowed within a location's window (default 3)
	Timeout   time.Duration // per-dispatch bound on top of the transport's own timeout
}

// Gate suppresses redundant repeats before handing a message to the
// transport and keeps the 24h dispatch ledger.
//
// Each location has a ring of its last RepeatCap sent messages. A message
// already occupying RepeatCap slots of that ring is suppressed. Only
// successful sends enter the ring and the ledger.
type Gate struct {
	log      *zap.Logger
	notifier Notifier
	ledger   *Ledger
	cfg      GateConfig
	now      func() time.Time

	mu      sync.Mutex
	windows map[domain.LocationCode]*window
}

func NewGate(log *zap.Logger, n Notifier, cfg GateConfig) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.RepeatCap < 1 {
		cfg.RepeatCap = 3
	}
	return &Gate{
		log:      log,
		notifier: n,
		ledger:   NewLedger(24 * time.Hour),
		cfg:      cfg,
		now:      time.Now,
		windows:  make(map[domain.LocationCode]*window),
	}
}

// windowLocked is get-or-create; callers hold g.mu.
func (g *Gate) windowLocked(loc domain.LocationCode) *window {
	w, ok := g.windows[loc]
	if !ok {
		w = newWindow(g.cfg.RepeatCap)
		g.windows[loc] = w
	}
	return w
}

func (g *Gate) TryNotify(ctx context.Context, loc domain.LocationCode, msg string) domain.Outcome {
	g.mu.Lock()
	repeats := g.windowLocked(loc).count(msg)
	g.mu.Unlock()

	if repeats >= g.cfg.RepeatCap {
		g.log.Info("notify_suppressed",
			zap.String("location", string(loc)),
			zap.String("message", msg),
			zap.Int("repeats", repeats),
		)
		return domain.Outcome{Status: domain.Suppressed}
	}

	sendCtx := ctx
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}
	if err := g.notifier.Send(sendCtx, loc, msg); err != nil {
		g.log.Warn("notify_failed",
			zap.String("location", string(loc)),
			zap.String("message", msg),
			zap.Error(err),
		)
		return domain.Outcome{Status: domain.Failed, Err: err}
	}

	g.mu.Lock()
	g.windowLocked(loc).push(msg)
	g.mu.Unlock()
	sent := g.ledger.Record(g.now())

	g.log.Info("notify_sent",
		zap.String("location", string(loc)),
		zap.String("message", msg),
		zap.Int("sent_last_24h", sent),
	)
	return domain.Outcome{Status: domain.Sent}
}

// SentLast24h is the ledger count as of now.
func (g *Gate) SentLast24h() int {
	return g.ledger.Count(g.now())
}

// Recent returns each location's window, oldest message first.
func (g *Gate) Recent() map[domain.LocationCode][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[domain.LocationCode][]string, len(g.windows))
	for loc, w := range g.windows {
		out[loc] = w.items()
	}
	return out
}
