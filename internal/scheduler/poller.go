package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/domain"
	"github.com/hamed0406/slotwatch/internal/probe"
	"github.com/hamed0406/slotwatch/internal/repo"
)

// Evaluator is satisfied by *tracker.Tracker.
type Evaluator interface {
	Evaluate(ctx context.Context, loc domain.Location, slots []domain.Slot, now time.Time) ([]domain.Notice, error)
}

type PollerConfig struct {
	Period   time.Duration // one full round over all locations
	Timeout  time.Duration // per upstream call
	Parallel bool          // one goroutine per location instead of a single round-robin
}

// Poller drives the fetch -> audit log -> evaluate cycle for every location.
//
// Sequentially it sleeps Period/len(locations) after each location so that a
// round takes about Period. In parallel mode every location polls every
// Period on its own goroutine, starts staggered by the same gap. Either way a
// location is only ever evaluated by one goroutine, so its polls stay ordered.
type Poller struct {
	Logger    *zap.Logger
	Locations []domain.Location
	Fetcher   probe.Fetcher
	Tracker   Evaluator
	Log       repo.PollLog
	cfg       PollerConfig
	now       func() time.Time
}

func NewPoller(
	logger *zap.Logger,
	locations []domain.Location,
	fetcher probe.Fetcher,
	tracker Evaluator,
	pollLog repo.PollLog,
	cfg PollerConfig,
) *Poller {
	if cfg.Period <= 0 {
		cfg.Period = 15 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Poller{
		Logger:    logger,
		Locations: locations,
		Fetcher:   fetcher,
		Tracker:   tracker,
		Log:       pollLog,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Gap is the pause between two consecutive locations.
func (p *Poller) Gap() time.Duration {
	if len(p.Locations) == 0 {
		return p.cfg.Period
	}
	return p.cfg.Period / time.Duration(len(p.Locations))
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	if len(p.Locations) == 0 {
		p.Logger.Warn("poller_no_locations")
		return
	}
	p.Logger.Info("poller_started",
		zap.Int("locations", len(p.Locations)),
		zap.Duration("period", p.cfg.Period),
		zap.Duration("gap", p.Gap()),
		zap.Bool("parallel", p.cfg.Parallel),
	)
	if p.cfg.Parallel {
		p.runParallel(ctx)
	} else {
		p.runSequential(ctx)
	}
	p.Logger.Info("poller_stopped")
}

func (p *Poller) runSequential(ctx context.Context) {
	gap := p.Gap()
	for {
		for _, loc := range p.Locations {
			p.PollOnce(ctx, loc)
			if !sleep(ctx, gap) {
				return
			}
		}
	}
}

func (p *Poller) runParallel(ctx context.Context) {
	gap := p.Gap()
	var wg sync.WaitGroup
	for i, loc := range p.Locations {
		wg.Add(1)
		go func(offset time.Duration, loc domain.Location) {
			defer wg.Done()
			if !sleep(ctx, offset) {
				return
			}
			for {
				p.PollOnce(ctx, loc)
				if !sleep(ctx, p.cfg.Period) {
					return
				}
			}
		}(time.Duration(i)*gap, loc)
	}
	wg.Wait()
}

// PollOnce runs a single cycle for loc. Failures are logged and end only
// this cycle.
func (p *Poller) PollOnce(ctx context.Context, loc domain.Location) (notices []domain.Notice) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("poll_panic",
				zap.String("location", string(loc.Code)),
				zap.String("panic", fmt.Sprint(r)),
			)
			notices = nil
		}
	}()

	cctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	res, err := p.Fetcher.Fetch(cctx, loc)
	cancel()
	now := p.now().UTC()

	rec := &domain.PollRecord{
		Location:   loc.Code,
		LocationID: loc.LocationID,
		StatusCode: res.StatusCode,
		Body:       string(res.Body),
		SlotCount:  len(res.Slots),
		LatencyMS:  res.LatencyMS,
		PolledAt:   now,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if p.Log != nil {
		if lerr := p.Log.Append(ctx, rec); lerr != nil {
			p.Logger.Warn("poll_log_error", zap.String("location", string(loc.Code)), zap.Error(lerr))
		}
	}

	if err != nil {
		p.Logger.Warn("poll_error",
			zap.String("location", string(loc.Code)),
			zap.Int("location_id", loc.LocationID),
			zap.Int("status", res.StatusCode),
			zap.Error(err),
		)
		return nil
	}
	if res.StatusCode != 200 {
		p.Logger.Warn("poll_status",
			zap.String("location", string(loc.Code)),
			zap.Int("status", res.StatusCode),
		)
	}

	notices, err = p.Tracker.Evaluate(ctx, loc, res.Slots, now)
	if err != nil {
		p.Logger.Warn("evaluate_error", zap.String("location", string(loc.Code)), zap.Error(err))
	}
	for _, n := range notices {
		fields := []zap.Field{
			zap.String("location", string(n.Location)),
			zap.String("kind", string(n.Kind)),
			zap.Bool("dispatched", n.Dispatched),
		}
		if n.Dispatched {
			fields = append(fields, zap.String("outcome", string(n.Outcome.Status)))
		}
		p.Logger.Debug("poll_notice", fields...)
	}
	p.Logger.Debug("poll_checked",
		zap.String("location", string(loc.Code)),
		zap.Int("status", res.StatusCode),
		zap.Int("slots", len(res.Slots)),
		zap.Float64("latency_ms", res.LatencyMS),
	)
	return notices
}

// sleep waits d or until ctx is done; false means stop.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
