// Package tracker turns raw availability snapshots into classified changes.
//
// For each location it remembers the best (earliest) slot of the current
// streak and when it last told anyone about it. Every slot of a poll is
// compared against that baseline on its own, so one poll can produce
// several notices. An empty poll ends the streak.
//
// State advances whether or not the location is subscribed to alerts and
// whether or not the dispatch succeeded. A failed send is therefore not
// retried by the next poll, because the baseline has already moved.
package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/domain"
	"github.com/hamed0406/slotwatch/internal/repo"
)

const (
	DefaultHorizon          = 90 * 24 * time.Hour
	DefaultReminderInterval = 180 * time.Second
)

// Dispatcher is satisfied by *notify.Gate.
type Dispatcher interface {
	TryNotify(ctx context.Context, loc domain.LocationCode, msg string) domain.Outcome
}

type Config struct {
	Horizon          time.Duration // slots starting this far out or later are ignored
	ReminderInterval time.Duration // minimum gap between "still open" reminders
}

type Tracker struct {
	log    *zap.Logger
	states repo.StateStore
	gate   Dispatcher
	cfg    Config
}

func New(log *zap.Logger, states repo.StateStore, gate Dispatcher, cfg Config) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultHorizon
	}
	if cfg.ReminderInterval <= 0 {
		cfg.ReminderInterval = DefaultReminderInterval
	}
	return &Tracker{log: log, states: states, gate: gate, cfg: cfg}
}

// Evaluate applies one poll's slots to loc's state. The only errors
// returned come from the state store; bad slots are logged and skipped.
func (t *Tracker) Evaluate(ctx context.Context, loc domain.Location, slots []domain.Slot, now time.Time) ([]domain.Notice, error) {
	st, err := t.states.Load(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", loc.Code, err)
	}

	var notices []domain.Notice
	if len(slots) == 0 {
		t.log.Info("no_slots", zap.String("location", string(loc.Code)))
		if st.StreakActive() {
			msg := fmt.Sprintf("Previous appointment at %s is no longer available :(", loc.Code)
			notices = append(notices, t.emit(ctx, loc, domain.Vanished, msg, time.Time{}))
		}
		st.Reset()
		return notices, t.save(ctx, st)
	}

	for _, s := range slots {
		start, err := s.Start()
		if err != nil {
			t.log.Warn("slot_malformed",
				zap.String("location", string(loc.Code)),
				zap.String("start_timestamp", s.StartTimestamp),
				zap.Error(err),
			)
			continue
		}
		if start.Sub(now) >= t.cfg.Horizon {
			t.log.Info("slot_beyond_horizon",
				zap.String("location", string(loc.Code)),
				zap.String("start_timestamp", s.StartTimestamp),
			)
			continue
		}

		switch {
		case !st.HasBest() || start.Before(st.BestSlot):
			t.log.Info("slot_new_best", zap.String("location", string(loc.Code)), zap.String("start_timestamp", s.StartTimestamp))
			msg := fmt.Sprintf("Found new appointment at %s: %s", loc.Code, s.StartTimestamp)
			notices = append(notices, t.emit(ctx, loc, domain.NewBest, msg, start))
			st.BestSlot, st.BestSlotRaw, st.LastNotificationAt = start, s.StartTimestamp, now

		case start.Equal(st.BestSlot):
			if st.StreakActive() && now.Sub(st.LastNotificationAt) <= t.cfg.ReminderInterval {
				t.log.Debug("slot_unchanged", zap.String("location", string(loc.Code)), zap.String("start_timestamp", s.StartTimestamp))
				continue
			}
			msg := fmt.Sprintf("Appointment at %s is still open: %s", loc.Code, s.StartTimestamp)
			notices = append(notices, t.emit(ctx, loc, domain.Unchanged, msg, start))
			st.LastNotificationAt = now

		default:
			t.log.Info("slot_regressed", zap.String("location", string(loc.Code)), zap.String("start_timestamp", s.StartTimestamp))
			msg := fmt.Sprintf("Appointment at %s closed, but now there is one at %s", loc.Code, s.StartTimestamp)
			notices = append(notices, t.emit(ctx, loc, domain.Regressed, msg, start))
			st.BestSlot, st.BestSlotRaw, st.LastNotificationAt = start, s.StartTimestamp, now
		}
	}
	return notices, t.save(ctx, st)
}

// emit dispatches msg when loc is subscribed to alerts.
func (t *Tracker) emit(ctx context.Context, loc domain.Location, kind domain.ChangeKind, msg string, slot time.Time) domain.Notice {
	n := domain.Notice{Location: loc.Code, Kind: kind, Message: msg, Slot: slot}
	if !loc.Alert {
		return n
	}
	n.Dispatched = true
	n.Outcome = t.gate.TryNotify(ctx, loc.Code, msg)
	return n
}

func (t *Tracker) save(ctx context.Context, st domain.LocationState) error {
	if err := t.states.Save(ctx, st); err != nil {
		return fmt.Errorf("save state %s: %w", st.Code, err)
	}
	return nil
}
