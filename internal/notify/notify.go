// Package notify delivers availability alerts and keeps repeats in check.
//
// Transports (ntfy, Slack) implement Notifier. The Gate sits in front of a
// Notifier and refuses to send the same text more than a fixed number of
// times within a location's recent history.
package notify

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/domain"
)

const (
	alertTitle    = "Global Entry Alert!"
	alertPriority = "default"
	alertTags     = "earth_americas,passport_control,airplane"
)

type Notifier interface {
	Send(ctx context.Context, loc domain.LocationCode, text string) error
}

// Multi fans out to every notifier and reports all failures.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, loc domain.LocationCode, text string) error {
	var errs error
	for _, n := range m {
		if n == nil {
			continue
		}
		errs = multierr.Append(errs, n.Send(ctx, loc, text))
	}
	return errs
}

// BestEffort logs and swallows failures of a secondary channel so that it
// cannot turn a delivered alert into a failed one.
type BestEffort struct {
	Notifier Notifier
	Logger   *zap.Logger
	Name     string
}

func (b BestEffort) Send(ctx context.Context, loc domain.LocationCode, text string) error {
	if b.Notifier == nil {
		return nil
	}
	if err := b.Notifier.Send(ctx, loc, text); err != nil && b.Logger != nil {
		b.Logger.Warn("notify_mirror_error",
			zap.String("channel", b.Name),
			zap.String("location", string(loc)),
			zap.Error(err),
		)
	}
	return nil
}
