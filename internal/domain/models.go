package domain

import "time"

// LocationCode is the short operator-facing name of an enrollment center, e.g. "SEA".
type LocationCode string

type Location struct {
	Code       LocationCode `json:"code" yaml:"-"`
	LocationID int          `json:"location_id" yaml:"locationId"`
	Alert      bool         `json:"alert" yaml:"alert"`
}

// LocationState is the tracker's memory of one location's current streak.
// A zero BestSlot means "unset" and compares as later than every slot.
// A zero LastNotificationAt means no notification in the current streak.
type LocationState struct {
	Code               LocationCode `json:"code"`
	LocationID         int          `json:"location_id"`
	BestSlot           time.Time    `json:"best_slot"`
	BestSlotRaw        string       `json:"best_slot_raw,omitempty"`
	LastNotificationAt time.Time    `json:"last_notification_at"`
}

func (s LocationState) HasBest() bool { return !s.BestSlot.IsZero() }

func (s LocationState) StreakActive() bool { return !s.LastNotificationAt.IsZero() }

// Reset drops the streak; the location returns to "nothing seen yet".
func (s *LocationState) Reset() {
	s.BestSlot = time.Time{}
	s.BestSlotRaw = ""
	s.LastNotificationAt = time.Time{}
}

// PollRecord is one entry of the append-only poll audit log.
type PollRecord struct {
	Location   LocationCode `json:"location"`
	LocationID int          `json:"location_id"`
	StatusCode int          `json:"status_code,omitempty"`
	Body       string       `json:"body,omitempty"`
	Error      string       `json:"error,omitempty"`
	SlotCount  int          `json:"slot_count"`
	LatencyMS  float64      `json:"latency_ms"`
	PolledAt   time.Time    `json:"polled_at"`
}
