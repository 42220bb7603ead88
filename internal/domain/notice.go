package domain

import "time"

// ChangeKind classifies what a poll means for a location's streak.
type ChangeKind string

const (
	NewBest   ChangeKind = "new_best"
	Unchanged ChangeKind = "unchanged"
	Regressed ChangeKind = "regressed"
	Vanished  ChangeKind = "vanished"
)

type DispatchStatus string

const (
	Sent       DispatchStatus = "sent"
	Suppressed DispatchStatus = "suppressed"
	Failed     DispatchStatus = "failed"
)

// Outcome is what the notification gate did with a message.
// Err is set only when Status is Failed.
type Outcome struct {
	Status DispatchStatus
	Err    error
}

// Notice is one classified change produced by a single evaluation.
// Dispatched is false when the location is not subscribed to alerts;
// Outcome is meaningless in that case.
type Notice struct {
	Location   LocationCode
	Kind       ChangeKind
	Message    string
	Slot       time.Time
	Dispatched bool
	Outcome    Outcome
}
