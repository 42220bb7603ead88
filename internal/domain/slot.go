package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Slot is a single available appointment as reported upstream.
// StartTimestamp is kept verbatim because it is echoed back in alerts.
//
// Decoding never fails on a single slot: when the entry or its
// startTimestamp is not the expected JSON shape, the raw JSON is kept in
// Invalid and Start reports it, so one bad slot does not cost its siblings.
type Slot struct {
	StartTimestamp string `json:"startTimestamp"`
	Invalid        string `json:"-"`
}

func (s *Slot) UnmarshalJSON(b []byte) error {
	*s = Slot{}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil || obj == nil {
		s.Invalid = string(b)
		return nil
	}
	v, ok := obj["startTimestamp"]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(v, &s.StartTimestamp); err != nil {
		s.StartTimestamp = ""
		s.Invalid = string(v)
	}
	return nil
}

// the scheduler API reports local wall-clock times without a zone
var slotLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Start parses StartTimestamp. Zone-less values are read as UTC. The zero
// instant is rejected because it marks "no best slot" in LocationState.
func (s Slot) Start() (time.Time, error) {
	if s.Invalid != "" {
		return time.Time{}, fmt.Errorf("%w: startTimestamp has wrong type: %s", ErrMalformedPayload, s.Invalid)
	}
	raw := strings.TrimSpace(s.StartTimestamp)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: startTimestamp missing", ErrMalformedPayload)
	}
	for _, layout := range slotLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			if t.IsZero() {
				return time.Time{}, fmt.Errorf("%w: startTimestamp %q is the zero time", ErrMalformedPayload, raw)
			}
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: startTimestamp %q not ISO-8601", ErrMalformedPayload, raw)
}
