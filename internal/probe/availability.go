package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hamed0406/slotwatch/internal/domain"
)

const maxBody = 1 << 20

// AvailabilityClient talks to the scheduler's slot-availability endpoint:
//
//	GET {BaseURL}?locationId=5420  ->  {"availableSlots":[{"startTimestamp":"2025-06-01T10:00"}]}
type AvailabilityClient struct {
	BaseURL string
	Client  *http.Client
}

func NewAvailabilityClient(baseURL string, timeout time.Duration) *AvailabilityClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AvailabilityClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

type availabilityPayload struct {
	AvailableSlots *[]domain.Slot `json:"availableSlots"`
}

// Fetch reports transport failures as domain.ErrTransport and bad JSON as
// domain.ErrMalformedPayload. A non-200 status is not an error by itself;
// the body is still parsed.
func (c *AvailabilityClient) Fetch(ctx context.Context, loc domain.Location) (PollResult, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return PollResult{}, fmt.Errorf("%w: availability url: %v", domain.ErrConfig, err)
	}
	q := u.Query()
	q.Set("locationId", strconv.Itoa(loc.LocationID))
	u.RawQuery = q.Encode()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return PollResult{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return PollResult{LatencyMS: latency}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	out := PollResult{StatusCode: resp.StatusCode, LatencyMS: latency}
	out.Body, err = io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return out, fmt.Errorf("%w: read body: %v", domain.ErrTransport, err)
	}

	var p availabilityPayload
	if err := json.Unmarshal(out.Body, &p); err != nil {
		return out, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if p.AvailableSlots == nil {
		return out, fmt.Errorf("%w: availableSlots missing", domain.ErrMalformedPayload)
	}
	out.Slots = *p.AvailableSlots
	return out, nil
}
