package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hamed0406/slotwatch/internal/domain"
)

type Slack struct {
	Webhook string
	Client  *http.Client
}

// NewSlack returns nil when no webhook is configured.
func NewSlack(webhook string, timeout time.Duration) *Slack {
	if webhook == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Slack{
		Webhook: webhook,
		Client:  &http.Client{Timeout: timeout},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *Slack) Send(ctx context.Context, loc domain.LocationCode, text string) error {
	if s == nil || s.Webhook == "" {
		return errors.New("slack disabled")
	}
	body, _ := json.Marshal(slackPayload{Text: fmt.Sprintf("*%s* [%s]\n%s", alertTitle, loc, text)})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: slack request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: slack post: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: slack non-2xx: %d", domain.ErrTransport, resp.StatusCode)
	}
	return nil
}
