package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/slotwatch/internal/domain"
)

// Ntfy publishes plain-text messages to {BaseURL}/{TopicPrefix}{location}.
type Ntfy struct {
	BaseURL     string
	TopicPrefix string
	Client      *http.Client
}

func NewNtfy(baseURL, topicPrefix string, timeout time.Duration) *Ntfy {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Ntfy{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		TopicPrefix: topicPrefix,
		Client:      &http.Client{Timeout: timeout},
	}
}

func (n *Ntfy) Topic(loc domain.LocationCode) string {
	return n.TopicPrefix + string(loc)
}

func (n *Ntfy) Send(ctx context.Context, loc domain.LocationCode, text string) error {
	url := n.BaseURL + "/" + n.Topic(loc)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("%w: ntfy request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Title", alertTitle)
	req.Header.Set("Priority", alertPriority)
	req.Header.Set("Tags", alertTags)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: ntfy post: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: ntfy returned %s", domain.ErrTransport, resp.Status)
	}
	return nil
}
