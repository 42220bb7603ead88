package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/domain"
)

func TestNtfy_PostsTopicBodyAndHeaders(t *testing.T) {
	var (
		path    string
		body    string
		headers http.Header
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		headers = r.Header.Clone()
		w.WriteHeader(200)
	}))
	defer ts.Close()

	n := NewNtfy(ts.URL+"/", "GE-", time.Second)
	if err := n.Send(context.Background(), "SEA", "Found new appointment at SEA: 2025-06-01T10:00"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if path != "/GE-SEA" {
		t.Fatalf("topic path wrong: %q", path)
	}
	if body != "Found new appointment at SEA: 2025-06-01T10:00" {
		t.Fatalf("body wrong: %q", body)
	}
	if headers.Get("Title") != "Global Entry Alert!" ||
		headers.Get("Priority") != "default" ||
		headers.Get("Tags") != "earth_americas,passport_control,airplane" {
		t.Fatalf("headers wrong: %v", headers)
	}
}

func TestNtfy_Non2xxIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	err := NewNtfy(ts.URL, "GE-", time.Second).Send(context.Background(), "DEN", "x")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
}

func TestNtfy_UnreachableIsTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	err := NewNtfy(url, "GE-", 200*time.Millisecond).Send(context.Background(), "DEN", "x")
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
}

func TestSlack_OK(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got = payload["text"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL, time.Second)
	if s == nil {
		t.Fatal("expected slack client")
	}
	if err := s.Send(context.Background(), "SEA", "Hello"); err != nil {
		t.Fatalf("send err: %v", err)
	}
	if !strings.HasPrefix(got, "*Global Entry Alert!* [SEA]") || !strings.HasSuffix(got, "Hello") {
		t.Fatalf("payload not as expected: %q", got)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	if err := NewSlack(ts.URL, time.Second).Send(context.Background(), "SEA", "Y"); err == nil {
		t.Fatalf("expected error on non-2xx")
	}
	if NewSlack("", 0) != nil {
		t.Fatalf("empty webhook should disable slack")
	}
}

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) Send(context.Context, domain.LocationCode, string) error {
	s.calls++
	return s.err
}

func TestMulti_CombinesErrors(t *testing.T) {
	a := &stubNotifier{err: errors.New("a down")}
	b := &stubNotifier{}
	c := &stubNotifier{err: errors.New("c down")}

	err := Multi{a, nil, b, c}.Send(context.Background(), "SEA", "m")
	if err == nil || !strings.Contains(err.Error(), "a down") || !strings.Contains(err.Error(), "c down") {
		t.Fatalf("want both errors, got %v", err)
	}
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Fatalf("every notifier should be called once")
	}
	if err := (Multi{b}).Send(context.Background(), "SEA", "m"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestBestEffort_SwallowsErrors(t *testing.T) {
	inner := &stubNotifier{err: errors.New("boom")}
	be := BestEffort{Notifier: inner, Logger: zap.NewNop(), Name: "slack"}
	if err := be.Send(context.Background(), "SEA", "m"); err != nil {
		t.Fatalf("best effort must not fail: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner not called")
	}
	if err := (BestEffort{}).Send(context.Background(), "SEA", "m"); err != nil {
		t.Fatalf("nil inner must be a no-op: %v", err)
	}
}
