package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/slotwatch/internal/domain"
	"github.com/hamed0406/slotwatch/internal/probe"
)

// --- fakes ---

type fakeFetcher struct {
	mu    sync.Mutex
	calls []domain.LocationCode
	res   map[domain.LocationCode]probe.PollResult
	errs  map[domain.LocationCode]error
	panic domain.LocationCode
}

func (f *fakeFetcher) Fetch(ctx context.Context, loc domain.Location) (probe.PollResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, loc.Code)
	f.mu.Unlock()
	if loc.Code == f.panic {
		panic("boom")
	}
	return f.res[loc.Code], f.errs[loc.Code]
}

func (f *fakeFetcher) Calls() []domain.LocationCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.LocationCode(nil), f.calls...)
}

type evalCall struct {
	loc   domain.LocationCode
	slots int
	now   time.Time
}

type fakeTracker struct {
	mu    sync.Mutex
	calls []evalCall
}

func (f *fakeTracker) Evaluate(ctx context.Context, loc domain.Location, slots []domain.Slot, now time.Time) ([]domain.Notice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, evalCall{loc: loc.Code, slots: len(slots), now: now})
	if len(slots) == 0 {
		return nil, nil
	}
	return []domain.Notice{{Location: loc.Code, Kind: domain.NewBest, Dispatched: true, Outcome: domain.Outcome{Status: domain.Sent}}}, nil
}

func (f *fakeTracker) Calls() []evalCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]evalCall(nil), f.calls...)
}

type fakeLog struct {
	mu   sync.Mutex
	recs []domain.PollRecord
	err  error
}

func (f *fakeLog) Append(ctx context.Context, r *domain.PollRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs = append(f.recs, *r)
	return f.err
}

func (f *fakeLog) Records() []domain.PollRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PollRecord(nil), f.recs...)
}

var (
	sea = domain.Location{Code: "SEA", LocationID: 5020, Alert: true}
	sfo = domain.Location{Code: "SFO", LocationID: 5446}
)

func okResult(ts ...string) probe.PollResult {
	r := probe.PollResult{StatusCode: 200, Body: []byte(`{"availableSlots":[]}`), LatencyMS: 2}
	for _, s := range ts {
		r.Slots = append(r.Slots, domain.Slot{StartTimestamp: s})
	}
	return r
}

func newTestPoller(f *fakeFetcher, tr *fakeTracker, l *fakeLog, cfg PollerConfig, locs ...domain.Location) *Poller {
	p := NewPoller(zap.NewNop(), locs, f, tr, l, cfg)
	p.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

// --- tests ---

func TestPollOnce_FetchLogEvaluate(t *testing.T) {
	f := &fakeFetcher{res: map[domain.LocationCode]probe.PollResult{"SEA": okResult("2025-06-01T10:00")}}
	tr := &fakeTracker{}
	l := &fakeLog{}
	p := newTestPoller(f, tr, l, PollerConfig{}, sea)

	notices := p.PollOnce(context.Background(), sea)
	if len(notices) != 1 || notices[0].Kind != domain.NewBest {
		t.Fatalf("notices = %+v", notices)
	}
	recs := l.Records()
	if len(recs) != 1 {
		t.Fatalf("want 1 poll record, got %d", len(recs))
	}
	r := recs[0]
	if r.Location != "SEA" || r.LocationID != 5020 || r.StatusCode != 200 || r.SlotCount != 1 || r.Error != "" {
		t.Fatalf("unexpected record %+v", r)
	}
	if r.Body != `{"availableSlots":[]}` {
		t.Fatalf("body not kept verbatim: %q", r.Body)
	}
	calls := tr.Calls()
	if len(calls) != 1 || calls[0].slots != 1 || !calls[0].now.Equal(r.PolledAt) {
		t.Fatalf("evaluate calls = %+v", calls)
	}
}

func TestPollOnce_TransportErrorSkipsEvaluate(t *testing.T) {
	f := &fakeFetcher{errs: map[domain.LocationCode]error{
		"SEA": fmt.Errorf("%w: dial tcp: refused", domain.ErrTransport),
	}}
	tr := &fakeTracker{}
	l := &fakeLog{}
	p := newTestPoller(f, tr, l, PollerConfig{}, sea)

	if n := p.PollOnce(context.Background(), sea); n != nil {
		t.Fatalf("expected no notices, got %+v", n)
	}
	if len(tr.Calls()) != 0 {
		t.Fatal("tracker must not see a failed poll")
	}
	recs := l.Records()
	if len(recs) != 1 || recs[0].Error == "" {
		t.Fatalf("error not audited: %+v", recs)
	}
}

func TestPollOnce_MalformedPayloadSkipsEvaluate(t *testing.T) {
	res := probe.PollResult{StatusCode: 200, Body: []byte(`<html>`)}
	f := &fakeFetcher{
		res:  map[domain.LocationCode]probe.PollResult{"SEA": res},
		errs: map[domain.LocationCode]error{"SEA": fmt.Errorf("%w: bad json", domain.ErrMalformedPayload)},
	}
	tr := &fakeTracker{}
	l := &fakeLog{}
	p := newTestPoller(f, tr, l, PollerConfig{}, sea)

	p.PollOnce(context.Background(), sea)
	if len(tr.Calls()) != 0 {
		t.Fatal("a malformed payload must not be read as an empty poll")
	}
	if recs := l.Records(); len(recs) != 1 || recs[0].Body != "<html>" {
		t.Fatalf("raw body not audited: %+v", recs)
	}
}

func TestPollOnce_NonOKStatusStillEvaluated(t *testing.T) {
	res := okResult()
	res.StatusCode = 503
	f := &fakeFetcher{res: map[domain.LocationCode]probe.PollResult{"SEA": res}}
	tr := &fakeTracker{}
	p := newTestPoller(f, tr, &fakeLog{}, PollerConfig{}, sea)

	p.PollOnce(context.Background(), sea)
	if calls := tr.Calls(); len(calls) != 1 || calls[0].slots != 0 {
		t.Fatalf("evaluate calls = %+v", calls)
	}
}

func TestPollOnce_LogFailureDoesNotBlockEvaluate(t *testing.T) {
	f := &fakeFetcher{res: map[domain.LocationCode]probe.PollResult{"SEA": okResult("2025-06-01T10:00")}}
	tr := &fakeTracker{}
	p := newTestPoller(f, tr, &fakeLog{err: fmt.Errorf("disk full")}, PollerConfig{}, sea)

	p.PollOnce(context.Background(), sea)
	if len(tr.Calls()) != 1 {
		t.Fatal("evaluate should run even when the audit log fails")
	}
}

func TestPollOnce_RecoversPanic(t *testing.T) {
	f := &fakeFetcher{panic: "SEA"}
	p := newTestPoller(f, &fakeTracker{}, &fakeLog{}, PollerConfig{}, sea)

	if n := p.PollOnce(context.Background(), sea); n != nil {
		t.Fatalf("expected nil notices, got %+v", n)
	}
}

func TestGap(t *testing.T) {
	p := newTestPoller(&fakeFetcher{}, &fakeTracker{}, nil, PollerConfig{Period: 15 * time.Second}, sea, sfo)
	if got := p.Gap(); got != 7500*time.Millisecond {
		t.Fatalf("gap = %v", got)
	}
	p = newTestPoller(&fakeFetcher{}, &fakeTracker{}, nil, PollerConfig{Period: 15 * time.Second})
	if got := p.Gap(); got != 15*time.Second {
		t.Fatalf("gap with no locations = %v", got)
	}
}

func TestRun_SequentialRoundRobinSurvivesErrors(t *testing.T) {
	f := &fakeFetcher{
		res:  map[domain.LocationCode]probe.PollResult{"SFO": okResult("2025-06-01T10:00")},
		errs: map[domain.LocationCode]error{"SEA": fmt.Errorf("%w: timeout", domain.ErrTransport)},
	}
	tr := &fakeTracker{}
	p := newTestPoller(f, tr, &fakeLog{}, PollerConfig{Period: 20 * time.Millisecond}, sea, sfo)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(f.Calls()) < 4 {
		select {
		case <-deadline:
			t.Fatalf("only %d fetches before deadline", len(f.Calls()))
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	calls := f.Calls()
	for i, c := range calls {
		want := sea.Code
		if i%2 == 1 {
			want = sfo.Code
		}
		if c != want {
			t.Fatalf("fetch %d went to %s, want %s (calls %v)", i, c, want, calls)
		}
	}
	for _, c := range tr.Calls() {
		if c.loc != "SFO" {
			t.Fatalf("SEA failed every poll and must not be evaluated, got %+v", c)
		}
	}
}

func TestRun_ParallelPollsEveryLocation(t *testing.T) {
	f := &fakeFetcher{res: map[domain.LocationCode]probe.PollResult{
		"SEA": okResult("2025-06-01T10:00"),
		"SFO": okResult(),
	}}
	tr := &fakeTracker{}
	p := newTestPoller(f, tr, &fakeLog{}, PollerConfig{Period: 10 * time.Millisecond, Parallel: true}, sea, sfo)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	seen := func() map[domain.LocationCode]int {
		m := map[domain.LocationCode]int{}
		for _, c := range f.Calls() {
			m[c]++
		}
		return m
	}
	deadline := time.After(2 * time.Second)
	for {
		m := seen()
		if m["SEA"] >= 2 && m["SFO"] >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("fetch counts before deadline: %v", m)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_NoLocationsReturns(t *testing.T) {
	p := newTestPoller(&fakeFetcher{}, &fakeTracker{}, nil, PollerConfig{})
	done := make(chan struct{})
	go func() {
		p.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run with no locations should return immediately")
	}
}

func TestSleep_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sleep(ctx, time.Hour) {
		t.Fatal("sleep should report stop on a cancelled context")
	}
	if sleep(ctx, 0) {
		t.Fatal("zero sleep on a cancelled context should report stop")
	}
}
