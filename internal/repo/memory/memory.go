package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hamed0406/slotwatch/internal/domain"
	"github.com/hamed0406/slotwatch/internal/repo"
)

var (
	_ repo.StateStore   = (*Store)(nil)
	_ repo.PollLog      = (*Store)(nil)
	_ repo.PollSnapshot = (*Store)(nil)
)

// Store holds location state and the latest poll per location for the
// lifetime of the process.
type Store struct {
	mu     sync.RWMutex
	states map[domain.LocationCode]domain.LocationState
	polls  map[domain.LocationCode]domain.PollRecord
}

func New() *Store {
	return &Store{
		states: make(map[domain.LocationCode]domain.LocationState),
		polls:  make(map[domain.LocationCode]domain.PollRecord),
	}
}

func (m *Store) Load(ctx context.Context, loc domain.Location) (domain.LocationState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[loc.Code]
	if !ok {
		s = domain.LocationState{Code: loc.Code, LocationID: loc.LocationID}
		m.states[loc.Code] = s
	}
	return s, nil
}

func (m *Store) Save(ctx context.Context, s domain.LocationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.Code] = s
	return nil
}

func (m *Store) List(ctx context.Context) ([]domain.LocationState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.LocationState, 0, len(m.states))
	for _, s := range m.states {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// Append keeps only the newest record per location.
func (m *Store) Append(ctx context.Context, r *domain.PollRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.polls[r.Location]
	if !ok || !r.PolledAt.Before(cur.PolledAt) {
		m.polls[r.Location] = *r
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) ([]domain.PollRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.PollRecord, 0, len(m.polls))
	for _, r := range m.polls {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out, nil
}
