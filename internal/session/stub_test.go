package session

import (
	"context"
	"sync"
	"time"

	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/store"
)

// stubSearcher answers searches with canned results. When gate is set,
// every call blocks until gate is closed or ctx is done.
type stubSearcher struct {
	mu         sync.Mutex
	results    []model.ImporterSummary
	err        error
	similar    []model.ImporterSummary
	seeds      []string
	gate       chan struct{}
	panicOnRun bool
}

func (s *stubSearcher) wait(ctx context.Context) error {
	if s.gate == nil {
		return nil
	}
	select {
	case <-s.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *stubSearcher) SearchDetailed(ctx context.Context, _ model.SearchFilters) ([]model.ImporterSummary, error) {
	if s.panicOnRun {
		panic("boom")
	}
	if err := s.wait(ctx); err != nil {
		return []model.ImporterSummary{}, err
	}
	return s.results, s.err
}

func (s *stubSearcher) SearchSimilar(ctx context.Context, seed string) []model.ImporterSummary {
	s.mu.Lock()
	s.seeds = append(s.seeds, seed)
	s.mu.Unlock()
	if err := s.wait(ctx); err != nil {
		return []model.ImporterSummary{}
	}
	return s.similar
}

func (s *stubSearcher) seedsSeen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seeds...)
}

type stubFetcher struct {
	mu        sync.Mutex
	result    *model.DetailedImporterResult
	err       error
	calls     int
	summaries []*model.ImporterSummary
}

func (s *stubFetcher) FetchDetails(_ context.Context, _ string, summary *model.ImporterSummary) (*model.DetailedImporterResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.summaries = append(s.summaries, summary)
	return s.result, s.err
}

func (s *stubFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// memStore is an in-memory store.Store.
type memStore struct {
	mu       sync.Mutex
	state    store.State
	profiles map[string]*model.DetailedImporterResult
	ttls     map[string]time.Duration
	loadErr  error
	saveErr  error
	saves    int
}

func newMemStore() *memStore {
	return &memStore{
		profiles: make(map[string]*model.DetailedImporterResult),
		ttls:     make(map[string]time.Duration),
	}
}

func (m *memStore) LoadState(context.Context) (store.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.loadErr
}

func (m *memStore) SaveSubscriptions(_ context.Context, subs []model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state.Subscriptions = subs
	return nil
}

func (m *memStore) SaveNotifications(_ context.Context, notes []model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state.Notifications = notes
	return nil
}

func (m *memStore) GetCachedProfile(_ context.Context, name string) (*model.DetailedImporterResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profiles[model.FoldName(name)], nil
}

func (m *memStore) SetCachedProfile(_ context.Context, name string, r *model.DetailedImporterResult, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[model.FoldName(name)] = r
	m.ttls[model.FoldName(name)] = ttl
	return nil
}

func (m *memStore) DeleteExpiredProfiles(context.Context) (int, error) { return 0, nil }
func (m *memStore) Migrate(context.Context) error                      { return nil }
func (m *memStore) Close() error                                       { return nil }
