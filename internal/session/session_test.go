package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/importer-intel/internal/intel"
	"github.com/sells-group/importer-intel/internal/model"
)

var (
	acme   = model.ImporterSummary{ImporterName: "Acme Imports", Location: "Houston, TX", PrimaryCommodities: "Fasteners", LastShipmentDate: "2024-03-02"}
	globex = model.ImporterSummary{ImporterName: "Globex Trading", Location: "Newark, NJ", PrimaryCommodities: "Fasteners"}
)

func newTestController(t *testing.T, s *stubSearcher, f ProfileFetcher, opts ...Option) (*Controller, *memStore) {
	t.Helper()
	st := newMemStore()
	c, err := NewController(context.Background(), s, f, st, opts...)
	require.NoError(t, err)
	return c, st
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("search cycle did not finish")
	}
}

func TestSubmit_BlankFiltersRejected(t *testing.T) {
	s := &stubSearcher{}
	c, _ := newTestController(t, s, &stubFetcher{})

	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "  ", City: "\t"})
	assert.ErrorIs(t, err, intel.ErrValidation)
	assert.Nil(t, done)

	snap := c.Snapshot()
	assert.Equal(t, Idle, snap.Status)
	assert.Zero(t, snap.Generation)
	assert.Empty(t, s.seedsSeen())
}

func TestSubmit_CommitsBothResultSets(t *testing.T) {
	s := &stubSearcher{results: []model.ImporterSummary{acme}, similar: []model.ImporterSummary{globex}}
	c, _ := newTestController(t, s, &stubFetcher{})

	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme", Industry: "hardware"})
	require.NoError(t, err)
	waitDone(t, done)

	snap := c.Snapshot()
	assert.Equal(t, Succeeded, snap.Status)
	assert.Empty(t, snap.Message)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, []model.ImporterSummary{acme}, snap.Results)
	assert.Equal(t, []model.ImporterSummary{globex}, snap.Similar)
	assert.Equal(t, []string{"Acme"}, s.seedsSeen())
}

func TestSubmit_SimilarSeed(t *testing.T) {
	tests := []struct {
		name    string
		filters model.SearchFilters
		seeds   []string
	}{
		{"query", model.SearchFilters{Query: "Acme", Industry: "hardware"}, []string{"Acme"}},
		{"industry fallback", model.SearchFilters{Industry: "hardware"}, []string{"hardware"}},
		{"no seed", model.SearchFilters{City: "Houston"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &stubSearcher{}
			c, _ := newTestController(t, s, &stubFetcher{})
			done, err := c.Submit(context.Background(), tt.filters)
			require.NoError(t, err)
			waitDone(t, done)

			assert.Equal(t, tt.seeds, s.seedsSeen())
			snap := c.Snapshot()
			assert.NotNil(t, snap.Similar)
			assert.Empty(t, snap.Similar)
		})
	}
}

func TestSubmit_OneEmptyBranchStillShowsTheOther(t *testing.T) {
	s := &stubSearcher{similar: []model.ImporterSummary{globex}}
	c, _ := newTestController(t, s, &stubFetcher{})

	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	waitDone(t, done)

	snap := c.Snapshot()
	assert.Equal(t, Succeeded, snap.Status)
	assert.Empty(t, snap.Results)
	assert.Equal(t, []model.ImporterSummary{globex}, snap.Similar)
}

func TestSubmit_BusyWhileRunning(t *testing.T) {
	s := &stubSearcher{gate: make(chan struct{})}
	c, _ := newTestController(t, s, &stubFetcher{})

	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, Running, c.Snapshot().Status)

	_, err = c.Submit(context.Background(), model.SearchFilters{Query: "Globex"})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, "Acme", c.Snapshot().Filters.Query)
	assert.Equal(t, uint64(1), c.Snapshot().Generation)

	close(s.gate)
	waitDone(t, done)
	assert.Equal(t, Succeeded, c.Snapshot().Status)
}

func TestCancel(t *testing.T) {
	s := &stubSearcher{gate: make(chan struct{}), results: []model.ImporterSummary{acme}}
	c, _ := newTestController(t, s, &stubFetcher{})

	assert.False(t, c.Cancel(), "nothing running")

	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	require.True(t, c.Cancel())

	snap := c.Snapshot()
	assert.Equal(t, Cancelled, snap.Status)
	assert.Equal(t, MessageCancelled, snap.Message)

	// The in-flight calls observe the cancelled context and return.
	waitDone(t, done)
	snap = c.Snapshot()
	assert.Equal(t, Cancelled, snap.Status)
	assert.Empty(t, snap.Results)
	assert.False(t, c.Cancel())
}

func TestSubmit_AfterCancelStartsFreshCycle(t *testing.T) {
	s := &stubSearcher{gate: make(chan struct{}), results: []model.ImporterSummary{acme}}
	c, _ := newTestController(t, s, &stubFetcher{})

	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	c.Cancel()
	waitDone(t, done)

	close(s.gate)
	done, err = c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	waitDone(t, done)

	snap := c.Snapshot()
	assert.Equal(t, Succeeded, snap.Status)
	assert.Empty(t, snap.Message)
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, []model.ImporterSummary{acme}, snap.Results)
}

func TestFinish_StaleGenerationIsNoOp(t *testing.T) {
	s := &stubSearcher{results: []model.ImporterSummary{acme}}
	c, _ := newTestController(t, s, &stubFetcher{})

	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	waitDone(t, done)
	done, err = c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	waitDone(t, done)

	c.finish(1, []model.ImporterSummary{globex}, nil, nil, nil)

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Equal(t, []model.ImporterSummary{acme}, snap.Results)
}

func TestSubmit_PrimaryFailureDegradesWithHint(t *testing.T) {
	s := &stubSearcher{err: errors.New("provider unavailable"), similar: []model.ImporterSummary{globex}}
	c, _ := newTestController(t, s, &stubFetcher{})

	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	waitDone(t, done)

	snap := c.Snapshot()
	assert.Equal(t, Succeeded, snap.Status)
	assert.Equal(t, MessageNoResultsHint, snap.Message)
	assert.NotNil(t, snap.Results)
	assert.Empty(t, snap.Results)
	assert.Len(t, snap.Similar, 1)
}

func TestSubmit_PanicFails(t *testing.T) {
	s := &stubSearcher{panicOnRun: true}
	c, _ := newTestController(t, s, &stubFetcher{})

	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	waitDone(t, done)

	snap := c.Snapshot()
	assert.Equal(t, Failed, snap.Status)
	assert.Equal(t, MessageNetwork, snap.Message)

	c.DismissMessage()
	assert.Empty(t, c.Snapshot().Message)
}

func TestSubmit_CycleOutlivesCallerContext(t *testing.T) {
	s := &stubSearcher{gate: make(chan struct{}), results: []model.ImporterSummary{acme}}
	c, _ := newTestController(t, s, &stubFetcher{})

	ctx, cancel := context.WithCancel(context.Background())
	done, err := c.Submit(ctx, model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	cancel()
	close(s.gate)
	waitDone(t, done)

	assert.Equal(t, Succeeded, c.Snapshot().Status)
	assert.Len(t, c.Snapshot().Results, 1)
}

func TestWait(t *testing.T) {
	s := &stubSearcher{gate: make(chan struct{})}
	c, _ := newTestController(t, s, &stubFetcher{})

	require.NoError(t, c.Wait(context.Background()))

	_, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Wait(ctx), context.DeadlineExceeded)

	close(s.gate)
	require.NoError(t, c.Wait(context.Background()))
	assert.Equal(t, Succeeded, c.Snapshot().Status)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "unknown", Status(42).String())

	b, err := Cancelled.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "cancelled", string(b))
}

func TestNewController_LoadError(t *testing.T) {
	st := newMemStore()
	st.loadErr = errors.New("disk gone")
	_, err := NewController(context.Background(), &stubSearcher{}, &stubFetcher{}, st)
	assert.Error(t, err)
}
