// Package session owns the lifecycle of an interactive importer search:
// submitting and cancelling search cycles, the detail view, and the
// persisted alert state.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/importer-intel/internal/intel"
	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/store"
)

// Status is the state of the current search cycle.
type Status int

const (
	Idle Status = iota
	Running
	Cancelled
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON snapshots.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// User-facing messages.
const (
	MessageCancelled     = "Search task was cancelled by user."
	MessageNetwork       = "Network latency detected."
	MessageValidation    = "Enter a company name, city, state or industry to search."
	MessageProfileFailed = "Failed to resolve detailed CBP logs."
	MessageNoResultsHint = "The search provider could not be reached, so results may be missing. Try again."
)

var (
	// ErrBusy is returned by Submit while a cycle is running.
	ErrBusy = eris.New("session: a search is already running")
	// ErrUnknownImporter is returned by ViewDetails for a name that is not
	// in the current result sets.
	ErrUnknownImporter = eris.New("session: importer not in current results")
)

// Searcher runs the primary and similar importer searches.
type Searcher interface {
	SearchDetailed(ctx context.Context, f model.SearchFilters) ([]model.ImporterSummary, error)
	SearchSimilar(ctx context.Context, seed string) []model.ImporterSummary
}

// ProfileFetcher resolves detailed importer profiles.
type ProfileFetcher interface {
	FetchDetails(ctx context.Context, importerName string, summary *model.ImporterSummary) (*model.DetailedImporterResult, error)
}

// Snapshot is a point-in-time copy of the controller state.
type Snapshot struct {
	Status     Status                  `json:"status"`
	Message    string                  `json:"message,omitempty"`
	Filters    model.SearchFilters     `json:"filters"`
	Results    []model.ImporterSummary `json:"results"`
	Similar    []model.ImporterSummary `json:"similar"`
	Generation uint64                  `json:"generation"`
	Refreshing bool                    `json:"refreshing"`
}

// Controller is the search session state machine. It is safe for
// concurrent use.
type Controller struct {
	search     Searcher
	details    ProfileFetcher
	store      store.Store
	profileTTL time.Duration
	nowFunc    func() time.Time

	mu         sync.Mutex
	status     Status
	message    string
	filters    model.SearchFilters
	results    []model.ImporterSummary
	similar    []model.ImporterSummary
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}

	profile     *model.DetailedImporterResult
	profileName string
	profileGen  uint64
	refreshing bool

	// persist serializes state writes so they land in mutation order.
	persist       sync.Mutex
	subscriptions []model.Subscription
	notifications []model.Notification
}

// Option configures a Controller.
type Option func(*Controller)

// WithProfileTTL sets how long resolved profiles stay cached. Zero
// disables the cache.
func WithProfileTTL(d time.Duration) Option {
	return func(c *Controller) { c.profileTTL = d }
}

// WithClock overrides the clock used to stamp notifications.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.nowFunc = now }
}

// NewController creates a Controller and loads the persisted alert state
// from st.
func NewController(ctx context.Context, search Searcher, details ProfileFetcher, st store.Store, opts ...Option) (*Controller, error) {
	c := &Controller{
		search:     search,
		details:    details,
		store:      st,
		profileTTL: 24 * time.Hour,
		nowFunc:    time.Now,
		results:    []model.ImporterSummary{},
		similar:    []model.ImporterSummary{},
	}
	for _, o := range opts {
		o(c)
	}

	state, err := st.LoadState(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "session: load state")
	}
	c.subscriptions = state.Subscriptions
	c.notifications = state.Notifications
	return c, nil
}

// Submit starts a new search cycle for f. It returns a channel closed when
// the cycle's work has finished. Blank filters fail with intel.ErrValidation
// and a running cycle with ErrBusy; neither changes the session.
//
// The cycle outlives ctx's cancellation (only its values are inherited);
// use Cancel to stop it.
func (c *Controller) Submit(ctx context.Context, f model.SearchFilters) (<-chan struct{}, error) {
	if f.IsBlank() {
		return nil, eris.Wrap(intel.ErrValidation, "session: at least one search field is required")
	}

	c.mu.Lock()
	if c.status == Running {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	c.generation++
	gen := c.generation
	cycleCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	c.status = Running
	c.message = ""
	c.filters = f
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	zap.L().Info("search cycle started",
		zap.Uint64("generation", gen),
		zap.String("query", f.Query),
		zap.String("industry", f.Industry),
	)
	go c.run(cycleCtx, gen, f, done)
	return done, nil
}

func (c *Controller) run(ctx context.Context, gen uint64, f model.SearchFilters, done chan struct{}) {
	defer close(done)

	var (
		primary    []model.ImporterSummary
		primaryErr error
		similar    []model.ImporterSummary
	)

	// Both branches degrade to empty, so the join never fails fast.
	var g errgroup.Group
	g.Go(func() (err error) {
		defer recoverInto(&err)
		primary, primaryErr = c.search.SearchDetailed(ctx, f)
		return nil
	})
	g.Go(func() (err error) {
		defer recoverInto(&err)
		if seed := f.SimilarSeed(); seed != "" {
			similar = c.search.SearchSimilar(ctx, seed)
		}
		return nil
	})
	err := g.Wait()

	c.finish(gen, primary, primaryErr, similar, err)
}

func (c *Controller) finish(gen uint64, primary []model.ImporterSummary, primaryErr error, similar []model.ImporterSummary, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.status != Running {
		zap.L().Debug("discarding stale search cycle", zap.Uint64("generation", gen))
		return
	}
	c.cancel()
	c.cancel = nil

	if err != nil {
		zap.L().Error("search cycle failed", zap.Uint64("generation", gen), zap.Error(err))
		c.status = Failed
		c.message = MessageNetwork
		return
	}

	if primary == nil {
		primary = []model.ImporterSummary{}
	}
	if similar == nil {
		similar = []model.ImporterSummary{}
	}
	c.results = primary
	c.similar = similar
	c.status = Succeeded
	if primaryErr != nil && !errors.Is(primaryErr, intel.ErrValidation) {
		c.message = MessageNoResultsHint
	}

	zap.L().Info("search cycle complete",
		zap.Uint64("generation", gen),
		zap.Int("results", len(primary)),
		zap.Int("similar", len(similar)),
	)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = eris.New(fmt.Sprintf("session: search panicked: %v", r))
	}
}

// Cancel aborts the running cycle. It reports whether a cycle was running.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != Running {
		return false
	}
	c.cancel()
	c.cancel = nil
	c.status = Cancelled
	c.message = MessageCancelled
	zap.L().Info("search cycle cancelled", zap.Uint64("generation", c.generation))
	return true
}

// Wait blocks until the most recent cycle's work has finished or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Status:     c.status,
		Message:    c.message,
		Filters:    c.filters,
		Results:    slices.Clone(c.results),
		Similar:    slices.Clone(c.similar),
		Generation: c.generation,
		Refreshing: c.refreshing,
	}
}

// DismissMessage clears the user-facing message.
func (c *Controller) DismissMessage() {
	c.mu.Lock()
	c.message = ""
	c.mu.Unlock()
}
