package scrape

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/resilience"
)

// Aggregator fans a query out to every registered source and concatenates
// their leads in registration order.
type Aggregator struct {
	sources  []Source
	breakers *resilience.ServiceBreakers
	timeout  time.Duration
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithBreakers sets the per-source circuit breakers.
func WithBreakers(b *resilience.ServiceBreakers) AggregatorOption {
	return func(a *Aggregator) { a.breakers = b }
}

// WithBreakerPolicy replaces the per-source breakers with ones that open
// after threshold consecutive failures and stay open for reset.
func WithBreakerPolicy(threshold int, reset time.Duration) AggregatorOption {
	return func(a *Aggregator) { a.breakers = newBreakers(threshold, reset) }
}

// WithSourceTimeout bounds each source's Search call.
func WithSourceTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) { a.timeout = d }
}

// NewAggregator creates an Aggregator over sources.
func NewAggregator(sources []Source, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{sources: sources}
	for _, opt := range opts {
		opt(a)
	}
	if a.breakers == nil {
		a.breakers = newBreakers(3, time.Minute)
	}
	return a
}

func newBreakers(threshold int, reset time.Duration) *resilience.ServiceBreakers {
	cfg := resilience.FromCircuitConfig(threshold, reset)
	cfg.OnStateChange = logBreakerChange
	return resilience.NewServiceBreakers(cfg)
}

// Sources returns the registered source names in order.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

// BreakerStates reports each source's circuit state by name. Sources that
// have not been queried yet are reported closed.
func (a *Aggregator) BreakerStates() map[string]string {
	known := a.breakers.States()
	out := make(map[string]string, len(a.sources))
	for _, s := range a.sources {
		st, ok := known[s.Name()]
		if !ok {
			st = resilience.CircuitClosed
		}
		out[s.Name()] = st.String()
	}
	return out
}

// Leads runs every source concurrently. A failing, panicking or tripped
// source contributes no leads; Leads itself never fails.
func (a *Aggregator) Leads(ctx context.Context, query string) ([]model.RawLead, error) {
	results := make([][]model.RawLead, len(a.sources))

	var g errgroup.Group
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = a.search(ctx, src, query)
			return nil
		})
	}
	_ = g.Wait()

	var leads []model.RawLead
	for _, r := range results {
		leads = append(leads, r...)
	}
	if leads == nil {
		leads = []model.RawLead{}
	}
	zap.L().Debug("scrape: leads aggregated",
		zap.String("query", query),
		zap.Int("sources", len(a.sources)),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}

func (a *Aggregator) search(ctx context.Context, src Source, query string) (leads []model.RawLead) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("scrape: source panicked",
				zap.String("source", src.Name()),
				zap.Any("panic", r),
			)
			leads = nil
		}
	}()

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	leads, err := resilience.ExecuteVal(ctx, a.breakers.Get(src.Name()), func(ctx context.Context) ([]model.RawLead, error) {
		return src.Search(ctx, query)
	})
	if err != nil {
		zap.L().Warn("scrape: source unavailable",
			zap.String("source", src.Name()),
			zap.String("query", query),
			zap.Error(err),
		)
		return nil
	}
	return leads
}

func logBreakerChange(from, to resilience.CircuitState) {
	zap.L().Info("scrape: source circuit breaker state change",
		zap.String("transition", fmt.Sprintf("%s -> %s", from, to)),
	)
}
