package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/importer-intel/internal/model"
)

type fetchFunc func(ctx context.Context, name string, summary *model.ImporterSummary) (*model.DetailedImporterResult, error)

func (f fetchFunc) FetchDetails(ctx context.Context, name string, summary *model.ImporterSummary) (*model.DetailedImporterResult, error) {
	return f(ctx, name, summary)
}

func resolvedProfile(name string) *model.DetailedImporterResult {
	return &model.DetailedImporterResult{ParsedData: model.ParsedImporterData{
		ImporterName:   name,
		Information:    "Imports fasteners from Shenzhen.",
		ShipmentCounts: model.ShipmentCounts{LastMonth: model.CountOf(4), LastQuarter: model.CountOf(12), LastYear: model.CountOf(40)},
	}}
}

// withResults runs one search cycle so the controller has acme and globex
// in its result sets.
func withResults(t *testing.T, f ProfileFetcher, opts ...Option) (*Controller, *memStore) {
	t.Helper()
	s := &stubSearcher{results: []model.ImporterSummary{acme}, similar: []model.ImporterSummary{globex}}
	c, st := newTestController(t, s, f, opts...)
	done, err := c.Submit(context.Background(), model.SearchFilters{Query: "Acme"})
	require.NoError(t, err)
	waitDone(t, done)
	return c, st
}

func TestViewDetails_UnknownImporter(t *testing.T) {
	f := &stubFetcher{}
	c, _ := withResults(t, f)

	_, err := c.ViewDetails(context.Background(), "Initech")
	assert.ErrorIs(t, err, ErrUnknownImporter)
	assert.Nil(t, c.Profile())
	assert.Zero(t, f.callCount())
}

func TestViewDetails_PublishesPendingThenResolved(t *testing.T) {
	var c *Controller
	var during *model.DetailedImporterResult
	var gotSummary *model.ImporterSummary
	f := fetchFunc(func(_ context.Context, name string, summary *model.ImporterSummary) (*model.DetailedImporterResult, error) {
		during = c.Profile()
		gotSummary = summary
		return resolvedProfile(name), nil
	})
	c, st := withResults(t, f, WithProfileTTL(time.Hour))

	got, err := c.ViewDetails(context.Background(), "Globex Trading")
	require.NoError(t, err)

	require.NotNil(t, during)
	assert.True(t, during.ParsedData.IsPending())
	assert.Equal(t, "Newark, NJ", during.ParsedData.Location)
	assert.Equal(t, model.PendingMarker, during.ParsedData.Contact.Phone)

	require.NotNil(t, gotSummary)
	assert.Equal(t, globex, *gotSummary)

	assert.Equal(t, got, c.Profile())
	assert.False(t, c.Profile().ParsedData.IsPending())

	cached, _ := st.GetCachedProfile(context.Background(), "GLOBEX TRADING")
	assert.Equal(t, got, cached)
	assert.Equal(t, time.Hour, st.ttls["GLOBEX TRADING"])
}

func TestViewDetails_CacheHit(t *testing.T) {
	f := &stubFetcher{result: resolvedProfile("Acme Imports")}
	c, _ := withResults(t, f)

	first, err := c.ViewDetails(context.Background(), "Acme Imports")
	require.NoError(t, err)
	second, err := c.ViewDetails(context.Background(), "Acme Imports")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.callCount())
}

func TestViewDetails_CacheDisabled(t *testing.T) {
	f := &stubFetcher{result: resolvedProfile("Acme Imports")}
	c, st := withResults(t, f, WithProfileTTL(0))

	for range 2 {
		_, err := c.ViewDetails(context.Background(), "Acme Imports")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, f.callCount())
	assert.Empty(t, st.profiles)
}

func TestViewDetails_FailureKeepsPlaceholder(t *testing.T) {
	f := &stubFetcher{err: errors.New("retries exhausted")}
	c, st := withResults(t, f)

	_, err := c.ViewDetails(context.Background(), "Acme Imports")
	require.Error(t, err)

	p := c.Profile()
	require.NotNil(t, p)
	assert.True(t, p.ParsedData.IsPending())
	assert.Equal(t, "Acme Imports", p.ParsedData.ImporterName)
	assert.Equal(t, MessageProfileFailed, c.Snapshot().Message)
	assert.Empty(t, st.profiles)
}

func TestViewDetails_SupersededResultDropped(t *testing.T) {
	var c *Controller
	f := fetchFunc(func(ctx context.Context, name string, _ *model.ImporterSummary) (*model.DetailedImporterResult, error) {
		if name == "Acme Imports" {
			// The user opens another importer before this one resolves.
			_, err := c.ViewDetails(ctx, "Globex Trading")
			require.NoError(t, err)
		}
		return resolvedProfile(name), nil
	})
	c, _ = withResults(t, f, WithProfileTTL(0))

	_, err := c.ViewDetails(context.Background(), "Acme Imports")
	require.NoError(t, err)
	assert.Equal(t, "Globex Trading", c.Profile().ParsedData.ImporterName)
}

func TestRefreshDetails_BypassesAndOverwritesCache(t *testing.T) {
	var c *Controller
	var refreshing bool
	var gotSummary *model.ImporterSummary
	fresh := resolvedProfile("Acme Imports")
	fresh.ParsedData.Information = "Updated."
	f := fetchFunc(func(_ context.Context, _ string, summary *model.ImporterSummary) (*model.DetailedImporterResult, error) {
		refreshing = c.Snapshot().Refreshing
		gotSummary = summary
		return fresh, nil
	})
	c, st := withResults(t, f)
	require.NoError(t, st.SetCachedProfile(context.Background(), "Acme Imports", resolvedProfile("Acme Imports"), time.Hour))

	got, err := c.RefreshDetails(context.Background(), "Acme Imports")
	require.NoError(t, err)

	assert.True(t, refreshing)
	assert.False(t, c.Snapshot().Refreshing)
	assert.Nil(t, gotSummary)
	assert.Equal(t, "Updated.", got.ParsedData.Information)
	assert.Equal(t, fresh, c.Profile())

	cached, _ := st.GetCachedProfile(context.Background(), "Acme Imports")
	assert.Equal(t, "Updated.", cached.ParsedData.Information)
}

func TestRefreshDetails_OtherImporterLeavesViewAlone(t *testing.T) {
	f := fetchFunc(func(_ context.Context, name string, _ *model.ImporterSummary) (*model.DetailedImporterResult, error) {
		return resolvedProfile(name), nil
	})
	c, st := withResults(t, f)
	_, err := c.ViewDetails(context.Background(), "Acme Imports")
	require.NoError(t, err)

	got, err := c.RefreshDetails(context.Background(), "Globex Trading")
	require.NoError(t, err)
	assert.Equal(t, "Globex Trading", got.ParsedData.ImporterName)
	assert.Equal(t, "Acme Imports", c.Profile().ParsedData.ImporterName)

	cached, _ := st.GetCachedProfile(context.Background(), "Globex Trading")
	require.NotNil(t, cached)
	assert.Equal(t, "Globex Trading", cached.ParsedData.ImporterName)

	_, err = c.RefreshDetails(context.Background(), "acme imports")
	require.NoError(t, err)
	assert.Equal(t, "acme imports", c.Profile().ParsedData.ImporterName)
}

func TestRefreshDetails_FailureKeepsCurrent(t *testing.T) {
	f := &stubFetcher{result: resolvedProfile("Acme Imports")}
	c, _ := withResults(t, f)
	_, err := c.ViewDetails(context.Background(), "Acme Imports")
	require.NoError(t, err)

	f.err = errors.New("boom")
	f.result = nil
	_, err = c.RefreshDetails(context.Background(), "Acme Imports")
	require.Error(t, err)

	assert.Equal(t, "Imports fasteners from Shenzhen.", c.Profile().ParsedData.Information)
	assert.False(t, c.Snapshot().Refreshing)
}
