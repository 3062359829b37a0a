package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/importer-intel/internal/intel"
	"github.com/sells-group/importer-intel/internal/model"
	"github.com/sells-group/importer-intel/internal/store"
)

var fixedNow = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

func TestSubscribe(t *testing.T) {
	c, st := newTestController(t, &stubSearcher{}, &stubFetcher{}, WithClock(func() time.Time { return fixedNow }))
	ctx := context.Background()

	sub, err := c.Subscribe(ctx, " Acme Imports ", "ops@acme.test")
	require.NoError(t, err)
	assert.Equal(t, model.Subscription{CompanyName: "Acme Imports", Email: "ops@acme.test"}, sub)

	_, err = c.Subscribe(ctx, "Globex Trading", "buyer@globex.test")
	require.NoError(t, err)

	subs := c.Subscriptions()
	require.Len(t, subs, 2)
	assert.Equal(t, "Acme Imports", subs[0].CompanyName)

	notes := c.Notifications()
	require.Len(t, notes, 2)
	assert.Equal(t, "Alert activated for Globex Trading", notes[0].Message)
	assert.Equal(t, "Alert activated for Acme Imports", notes[1].Message)
	assert.Equal(t, fixedNow.UnixMilli(), notes[0].Timestamp)
	assert.NotEqual(t, notes[0].ID, notes[1].ID)

	assert.Equal(t, subs, st.state.Subscriptions)
	assert.Equal(t, notes, st.state.Notifications)
	assert.True(t, c.IsSubscribed("ACME IMPORTS, LLC"))
	assert.False(t, c.IsSubscribed("Initech"))
}

func TestSubscribe_Validation(t *testing.T) {
	c, st := newTestController(t, &stubSearcher{}, &stubFetcher{})

	_, err := c.Subscribe(context.Background(), "", "ops@acme.test")
	assert.ErrorIs(t, err, intel.ErrValidation)
	_, err = c.Subscribe(context.Background(), "Acme", "not-an-email")
	assert.ErrorIs(t, err, intel.ErrValidation)

	assert.Empty(t, c.Subscriptions())
	assert.Zero(t, st.saves)
}

func TestSubscribe_SaveError(t *testing.T) {
	c, st := newTestController(t, &stubSearcher{}, &stubFetcher{})
	st.saveErr = errors.New("read-only")

	_, err := c.Subscribe(context.Background(), "Acme", "ops@acme.test")
	assert.Error(t, err)
	assert.Len(t, c.Subscriptions(), 1, "in-memory state still updated")
}

func TestDeleteAndClearNotifications(t *testing.T) {
	c, st := newTestController(t, &stubSearcher{}, &stubFetcher{})
	ctx := context.Background()
	for _, name := range []string{"Acme", "Globex", "Initech"} {
		_, err := c.Subscribe(ctx, name, "ops@example.test")
		require.NoError(t, err)
	}
	notes := c.Notifications()
	require.Len(t, notes, 3)

	removed, err := c.DeleteNotification(ctx, notes[1].ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []model.Notification{notes[0], notes[2]}, c.Notifications())
	assert.Equal(t, c.Notifications(), st.state.Notifications)

	removed, err = c.DeleteNotification(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, c.ClearNotifications(ctx))
	assert.NotNil(t, c.Notifications())
	assert.Empty(t, c.Notifications())
	assert.Empty(t, st.state.Notifications)
	assert.Len(t, c.Subscriptions(), 3, "subscriptions are untouched")
}

func TestNewController_LoadsPersistedState(t *testing.T) {
	st := newMemStore()
	st.state = store.State{
		Subscriptions: []model.Subscription{{CompanyName: "Acme", Email: "ops@acme.test"}},
		Notifications: []model.Notification{{ID: "n1", Message: "Alert activated for Acme", Timestamp: 1}},
	}
	c, err := NewController(context.Background(), &stubSearcher{}, &stubFetcher{}, st)
	require.NoError(t, err)

	assert.Equal(t, st.state.Subscriptions, c.Subscriptions())
	assert.Equal(t, st.state.Notifications, c.Notifications())
}

func TestAlerts_PersistAcrossControllersSQLite(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, store.DriverSQLite, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	c1, err := NewController(ctx, &stubSearcher{}, &stubFetcher{}, st)
	require.NoError(t, err)
	_, err = c1.Subscribe(ctx, "Acme Imports", "ops@acme.test")
	require.NoError(t, err)

	c2, err := NewController(ctx, &stubSearcher{}, &stubFetcher{}, st)
	require.NoError(t, err)
	assert.Equal(t, c1.Subscriptions(), c2.Subscriptions())
	assert.Equal(t, c1.Notifications(), c2.Notifications())
}
