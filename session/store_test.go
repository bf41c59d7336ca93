package session

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"vogueapi/metrics"
	"vogueapi/models"
	"vogueapi/test"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertActiveSessions(t *testing.T, registry *metrics.Registry, n int) {
	t.Helper()
	expected := fmt.Sprintf(`
# HELP vogue_session_active Sessions currently held in memory.
# TYPE vogue_session_active gauge
vogue_session_active %d
`, n)
	require.NoError(t, testutil.GatherAndCompare(registry.Gatherer(), strings.NewReader(expected), "vogue_session_active"))
}

func TestStoreCreateGetDelete(t *testing.T) {
	registry := metrics.NewRegistry()
	store := NewStore(&test.StylistMock{}, time.Hour, registry)

	sess := store.Create()
	require.NotEmpty(t, sess.ID)
	assert.Equal(t, 1, store.Len())
	assertActiveSessions(t, registry, 1)

	got, err := store.Get(sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)

	store.Delete(sess.ID)
	_, err = store.Get(sess.ID)
	require.ErrorIs(t, err, models.ErrSessionNotFound)
	assert.Equal(t, 0, store.Len())
	assertActiveSessions(t, registry, 0)

	// deleting twice is a no-op
	store.Delete(sess.ID)
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	store := NewStore(&test.StylistMock{}, 30*time.Millisecond, nil)
	sess := store.Create()

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	_, err := store.Get(sess.ID)
	require.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestStoreRecordsTransitions(t *testing.T) {
	registry := metrics.NewRegistry()
	store := NewStore(&test.StylistMock{}, time.Hour, registry)
	sess := store.Create()

	require.NoError(t, sess.Start())

	expected := `
# HELP vogue_session_transitions_total Session state transitions.
# TYPE vogue_session_transitions_total counter
vogue_session_transitions_total{from="welcome",to="form"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry.Gatherer(), strings.NewReader(expected), "vogue_session_transitions_total"))
}

func TestStoreShutdownReleasesSessions(t *testing.T) {
	store := NewStore(&test.StylistMock{}, time.Hour, nil)
	store.Create()
	store.Create()

	store.Shutdown(context.Background())

	assert.Equal(t, 0, store.Len())
}
