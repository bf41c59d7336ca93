package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoutePattern(t *testing.T) {
	reg := NewRegistry()
	e := echo.New()
	e.Use(reg.Middleware())
	e.GET("/looks/:id", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/looks/"+id, nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	count := testutil.ToFloat64(reg.requestTotal.WithLabelValues(http.MethodGet, "/looks/:id", "204"))
	assert.Equal(t, float64(2), count)
}

func TestProviderAndTransitionCounters(t *testing.T) {
	reg := NewRegistry()
	reg.RecordProviderCall("recommendation", "ok", 2*time.Second)
	reg.RecordProviderCall("recommendation", "schema_violation", time.Second)
	reg.RecordTokenUsage("recommendation", "gemini-3-flash-preview", 120, 300)
	reg.RecordTransition("form", "loading")
	reg.SessionOpened()

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.providerCalls.WithLabelValues("recommendation", "ok")))
	assert.Equal(t, float64(300), testutil.ToFloat64(reg.llmTokens.WithLabelValues("recommendation", "out", "gemini-3-flash-preview")))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.transitions.WithLabelValues("form", "loading")))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.sessionsActive))

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(rec.Body.String(), "vogue_provider_calls_total"))
}

func TestNilRegistryIsSafe(t *testing.T) {
	var reg *Registry
	assert.NotPanics(t, func() {
		reg.RecordProviderCall("analysis", "ok", time.Second)
		reg.RecordTransition("welcome", "form")
		reg.SessionOpened()
		reg.SessionClosed()
	})
}
