package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"vogueapi/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeocodeServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.NotEmpty(t, r.URL.Query().Get("latitude"))
		assert.NotEmpty(t, r.URL.Query().Get("longitude"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestGeocodeCountryName(t *testing.T) {
	server, hits := newGeocodeServer(t, http.StatusOK, `{"countryName":" United States of America ","city":"New York"}`)
	svc, err := NewGeocodeService(config.Geocode{URL: server.URL, Timeout: time.Second})
	require.NoError(t, err)

	country, err := svc.CountryName(context.Background(), 40.7128, -74.006)
	require.NoError(t, err)
	assert.Equal(t, "United States of America", country)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGeocodeFailures(t *testing.T) {
	server, _ := newGeocodeServer(t, http.StatusOK, `{"city":"Nowhere"}`)
	svc, err := NewGeocodeService(config.Geocode{URL: server.URL, Timeout: time.Second})
	require.NoError(t, err)

	_, err = svc.CountryName(context.Background(), 10, 10)
	require.Error(t, err)

	_, err = svc.CountryName(context.Background(), 91, 0)
	require.Error(t, err)

	broken, _ := newGeocodeServer(t, http.StatusInternalServerError, `{}`)
	svc, err = NewGeocodeService(config.Geocode{URL: broken.URL, Timeout: time.Second})
	require.NoError(t, err)
	_, err = svc.CountryName(context.Background(), 10, 10)
	require.Error(t, err)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, 180))
	assert.False(t, ValidCoordinates(-90.1, 0))
	assert.False(t, ValidCoordinates(0, 181))
}
