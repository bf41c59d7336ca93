package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"vogueapi/config"
	"vogueapi/languageutil"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const geocodeCacheTTL = 24 * time.Hour

type GeocodeProvider interface {
	CountryName(ctx context.Context, latitude, longitude float64) (string, error)
}

// GeocodeService resolves coordinates to a country name through a reverse-geocoding endpoint.
// Lookups are cached per coordinate rounded to two decimals, roughly one kilometre.
type GeocodeService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *cache.LoadableCache[string]
}

func NewGeocodeService(cfg config.Geocode) (*GeocodeService, error) {
	ristrettoCache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ristretto cache: %w", err)
	}

	limit := rate.Limit(cfg.RPS)
	if cfg.RPS <= 0 {
		limit = rate.Inf
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	s := &GeocodeService{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}

	loadFunction := func(ctx context.Context, key any) (string, []store.Option, error) {
		coords, ok := key.(string)
		if !ok {
			return "", nil, fmt.Errorf("invalid key type provided to geocode cache: expected string, got %T", key)
		}
		var lat, lon float64
		if _, err := fmt.Sscanf(coords, "%f,%f", &lat, &lon); err != nil {
			return "", nil, fmt.Errorf("invalid geocode cache key %q: %w", coords, err)
		}
		country, err := s.lookup(ctx, lat, lon)
		return country, []store.Option{store.WithExpiration(geocodeCacheTTL), store.WithCost(1)}, err
	}

	s.cache = cache.NewLoadable[string](
		loadFunction,
		cache.New[string](ristretto_store.NewRistretto(ristrettoCache)),
	)
	return s, nil
}

func ValidCoordinates(latitude, longitude float64) bool {
	return latitude >= -90 && latitude <= 90 && longitude >= -180 && longitude <= 180
}

func (s *GeocodeService) CountryName(ctx context.Context, latitude, longitude float64) (string, error) {
	if !ValidCoordinates(latitude, longitude) {
		return "", fmt.Errorf("coordinates out of range: %f,%f", latitude, longitude)
	}
	return s.cache.Get(ctx, fmt.Sprintf("%.2f,%.2f", latitude, longitude))
}

func (s *GeocodeService) lookup(ctx context.Context, latitude, longitude float64) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("geocode rate limit: %w", err)
	}

	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(latitude, 'f', 4, 64))
	query.Set("longitude", strconv.FormatFloat(longitude, 'f', 4, 64))
	query.Set("localityLanguage", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("geocode read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode status %d", resp.StatusCode)
	}

	country := languageutil.NormalizePlace(gjson.GetBytes(body, "countryName").String())
	if country == "" {
		return "", fmt.Errorf("geocode response has no countryName")
	}
	log.Ctx(ctx).Debug().Str("country", country).Msg("geocode resolved")
	return country, nil
}
