package session

import (
	"context"
	"time"

	"vogueapi/services"

	"github.com/rs/zerolog/log"
)

// EnrichLocation resolves the coordinates to a country and offers it as the default regional
// style. Lookup failures are logged and otherwise ignored.
func (s *Session) EnrichLocation(ctx context.Context, geocoder services.GeocodeProvider, latitude, longitude float64, timeout time.Duration) bool {
	if geocoder == nil {
		return false
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	country, err := geocoder.CountryName(ctx, latitude, longitude)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("session_id", s.ID).Msg("failed to get location")
		return false
	}
	applied := s.ApplyLocation(country)
	log.Ctx(ctx).Debug().Str("session_id", s.ID).Str("country", country).Bool("applied", applied).Msg("location enrichment finished")
	return applied
}
