package controllers

import (
	"errors"
	"time"

	"vogueapi/models"
	"vogueapi/session"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SessionMiddleware resolves the JWT subject to a live session and stores it as "currentSession".
func SessionMiddleware(store *session.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRaw := c.Get("user")
			if userRaw == nil {
				return echo.ErrUnauthorized
			}
			token, ok := userRaw.(*jwt.Token)
			if !ok {
				return echo.ErrUnauthorized
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return echo.ErrUnauthorized
			}
			sessionID, _ := claims["sub"].(string)
			if sessionID == "" {
				log.Ctx(c.Request().Context()).Warn().Msg("session token without subject")
				return echo.ErrUnauthorized
			}

			sess, err := store.Get(sessionID)
			if errors.Is(err, models.ErrSessionNotFound) {
				return errorResponse(c, err)
			}
			if err != nil {
				return echo.ErrInternalServerError
			}

			logger := log.Ctx(c.Request().Context()).With().Str("session_id", sess.ID).Logger()
			c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))
			c.Set("currentSession", sess)
			return next(c)
		}
	}
}

// RequestLogger attaches a request-scoped zerolog logger to the request context and logs the outcome.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			logger := log.With().
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			duration := time.Since(start)
			if status >= 500 {
				logger.Error().Err(err).Int("status", status).Dur("duration", duration).Msg("http request failed")
			} else {
				logger.Info().Int("status", status).Dur("duration", duration).Msg("http request served")
			}
			return err
		}
	}
}
