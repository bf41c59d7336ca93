package controllers

import (
	"errors"
	"net/http"
	"time"

	"vogueapi/models"

	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

func StrPointer(b string) *string {
	return &b
}

func GenerateSessionToken(sessionID string, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Hour * 2
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sessionID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	return token.SignedString([]byte(secret))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidImage), errors.Is(err, models.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrAnalysisInFlight),
		errors.Is(err, models.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, models.ErrGeneration), errors.Is(err, models.ErrAnalysis):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c echo.Context, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		sentry.CaptureException(err)
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}
