package models

import (
	"errors"
	"fmt"
)

var (
	// Provider call outcomes.
	ErrGeneration      = errors.New("recommendation generation failed")
	ErrAnalysis        = errors.New("photo analysis failed")
	ErrTransport       = errors.New("provider unreachable")
	ErrSchemaViolation = errors.New("response violates schema")
	ErrInvalidImage    = errors.New("image payload is not decodable")

	// Session errors.
	ErrInvalidValue      = errors.New("invalid value")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrAnalysisInFlight  = errors.New("photo analysis already in progress")
	ErrStaleResult       = errors.New("result no longer applies to session")
	ErrSessionNotFound   = errors.New("session not found")
)

// WrapError keeps both kind and cause reachable through errors.Is.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
