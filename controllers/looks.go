package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"vogueapi/models"
	"vogueapi/services"
	"vogueapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type LooksController struct {
	URLCache services.URLCacheServiceProvider
}

func (controller *LooksController) lookOut(c echo.Context, look models.SavedLook) models.SavedLookOut {
	out := models.SavedLookOut{
		PublicID:       look.PublicID,
		Title:          look.Title,
		Profile:        look.Profile,
		Recommendation: look.Recommendation,
		Status:         look.Status,
		CreatedAt:      look.CreatedAt,
	}
	if look.ImageKey != nil && controller.URLCache != nil {
		url, err := controller.URLCache.GetReadURL(c.Request().Context(), *look.ImageKey)
		if err != nil {
			log.Ctx(c.Request().Context()).Warn().Err(err).Msgf("[Look: %v] Error on presigning image", look.ID)
		} else if url != "" {
			out.ImageURL = &url
		}
	}
	return out
}

// SaveLook persists the session's current result and schedules its illustration for archiving.
func (controller *LooksController) SaveLook(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return echo.ErrUnauthorized
	}
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Saving looks is not available"})
	}

	profile, recommendation, image, ok := sess.Result()
	if !ok {
		return errorResponse(c, fmt.Errorf("%w: only a finished result can be saved", models.ErrInvalidTransition))
	}

	look := models.SavedLook{
		PublicID:       uuid.NewString(),
		SessionID:      sess.ID,
		Title:          recommendation.Title,
		Profile:        profile,
		Recommendation: recommendation,
		Status:         models.LookStatusPending,
	}
	if !image.Empty() {
		look.PendingImage = image.Data
		look.ImageMIMEType = StrPointer(image.MIMEType)
	} else {
		look.Status = models.LookStatusArchived
	}
	if err := db.WithContext(c.Request().Context()).Create(&look).Error; err != nil {
		sentry.CaptureException(fmt.Errorf("[Session: %s] Error on saving look: %w", sess.ID, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save look"})
	}

	if look.Status == models.LookStatusPending {
		controller.enqueueArchive(c, look)
	}
	return c.JSON(http.StatusCreated, controller.lookOut(c, look))
}

// enqueueArchive failures are not fatal; the worker's sweep picks pending looks up again.
func (controller *LooksController) enqueueArchive(c echo.Context, look models.SavedLook) {
	logger := log.Ctx(c.Request().Context())
	enqueuer, ok := c.Get("__asynqclient").(tasks.Enqueuer)
	if !ok {
		logger.Warn().Msgf("[Look: %v] task queue unavailable, leaving look pending", look.ID)
		return
	}
	task, err := tasks.NewArchiveLookTask(look.ID)
	if err != nil {
		sentry.CaptureException(err)
		return
	}
	info, err := enqueuer.EnqueueContext(c.Request().Context(), task)
	if err != nil {
		logger.Error().Err(err).Msgf("[Look: %v] Error on enqueuing archive task", look.ID)
		sentry.CaptureException(fmt.Errorf("[Look: %v] Error on enqueuing archive task: %w", look.ID, err))
		return
	}
	logger.Info().Str("task_id", info.ID).Msgf("[Look: %v] archive task enqueued", look.ID)
}

func (controller *LooksController) GetLook(c echo.Context) error {
	db, ok := c.Get("__db").(*gorm.DB)
	if !ok {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Saved looks are not available"})
	}
	publicID := c.Param("id")
	if _, err := uuid.Parse(publicID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Look not found"})
	}

	var look models.SavedLook
	err := db.WithContext(c.Request().Context()).Omit("pending_image").Where("public_id = ?", publicID).Take(&look).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Look not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load look"})
	}
	return c.JSON(http.StatusOK, controller.lookOut(c, look))
}
