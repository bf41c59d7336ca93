package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vogueapi/models"
	"vogueapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const TypeArchiveLook = "look:archive"

// MaxArchiveAttempts bounds upload attempts before a look is marked failed.
const MaxArchiveAttempts = 5

type ArchiveLookPayload struct {
	LookID uint `json:"look_id"`
}

// Enqueuer is the part of *asynq.Client the API needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewClient(addr string) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: addr})
}

func NewArchiveLookTask(lookID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(ArchiveLookPayload{LookID: lookID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeArchiveLook, payload, asynq.MaxRetry(MaxArchiveAttempts)), nil
}

// HandleArchiveLookTask moves a saved look's illustration from the database row to object storage.
// Looks that are already archived are left alone so redelivery is harmless.
func HandleArchiveLookTask(ctx context.Context, t *asynq.Task, db *gorm.DB, awsService services.AWSServiceProvider, bucketName string) error {
	var payload ArchiveLookPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	logger := log.Ctx(ctx).With().Uint("look_id", payload.LookID).Logger()

	var look models.SavedLook
	if err := db.WithContext(ctx).First(&look, payload.LookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Msgf("[Look: %v] not found, dropping archive task", payload.LookID)
			return fmt.Errorf("look %d not found: %w", payload.LookID, asynq.SkipRetry)
		}
		sentry.CaptureException(fmt.Errorf("[Look: %v] Error on retrieving look for archiving: %w", payload.LookID, err))
		return err
	}

	if look.Status == models.LookStatusArchived {
		logger.Info().Msgf("[Look: %v] already archived", look.ID)
		return nil
	}
	if len(look.PendingImage) == 0 {
		look.Status = models.LookStatusArchived
		return db.WithContext(ctx).Save(&look).Error
	}

	mimeType := "image/png"
	if look.ImageMIMEType != nil && *look.ImageMIMEType != "" {
		mimeType = *look.ImageMIMEType
	}
	key := services.LookImageKey(look.PublicID, mimeType)

	if err := awsService.PutObject(ctx, bucketName, key, look.PendingImage, mimeType); err != nil {
		look.ArchiveRetries++
		msg := err.Error()
		look.ArchiveError = &msg
		if look.ArchiveRetries >= MaxArchiveAttempts {
			look.Status = models.LookStatusFailed
		}
		if saveErr := db.WithContext(ctx).Save(&look).Error; saveErr != nil {
			logger.Error().Err(saveErr).Msgf("[Look: %v] Error on saving archive failure", look.ID)
		}
		sentry.CaptureException(fmt.Errorf("[Look: %v] Error on uploading image %s: %w", look.ID, key, err))
		if look.Status == models.LookStatusFailed {
			return fmt.Errorf("archive look %d: %v: %w", look.ID, err, asynq.SkipRetry)
		}
		return err
	}

	look.ImageKey = &key
	look.PendingImage = nil
	look.ArchiveError = nil
	look.Status = models.LookStatusArchived
	if err := db.WithContext(ctx).Save(&look).Error; err != nil {
		sentry.CaptureException(fmt.Errorf("[Look: %v] Error on saving archived look: %w", look.ID, err))
		return err
	}
	logger.Info().Str("key", key).Msgf("[Look: %v] image archived", look.ID)
	return nil
}

const TypeSweepPendingLooks = "look:sweep"

// Looks pending longer than this are assumed to have lost their archive task.
const pendingLookGrace = 10 * time.Minute

func NewSweepPendingLooksTask() *asynq.Task {
	return asynq.NewTask(TypeSweepPendingLooks, []byte{})
}

// HandleSweepPendingLooks re-enqueues archive tasks for looks stuck in pending.
func HandleSweepPendingLooks(ctx context.Context, db *gorm.DB, enqueuer Enqueuer) error {
	var ids []uint
	err := db.WithContext(ctx).Model(&models.SavedLook{}).
		Where("status = ? AND updated_at < ?", models.LookStatusPending, time.Now().Add(-pendingLookGrace)).
		Limit(100).
		Pluck("id", &ids).Error
	if err != nil {
		sentry.CaptureException(fmt.Errorf("[QUEUE] Error on listing pending looks: %w", err))
		return err
	}

	enqueued := 0
	for _, id := range ids {
		task, err := NewArchiveLookTask(id)
		if err != nil {
			return err
		}
		if _, err := enqueuer.EnqueueContext(ctx, task, asynq.Unique(pendingLookGrace)); err != nil {
			if errors.Is(err, asynq.ErrDuplicateTask) {
				continue
			}
			log.Ctx(ctx).Error().Err(err).Msgf("[Look: %v] Error on re-enqueuing archive task", id)
			continue
		}
		enqueued++
	}
	log.Ctx(ctx).Info().Int("pending", len(ids)).Int("enqueued", enqueued).Msg("pending looks swept")
	return nil
}
