package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"vogueapi/models"
	"vogueapi/test"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func stringPtr(s string) *string {
	return &s
}

func fakeLook(t *testing.T, db *gorm.DB, image []byte) *models.SavedLook {
	look := &models.SavedLook{
		PublicID:       uuid.NewString(),
		SessionID:      uuid.NewString(),
		Title:          "Crimson Silk Celebration",
		Profile:        models.DefaultProfile(),
		Recommendation: *test.FakeRecommendation("Crimson Silk Celebration"),
		PendingImage:   image,
		ImageMIMEType:  stringPtr("image/png"),
		Status:         models.LookStatusPending,
	}
	require.NoError(t, db.Create(look).Error)
	return look
}

func TestNewArchiveLookTask(t *testing.T) {
	task, err := NewArchiveLookTask(42)
	require.NoError(t, err)

	assert.Equal(t, TypeArchiveLook, task.Type())
	var payload ArchiveLookPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, uint(42), payload.LookID)
}

func TestHandleArchiveLookTaskRejectsBadPayload(t *testing.T) {
	err := HandleArchiveLookTask(context.Background(), asynq.NewTask(TypeArchiveLook, []byte("{")), nil, &test.AWSProviderMock{}, "bucket")

	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleArchiveLookTask(t *testing.T) {
	db := test.DBOrSkip(t)
	aws := &test.AWSProviderMock{}
	image := test.FakePNG(4, 4)
	look := fakeLook(t, db, image)

	task, err := NewArchiveLookTask(look.ID)
	require.NoError(t, err)
	require.NoError(t, HandleArchiveLookTask(context.Background(), task, db, aws, "looks"))

	var stored models.SavedLook
	require.NoError(t, db.First(&stored, look.ID).Error)
	assert.Equal(t, models.LookStatusArchived, stored.Status)
	require.NotNil(t, stored.ImageKey)
	assert.Empty(t, stored.PendingImage)
	assert.Equal(t, image, aws.Objects["looks/"+*stored.ImageKey])

	// redelivery is a no-op
	require.NoError(t, HandleArchiveLookTask(context.Background(), task, db, aws, "looks"))
	assert.Len(t, aws.Objects, 1)
}

func TestHandleArchiveLookTaskGivesUp(t *testing.T) {
	db := test.DBOrSkip(t)
	aws := &test.AWSProviderMock{PutErr: errors.New("bucket unreachable")}
	look := fakeLook(t, db, test.FakePNG(4, 4))
	task, err := NewArchiveLookTask(look.ID)
	require.NoError(t, err)

	for i := 1; i < MaxArchiveAttempts; i++ {
		err := HandleArchiveLookTask(context.Background(), task, db, aws, "looks")
		require.Error(t, err)
		assert.False(t, errors.Is(err, asynq.SkipRetry))
	}
	err = HandleArchiveLookTask(context.Background(), task, db, aws, "looks")
	require.ErrorIs(t, err, asynq.SkipRetry)

	var stored models.SavedLook
	require.NoError(t, db.First(&stored, look.ID).Error)
	assert.Equal(t, models.LookStatusFailed, stored.Status)
	assert.Equal(t, MaxArchiveAttempts, stored.ArchiveRetries)
	require.NotNil(t, stored.ArchiveError)
	assert.Contains(t, *stored.ArchiveError, "bucket unreachable")
}

func TestHandleArchiveLookTaskMissingLook(t *testing.T) {
	db := test.DBOrSkip(t)
	task, err := NewArchiveLookTask(999999)
	require.NoError(t, err)

	err = HandleArchiveLookTask(context.Background(), task, db, &test.AWSProviderMock{}, "looks")
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleSweepPendingLooks(t *testing.T) {
	db := test.DBOrSkip(t)
	stale := fakeLook(t, db, test.FakePNG(4, 4))
	fresh := fakeLook(t, db, test.FakePNG(4, 4))
	require.NoError(t, db.Model(stale).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	enqueuer := &test.EnqueuerMock{}
	require.NoError(t, HandleSweepPendingLooks(context.Background(), db, enqueuer))

	require.Len(t, enqueuer.Tasks, 1)
	var payload ArchiveLookPayload
	require.NoError(t, json.Unmarshal(enqueuer.Tasks[0].Payload(), &payload))
	assert.Equal(t, stale.ID, payload.LookID)
	assert.NotEqual(t, fresh.ID, payload.LookID)
}

func TestHandleSweepPendingLooksSkipsDuplicates(t *testing.T) {
	db := test.DBOrSkip(t)
	stale := fakeLook(t, db, test.FakePNG(4, 4))
	require.NoError(t, db.Model(stale).UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error)

	err := HandleSweepPendingLooks(context.Background(), db, &test.EnqueuerMock{Err: asynq.ErrDuplicateTask})
	assert.NoError(t, err)
}
