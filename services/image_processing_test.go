package services

import (
	"bytes"
	"image"
	"testing"

	"vogueapi/models"
	"vogueapi/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhotoShrinksLargeImages(t *testing.T) {
	out, mime, err := NormalizePhoto(test.FakePNG(3000, 1500), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, maxPhotoEdge, cfg.Width)
	assert.Equal(t, maxPhotoEdge/2, cfg.Height)
}

func TestNormalizePhotoKeepsSmallImages(t *testing.T) {
	out, _, err := NormalizePhoto(test.FakePNG(40, 30), "")
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestNormalizePhotoRejectsGarbage(t *testing.T) {
	_, _, err := NormalizePhoto(nil, "image/png")
	require.ErrorIs(t, err, models.ErrInvalidImage)

	_, _, err = NormalizePhoto([]byte("%PDF-1.4"), "application/pdf")
	require.ErrorIs(t, err, models.ErrInvalidImage)

	_, _, err = NormalizePhoto([]byte{0xff, 0xd8, 0xff, 0x00}, "image/jpeg")
	require.ErrorIs(t, err, models.ErrInvalidImage)
}
