package services

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"vogueapi/models"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Longest edge sent to the provider for photo analysis.
const maxPhotoEdge = 1536

// NormalizePhoto decodes an uploaded photo, applies EXIF orientation, shrinks it to fit
// maxPhotoEdge and re-encodes it as JPEG. Payloads that do not decode fail with ErrInvalidImage.
func NormalizePhoto(data []byte, mimeType string) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", models.ErrInvalidImage)
	}
	detected := http.DetectContentType(data)
	if mimeType != "" && !strings.HasPrefix(mimeType, "image/") && !strings.HasPrefix(detected, "image/") {
		return nil, "", fmt.Errorf("%w: unsupported type %s", models.ErrInvalidImage, mimeType)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxPhotoEdge || bounds.Dy() > maxPhotoEdge {
		img = imaging.Fit(img, maxPhotoEdge, maxPhotoEdge, imaging.Lanczos)
	}
	return encodeJPEG(img)
}

func encodeJPEG(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, "", fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
