package services

import (
	"context"
	"fmt"

	apperrors "github.com/Manish-456/eatsy-backend/common/errors"
	awspkg "github.com/Manish-456/eatsy-backend/pkg/aws"
)

// MaxImageSize is the largest accepted restaurant image.
const MaxImageSize = 5 << 20

// MediaStore hosts restaurant images.
type MediaStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (*awspkg.UploadedImage, error)
	Delete(ctx context.Context, publicID string) error
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ValidateImage checks an uploaded image before it is sent to the media host.
func ValidateImage(contentType string, size int64) error {
	if !allowedImageTypes[contentType] {
		return apperrors.Validation("Invalid image type", fmt.Sprintf("allowed: image/jpeg, image/png, image/webp, image/gif; got %q", contentType))
	}
	if size <= 0 || size > MaxImageSize {
		return apperrors.Validation("Invalid image size", fmt.Sprintf("image must be between 1 byte and %d bytes", MaxImageSize))
	}
	return nil
}
