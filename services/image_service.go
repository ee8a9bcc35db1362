package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/karthikosa11/smartcal-nutrition-tracker/logger"
)

// ImageUploader stores a data-URI image and returns its public URL.
type ImageUploader interface {
	UploadDataURI(ctx context.Context, raw, prefix string) (string, error)
}

// ImageService moves inline meal photos to object storage. Without an
// uploader, or when the upload fails, the data URI is kept as is.
type ImageService struct {
	uploader ImageUploader
}

func NewImageService(u ImageUploader) *ImageService {
	return &ImageService{uploader: u}
}

func (s *ImageService) Store(ctx context.Context, userID, imageURL string) string {
	if s == nil || s.uploader == nil || !strings.HasPrefix(imageURL, "data:") {
		return imageURL
	}
	url, err := s.uploader.UploadDataURI(ctx, imageURL, "meal-photos/"+userID)
	if err != nil {
		logger.Warn("image upload failed, keeping inline image", zap.String("userID", userID), zap.Error(err))
		return imageURL
	}
	return url
}
