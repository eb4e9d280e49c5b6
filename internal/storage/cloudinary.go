package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/streetsweepai/streetsweep-service/internal/config"
)

// CloudinaryStore uploads images to Cloudinary and returns the secure URL.
type CloudinaryStore struct {
	client *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore builds a store from a cloudinary:// URL.
func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("CLOUDINARY_URL not provided")
	}
	client, err := cloudinary.NewFromURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	return &CloudinaryStore{client: client, folder: cfg.Folder}, nil
}

// Upload pushes image bytes and returns the hosted secure URL.
func (s *CloudinaryStore) Upload(ctx context.Context, image []byte) (string, error) {
	result, err := s.client.Upload.Upload(ctx, bytes.NewReader(image), uploader.UploadParams{
		Folder:       s.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	return result.SecureURL, nil
}
