package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"github.com/oksasatya/go-event-locator/internal/application"
	"github.com/oksasatya/go-event-locator/pkg/helpers"
)

var ErrNotConfigured = errors.New("avatar storage not configured")

// Uploader writes one object and returns its public URL.
type Uploader func(ctx context.Context, bucket, objectPath, contentType string, r io.Reader) (string, error)

// GCSAvatarStore stores avatars under avatars/<user id>/<random id><ext>.
type GCSAvatarStore struct {
	bucket string
	upload Uploader
}

func NewGCSAvatarStore(client *gcs.Client, bucket string) *GCSAvatarStore {
	if client == nil {
		return &GCSAvatarStore{bucket: bucket}
	}
	return &GCSAvatarStore{
		bucket: bucket,
		upload: func(ctx context.Context, bucket, objectPath, contentType string, r io.Reader) (string, error) {
			return helpers.UploadImageToGCS(ctx, client, bucket, objectPath, contentType, r)
		},
	}
}

// NewAvatarStoreWithUploader builds a store around a custom uploader.
func NewAvatarStoreWithUploader(bucket string, up Uploader) *GCSAvatarStore {
	return &GCSAvatarStore{bucket: bucket, upload: up}
}

// ObjectPath returns the object name for a new avatar of userID.
func ObjectPath(userID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("avatars", userID, uuid.NewString()+ext)
}

func (s *GCSAvatarStore) Upload(ctx context.Context, userID string, a application.AvatarUpload) (string, error) {
	if s == nil || s.upload == nil || s.bucket == "" {
		return "", ErrNotConfigured
	}
	if a.Body == nil {
		return "", errors.New("avatar body is empty")
	}
	return s.upload(ctx, s.bucket, ObjectPath(userID, a.Filename), a.ContentType, a.Body)
}

var _ application.AvatarStore = (*GCSAvatarStore)(nil)
