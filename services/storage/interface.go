package storage

import (
	"context"
	"errors"
	"io"
)

// ErrStorageDisabled is returned when no media backend is configured.
var ErrStorageDisabled = errors.New("media storage is not configured")

// UploadedFile identifies a stored asset.
type UploadedFile struct {
	PublicID string
	URL      string
}

// StorageService defines the interface for storage operations.
type StorageService interface {
	UploadAvatar(ctx context.Context, file io.Reader, username string) (*UploadedFile, error)
	DeleteFile(ctx context.Context, publicID string) error
	URL(publicID string) (string, error)
}

// Disabled is the StorageService used when Cloudinary credentials are absent.
type Disabled struct{}

func (Disabled) UploadAvatar(context.Context, io.Reader, string) (*UploadedFile, error) {
	return nil, ErrStorageDisabled
}

func (Disabled) DeleteFile(context.Context, string) error { return ErrStorageDisabled }

func (Disabled) URL(string) (string, error) { return "", ErrStorageDisabled }
