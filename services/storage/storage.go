package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"studybuddy/config"
	"studybuddy/utils"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CloudinaryStorage keeps avatars in a Cloudinary folder.
type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewStorageFromConfig builds the Cloudinary client from CLOUDINARY_URL or the split
// credentials. It returns Disabled when neither is set.
func NewStorageFromConfig(cfg *config.Config) (StorageService, error) {
	var (
		cld *cloudinary.Cloudinary
		err error
	)
	switch {
	case cfg.CloudinaryURL != "":
		cld, err = cloudinary.NewFromURL(cfg.CloudinaryURL)
	case cfg.CloudinaryCloudName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "":
		cld, err = cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	default:
		utils.GetLogger().Warn("cloudinary not configured, avatar uploads disabled")
		return Disabled{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return NewCloudinaryStorage(cld, cfg.AvatarFolder), nil
}

func NewCloudinaryStorage(cld *cloudinary.Cloudinary, folder string) *CloudinaryStorage {
	return &CloudinaryStorage{cld: cld, folder: folder}
}

// UploadAvatar stores an image under <folder>/<username>-<uuid>.
func (s *CloudinaryStorage) UploadAvatar(ctx context.Context, file io.Reader, username string) (*UploadedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     username + "-" + uuid.NewString(),
		ResourceType: "image",
	})
	if err != nil {
		return nil, utils.Unavailable(err, "avatar upload failed")
	}
	if result.Error.Message != "" {
		return nil, utils.InvalidInput("avatar rejected: %s", result.Error.Message)
	}
	if result.PublicID == "" {
		return nil, utils.Unavailable(nil, "avatar upload returned no public id")
	}
	utils.GetLogger().Debug("avatar uploaded", zap.String("username", username), zap.String("publicId", result.PublicID))
	return &UploadedFile{PublicID: result.PublicID, URL: result.SecureURL}, nil
}

// DeleteFile deletes a file from Cloudinary given its public ID.
func (s *CloudinaryStorage) DeleteFile(ctx context.Context, publicID string) error {
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to delete file %s: %w", publicID, err)
	}
	return nil
}

// URL constructs the delivery URL of an image.
func (s *CloudinaryStorage) URL(publicID string) (string, error) {
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("failed to build asset: %w", err)
	}
	return img.String()
}
