package utils

import (
	"context"
	"fmt"
	"io"

	"campushub/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStorage stores receipt files in Cloudinary and hands back their
// public URLs. It is the production implementation of the blob-store
// boundary used by the receipt service.
type CloudinaryStorage struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryStorage initializes a Cloudinary client from AppConfig.
func NewCloudinaryStorage() (*CloudinaryStorage, error) {
	cloudName := config.AppConfig.CloudinaryCloudName
	apiKey := config.AppConfig.CloudinaryAPIKey
	apiSecret := config.AppConfig.CloudinaryAPISecret

	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials not set in configuration")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld}, nil
}

// Upload stores the file under the given name in the receipts folder and
// returns its secure URL.
func (s *CloudinaryStorage) Upload(ctx context.Context, file io.Reader, name string) (string, error) {
	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID: name,
		Folder:   "receipts",
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	return resp.SecureURL, nil
}
