package handlers

import (
	"context"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ImageUploader stores a photo and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, dataURI string) (string, error)
}

// CloudinaryUploader uploads complaint photos to cloudinary.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader builds an uploader from the CLOUDINARY_URL
// environment variable.
func NewCloudinaryUploader() (*CloudinaryUploader, error) {
	cld, err := cloudinary.New()
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// Upload pushes a base64 data URI to cloudinary and returns the hosted URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, dataURI string) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, dataURI, uploader.UploadParams{Folder: "complaints"})
	if err != nil {
		return "", err
	}
	return resp.SecureURL, nil
}

func isDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}
