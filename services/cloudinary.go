package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Upload folders
const (
	FolderListings = "listings"
	FolderVendors  = "vendors"
	FolderReviews  = "reviews"
	FolderAvatars  = "avatars"
)

// CloudinaryService uploads listing, vendor and review images.
type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudinaryURL string) (*CloudinaryService, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryService{cld: cld}, nil
}

// UploadImage uploads a multipart file and returns its HTTPS URL.
func (cs *CloudinaryService) UploadImage(ctx context.Context, file multipart.File, folder string) (string, error) {
	publicID := fmt.Sprintf("%s/%d", folder, time.Now().UnixNano())

	useFilename := true
	uniqueFilename := true
	overwrite := false
	result, err := cs.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		UseFilename:    &useFilename,
		UniqueFilename: &uniqueFilename,
		Overwrite:      &overwrite,
		ResourceType:   "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	url := result.SecureURL
	if url == "" {
		url = forceHTTPS(result.URL)
	}
	if url == "" {
		return "", fmt.Errorf("upload returned no URL")
	}
	return url, nil
}

func forceHTTPS(url string) string {
	if strings.HasPrefix(url, "http://") {
		return "https://" + strings.TrimPrefix(url, "http://")
	}
	return url
}
