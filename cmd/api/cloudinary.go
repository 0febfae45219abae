package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const productImageFolder = "products"

// uploadToCloudinaryWithID uploads a file under a custom public ID and
// returns its secure URL.
func (app *application) uploadToCloudinaryWithID(ctx context.Context, file io.Reader, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:    productImageFolder,
		PublicID:  publicID,
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

func (app *application) deletePhotoFromCloudinary(ctx context.Context, photoURL string) error {
	publicID, err := extractPublicIDFromURL(photoURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete photo from Cloudinary: %w", err)
	}
	return nil
}

// extractPublicIDFromURL turns
// https://res.cloudinary.com/demo/image/upload/v1712/products/sku_1.jpg
// into products/sku_1.
func extractPublicIDFromURL(photoURL string) (string, error) {
	parsedURL, err := url.Parse(photoURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	parts := strings.Split(parsedURL.Path, "/")
	for i, part := range parts {
		if part != "upload" || i+1 >= len(parts) {
			continue
		}
		rest := parts[i+1:]
		// skip the version segment
		if len(rest) > 1 && strings.HasPrefix(rest[0], "v") && strings.Trim(rest[0][1:], "0123456789") == "" {
			rest = rest[1:]
		}
		id := strings.Join(rest, "/")
		return strings.TrimSuffix(id, path.Ext(id)), nil
	}

	return "", errors.New("failed to extract public ID from URL")
}
