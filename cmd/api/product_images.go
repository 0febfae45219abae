package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"

	"paginaflex/internal/domain/catalog"
	"paginaflex/internal/params"

	"github.com/go-chi/chi/v5"
)

const maxImageBytes = 8 * 1024 * 1024 // 8MB

var allowedImageTypes = map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}

var publicIDUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// helper: sniff first 512 bytes and reset reader
func sniffMIME(file multipart.File) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	mime := http.DetectContentType(buf[:n])

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek reset: %w", err)
	}
	return mime, nil
}

func productPublicID(sku string) string {
	return "sku_" + strings.Trim(publicIDUnsafe.ReplaceAllString(sku, "_"), "_")
}

func (app *application) uploadProductImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if app.cld == nil {
		app.internalServerError(w, r, errors.New("image uploads are not configured"))
		return
	}

	productID, ok := params.ParseID(chi.URLParam(r, "productID"))
	if !ok {
		app.badRequestResponse(w, r, fmt.Errorf("invalid product id"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("image file is required"))
		return
	}
	defer file.Close()

	mime, err := sniffMIME(file)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("sniff mime: %w", err))
		return
	}
	if !allowedImageTypes[mime] {
		app.badRequestResponse(w, r, fmt.Errorf("invalid image type: %s", mime))
		return
	}

	found, err := app.store.Catalog.GetProductsByIDs(ctx, []int64{productID})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if len(found) == 0 {
		app.notFoundResponse(w, r, catalog.ErrProductNotFound)
		return
	}
	p := found[0]

	imageURL, err := app.uploadToCloudinaryWithID(ctx, file, productPublicID(p.SKU))
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("failed to upload image: %w", err))
		return
	}

	if err := app.store.Catalog.SetProductImage(ctx, p.ID, imageURL); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	// the public id is stable per sku, so only a differently named old
	// image needs cleaning up
	if p.ImageURL != nil && *p.ImageURL != "" && *p.ImageURL != imageURL {
		old := *p.ImageURL
		app.background(func() {
			if err := app.deletePhotoFromCloudinary(context.Background(), old); err != nil {
				app.logger.Warnw("failed to delete previous product image", "product_id", p.ID, "url", old, "error", err)
			}
		})
	}

	resp := map[string]string{"image_url": imageURL}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}
