// utils/file_utils.go
package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	// Base directory for storing uploaded files
	uploadBaseDir = "uploads"
	// Base URL for serving files
	baseURL = "/uploads"
	// Maximum file size (20MB)
	maxFileSize = 20 * 1024 * 1024
	// Thumbnail width for catalog images
	thumbWidth = 320
)

var (
	// Allowed report extensions
	allowedReportExts = map[string]bool{
		".pdf":  true,
		".html": true,
		".zip":  true,
	}
	// Allowed catalog image extensions
	allowedImageExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
	}
)

// InitializeStorage creates necessary directories for file storage
func InitializeStorage() error {
	for _, dir := range []string{"reports", "services", "services/thumbs"} {
		if err := os.MkdirAll(filepath.Join(uploadBaseDir, dir), 0755); err != nil {
			return fmt.Errorf("failed to create %s directory: %v", dir, err)
		}
	}
	return nil
}

// saveUpload streams a multipart file to destDir under a random name and
// returns the retrievable URL path.
func saveUpload(file *multipart.FileHeader, destDir string) (string, error) {
	if file.Size > maxFileSize {
		return "", fmt.Errorf("file exceeds maximum size of %d bytes", maxFileSize)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := uuid.New().String() + ext
	destPath := filepath.Join(uploadBaseDir, destDir, name)

	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return baseURL + "/" + destDir + "/" + name, nil
}

// SaveReportFile stores an uploaded deliverable and returns its URL.
func SaveReportFile(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedReportExts[ext] {
		return "", fmt.Errorf("unsupported report format. Allowed formats: pdf, html, zip")
	}
	return saveUpload(file, "reports")
}

// SaveServiceImage stores a catalog image plus a resized thumbnail and
// returns both URLs.
func SaveServiceImage(file *multipart.FileHeader) (imageURL, thumbURL string, err error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return "", "", fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png")
	}

	imageURL, err = saveUpload(file, "services")
	if err != nil {
		return "", "", err
	}

	srcPath := filepath.Join(uploadBaseDir, strings.TrimPrefix(imageURL, baseURL+"/"))
	img, err := imaging.Open(srcPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to open image for thumbnail: %w", err)
	}

	thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	thumbName := filepath.Base(srcPath)
	thumbPath := filepath.Join(uploadBaseDir, "services", "thumbs", thumbName)
	if err := imaging.Save(thumb, thumbPath); err != nil {
		return "", "", fmt.Errorf("failed to save thumbnail: %w", err)
	}

	return imageURL, baseURL + "/services/thumbs/" + thumbName, nil
}
