package api

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"propvalue/server/internal/models"
)

const (
	imagesField   = "images"
	maxImages     = 5
	maxImageBytes = 5 << 20

	// publicPrefix is where the static route serves UPLOAD_DIR from.
	publicPrefix = "uploads"
)

var allowedImageTypes = regexp.MustCompile(`jpeg|jpg|png|svg|gif|avif`)

// saveImages stores the multipart "images" files under the upload directory
// and returns their public relative paths. Non-multipart requests carry no images.
func (h *Handler) saveImages(c *gin.Context) ([]string, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed multipart form", models.ErrValidation)
	}

	files := form.File[imagesField]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > maxImages {
		return nil, fmt.Errorf("%w: at most %d images are allowed", models.ErrValidation, maxImages)
	}
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedImageTypes.MatchString(ext) || !allowedImageTypes.MatchString(file.Header.Get("Content-Type")) {
			return nil, fmt.Errorf("%w: only images (JPEG, JPG, PNG, GIF, SVG, AVIF) are allowed", models.ErrValidation)
		}
		if file.Size > maxImageBytes {
			return nil, fmt.Errorf("%w: image %s exceeds 5MB", models.ErrValidation, file.Filename)
		}
	}

	if err := os.MkdirAll(h.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, name)); err != nil {
			h.removeImages(paths)
			return nil, fmt.Errorf("failed to save image %s: %w", file.Filename, err)
		}
		paths = append(paths, path.Join(publicPrefix, name))
	}

	h.logger.WithField("count", len(paths)).Info("Stored uploaded images")
	return paths, nil
}

func (h *Handler) removeImages(paths []string) {
	for _, p := range paths {
		if err := os.Remove(filepath.Join(h.uploadDir, path.Base(p))); err != nil && !os.IsNotExist(err) {
			h.logger.WithError(err).WithField("path", p).Warn("Failed to remove uploaded image")
		}
	}
}
