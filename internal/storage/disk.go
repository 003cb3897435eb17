package storage

import (
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/healthbook/healthbook-api/internal/config"
	"github.com/healthbook/healthbook-api/pkg/apperror"
)

// ImageStore saves uploaded images to local disk.
type ImageStore struct {
	dir        string
	maxSize    int64
	publicBase string
}

func NewImageStore(cfg config.UploadConfig) (*ImageStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &ImageStore{
		dir:        cfg.Dir,
		maxSize:    cfg.MaxSizeMB << 20,
		publicBase: cfg.PublicBase,
	}, nil
}

// Save validates and stores an uploaded file, returning its public URL.
// Only image content types are accepted, capped at the configured size.
func (s *ImageStore) Save(c *gin.Context, file *multipart.FileHeader) (string, error) {
	if file.Size > s.maxSize {
		return "", apperror.Validation(fmt.Sprintf("file exceeds %d MB limit", s.maxSize>>20))
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", apperror.Validation("only image files are allowed")
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), filepath.Ext(file.Filename))
	dst := filepath.Join(s.dir, name)

	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("failed to save uploaded file: %w", err)
	}

	return path.Join(s.publicBase, name), nil
}
