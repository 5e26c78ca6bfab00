package storage

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"wastewatch/internal/config"
	"wastewatch/internal/logger"
)

// Photo kinds used as file name prefixes.
const (
	KindReport  = "report"
	KindCleanup = "cleanup"
)

// ErrPhotoNotFound is returned when a stored photo is missing.
var ErrPhotoNotFound = errors.New("photo not found")

// PhotoService stores uploaded photos on disk under unique names.
type PhotoService struct {
	photosDir string
	logger    *logger.Logger
}

// NewPhotoService creates a PhotoService rooted at the configured directory.
func NewPhotoService(config *config.Config, logger *logger.Logger) *PhotoService {
	return &PhotoService{
		photosDir: config.PhotoDirectory,
		logger:    logger,
	}
}

// Save writes a photo and returns its name relative to the photo directory.
func (s *PhotoService) Save(data []byte, kind string) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty photo")
	}

	if err := os.MkdirAll(s.photosDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create photo directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s_%s%s",
		kind, time.Now().Format("2006-01-02_15-04-05"), uuid.NewString(), extension(data))

	if err := os.WriteFile(filepath.Join(s.photosDir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to save photo %s: %w", filename, err)
	}

	s.logger.Info("Saved %s photo %s (%d bytes)", kind, filename, len(data))
	return filename, nil
}

// Load reads a photo previously returned by Save.
func (s *PhotoService) Load(name string) ([]byte, error) {
	clean := filepath.Base(name)
	if clean == "." || clean == string(filepath.Separator) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("invalid photo name %q", name)
	}

	data, err := os.ReadFile(filepath.Join(s.photosDir, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", clean, err)
	}
	return data, nil
}

// Directory returns the root directory photos are written to.
func (s *PhotoService) Directory() string {
	return s.photosDir
}

func extension(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	default:
		return ".bin"
	}
}
