package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/manash/thumbchat/internal/security"
)

// Saver writes returned thumbnail bytes to local files.
type Saver struct{}

func NewSaver() *Saver {
	return &Saver{}
}

// Save writes the image to path, creating parent directories as needed.
// Relative paths are validated against traversal; an empty path gets a
// timestamped default name in the working directory.
func (s *Saver) Save(data []byte, path string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no image data to save")
	}

	if path == "" {
		path = GenerateFilename(time.Now())
	}

	if !filepath.IsAbs(path) {
		if err := security.ValidateSavePath(path); err != nil {
			return "", err
		}
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// GenerateFilename returns a timestamped default filename.
func GenerateFilename(t time.Time) string {
	return fmt.Sprintf("thumbnail-%s.png", t.Format("20060102-150405"))
}
