package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// MetadataReader extracts display names from audio files
type MetadataReader struct{}

// NewMetadataReader creates a new metadata reader
func NewMetadataReader() *MetadataReader {
	return &MetadataReader{}
}

// DisplayName returns "Artist - Title" or the title from the file's tags,
// falling back to the file name when the file has no usable tags.
func (r *MetadataReader) DisplayName(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	fallback := filepath.Base(filePath)

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		// Untagged clips are the common case
		return fallback, nil
	}

	title := strings.TrimSpace(metadata.Title())
	if title == "" {
		return fallback, nil
	}
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		return artist + " - " + title, nil
	}
	return title, nil
}
