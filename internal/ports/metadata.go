package ports

import (
	"github.com/tejashwikalptaru/moodtune/internal/domain"
)

// MetadataResolver builds a MediaItem from a local media file.
type MetadataResolver interface {
	// Resolve reads the file at path and returns the item describing it.
	// Returns domain.ErrFileNotFound if the file doesn't exist.
	Resolve(path string) (domain.MediaItem, error)
}
