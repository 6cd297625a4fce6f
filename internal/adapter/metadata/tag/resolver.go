// Package tag resolves media items from the tags of local audio files.
package tag

import (
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/moodtune/internal/domain"
	"github.com/tejashwikalptaru/moodtune/internal/ports"
)

// Resolver reads ID3, MP4, FLAC and OGG tags through dhowden/tag.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a new tag resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{
		logger: logger.With(slog.String("component", "TagResolver")),
	}
}

// Resolve builds the media item for the file at path.
// A file without readable tags is titled after its file name.
func (r *Resolver) Resolve(path string) (domain.MediaItem, error) {
	if strings.TrimSpace(path) == "" {
		return domain.MediaItem{}, domain.ErrInvalidFilePath
	}

	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return domain.MediaItem{}, domain.ErrFileNotFound
	}
	if err != nil {
		return domain.MediaItem{}, domain.NewRepositoryError("resolve", "metadata", "failed to stat file", err)
	}
	if info.IsDir() {
		return domain.MediaItem{}, domain.ErrInvalidFilePath
	}

	item := domain.MediaItem{
		ID:    path,
		Title: titleFromName(path),
	}

	file, err := os.Open(path)
	if err != nil {
		r.logger.Warn("failed to open file for tags", slog.String("path", path), slog.Any("error", err))
		return item, nil
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil || metadata == nil {
		r.logger.Debug("no readable tags", slog.String("path", path), slog.Any("error", err))
		return item, nil
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		item.Title = title
	}
	item.Artist = strings.TrimSpace(metadata.Artist())

	if picture := metadata.Picture(); picture != nil && len(picture.Data) > 0 {
		item.Thumbnail = dataURI(picture.MIMEType, picture.Data)
	}

	return item, nil
}

func titleFromName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func dataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Verify that Resolver implements the MetadataResolver interface
var _ ports.MetadataResolver = (*Resolver)(nil)
