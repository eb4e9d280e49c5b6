package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/streetsweepai/streetsweep-service/internal/domain"
)

// DirectorySource loads images from a local directory, assigning every
// record the same default location.
type DirectorySource struct {
	dir             string
	defaultLocation domain.Location
	logger          *zap.Logger
}

// NewDirectorySource constructs the source.
func NewDirectorySource(dir string, defaultLocation domain.Location, logger *zap.Logger) *DirectorySource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectorySource{dir: dir, defaultLocation: defaultLocation, logger: logger}
}

// Images loads every .jpg/.jpeg/.png file in lexical order. Unreadable
// files are logged and dropped.
func (s *DirectorySource) Images(_ context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			continue
		}

		image, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn("failed to read image", zap.String("file", name), zap.Error(err))
			continue
		}

		records = append(records, Record{
			ID:        strings.TrimSuffix(name, filepath.Ext(name)),
			Name:      name,
			Image:     image,
			Latitude:  s.defaultLocation.Lat,
			Longitude: s.defaultLocation.Lon,
		})
	}
	return records, nil
}
