package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Demo fixture filenames encode camera number, demo group and severity:
// {camera}_DEMO{group}_S{severity}.png, e.g. 8015_DEMO1_S5.png.
// Files tagged _OG. are unannotated originals and are skipped.
var demoFilePattern = regexp.MustCompile(`^(\d+)_DEMO(\d+)_S(\d+)\.(png|jpg)$`)

type demoFixture struct {
	file     string
	camera   string
	group    int
	severity int
}

// DemoFixtureSource loads curated demo images. Within each demo group
// only the file with the highest encoded severity survives; ties keep the
// first file encountered (strict greater-than comparison). This
// deduplication runs before the per-record pipeline loop.
type DemoFixtureSource struct {
	dir       string
	groups    map[int]struct{}
	locations map[string]CameraLocation
	logger    *zap.Logger
}

// NewDemoFixtureSource constructs the source. groups limits processing to
// the listed demo numbers (nil means all); locations optionally maps
// camera numbers to real coordinates.
func NewDemoFixtureSource(dir string, groups []int, locations map[string]CameraLocation, logger *zap.Logger) *DemoFixtureSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	var groupSet map[int]struct{}
	if len(groups) > 0 {
		groupSet = make(map[int]struct{}, len(groups))
		for _, g := range groups {
			groupSet[g] = struct{}{}
		}
	}
	return &DemoFixtureSource{dir: dir, groups: groupSet, locations: locations, logger: logger}
}

// Images returns one record per demo group, carrying the encoded
// severity so the pipeline skips live classification and files a ticket
// for every surviving fixture.
func (s *DemoFixtureSource) Images(_ context.Context) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	selected := make(map[int]demoFixture)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fixture, ok := parseDemoFilename(entry.Name())
		if !ok {
			continue
		}
		if s.groups != nil {
			if _, want := s.groups[fixture.group]; !want {
				continue
			}
		}
		current, exists := selected[fixture.group]
		if !exists || fixture.severity > current.severity {
			selected[fixture.group] = fixture
		}
	}

	groups := make([]int, 0, len(selected))
	for group := range selected {
		groups = append(groups, group)
	}
	sort.Ints(groups)

	var records []Record
	for _, group := range groups {
		fixture := selected[group]

		image, err := os.ReadFile(filepath.Join(s.dir, fixture.file))
		if err != nil {
			s.logger.Warn("failed to read demo image",
				zap.String("file", fixture.file), zap.Error(err))
			continue
		}

		name := fmt.Sprintf("DEMO%d: Camera %s", fixture.group, fixture.camera)
		var lat, lon float64
		if loc, ok := s.locations[fixture.camera]; ok {
			name = fmt.Sprintf("DEMO%d: %s", fixture.group, loc.Name)
			lat, lon = loc.Latitude, loc.Longitude
		}

		severity := fixture.severity
		records = append(records, Record{
			ID:            fixture.camera,
			Name:          name,
			Image:         image,
			Latitude:      lat,
			Longitude:     lon,
			KnownSeverity: &severity,
		})
	}
	return records, nil
}

func parseDemoFilename(name string) (demoFixture, bool) {
	if strings.Contains(name, "_OG.") {
		return demoFixture{}, false
	}
	match := demoFilePattern.FindStringSubmatch(name)
	if match == nil {
		return demoFixture{}, false
	}
	group, _ := strconv.Atoi(match[2])
	severity, _ := strconv.Atoi(match[3])
	return demoFixture{
		file:     name,
		camera:   match[1],
		group:    group,
		severity: severity,
	}, true
}
