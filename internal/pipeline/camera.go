package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const cameraCallbackPrefix = "jsonTMCEarthCamerasCallback("

// CameraLocation is camera metadata from the open-data feed.
type CameraLocation struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// CameraFeedSource downloads frames from the Toronto Open Data traffic
// cameras.
type CameraFeedSource struct {
	listURL          string
	imageURLTemplate string
	client           *http.Client
	logger           *zap.Logger
}

// NewCameraFeedSource constructs the source. The image URL template takes
// the camera number as its single %s verb.
func NewCameraFeedSource(listURL, imageURLTemplate string, logger *zap.Logger) *CameraFeedSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CameraFeedSource{
		listURL:          listURL,
		imageURLTemplate: imageURLTemplate,
		client:           &http.Client{Timeout: 30 * time.Second},
		logger:           logger,
	}
}

type cameraEntry struct {
	Number    json.Number `json:"Number"`
	Name      string      `json:"Name"`
	Latitude  json.Number `json:"Latitude"`
	Longitude json.Number `json:"Longitude"`
}

// Images fetches the camera list and downloads each frame. A camera whose
// image download fails is logged and dropped; only a list-level failure
// aborts the batch.
func (s *CameraFeedSource) Images(ctx context.Context) ([]Record, error) {
	cameras, err := s.fetchCameras(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("camera list fetched", zap.Int("cameras", len(cameras)))

	records := make([]Record, 0, len(cameras))
	for _, camera := range cameras {
		number := camera.Number.String()
		name := camera.Name
		if name == "" {
			name = "Camera " + number
		}

		image, err := s.downloadImage(ctx, number)
		if err != nil {
			s.logger.Warn("camera image download failed",
				zap.String("camera", number), zap.Error(err))
			continue
		}

		lat, _ := camera.Latitude.Float64()
		lon, _ := camera.Longitude.Float64()
		records = append(records, Record{
			ID:        number,
			Name:      name,
			Image:     image,
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return records, nil
}

// Locations fetches camera metadata only, keyed by camera number. Used by
// the demo fixture source to recover coordinates for captured frames.
func (s *CameraFeedSource) Locations(ctx context.Context) (map[string]CameraLocation, error) {
	cameras, err := s.fetchCameras(ctx)
	if err != nil {
		return nil, err
	}
	locations := make(map[string]CameraLocation, len(cameras))
	for _, camera := range cameras {
		number := camera.Number.String()
		name := camera.Name
		if name == "" {
			name = "Camera " + number
		}
		lat, _ := camera.Latitude.Float64()
		lon, _ := camera.Longitude.Float64()
		locations[number] = CameraLocation{Name: name, Latitude: lat, Longitude: lon}
	}
	return locations, nil
}

func (s *CameraFeedSource) fetchCameras(ctx context.Context) ([]cameraEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch camera list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch camera list: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	payload := stripCallbackWrapper(strings.TrimSpace(string(body)))

	var wrapper struct {
		Data []cameraEntry `json:"Data"`
	}
	if err := json.Unmarshal([]byte(payload), &wrapper); err != nil {
		return nil, fmt.Errorf("parse camera list: %w", err)
	}

	cameras := wrapper.Data
	sort.Slice(cameras, func(i, j int) bool {
		a, _ := cameras[i].Number.Int64()
		b, _ := cameras[j].Number.Int64()
		return a < b
	})
	return cameras, nil
}

func (s *CameraFeedSource) downloadImage(ctx context.Context, number string) ([]byte, error) {
	imageCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf(s.imageURLTemplate, number)
	req, err := http.NewRequestWithContext(imageCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// stripCallbackWrapper unwraps the JSONP callback the feed is served in.
func stripCallbackWrapper(text string) string {
	if !strings.HasPrefix(text, cameraCallbackPrefix) {
		return text
	}
	start := strings.Index(text, "(") + 1
	end := strings.LastIndex(text, ")")
	if end <= start {
		return text
	}
	return text[start:end]
}
