package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCallbackWrapper(t *testing.T) {
	wrapped := `jsonTMCEarthCamerasCallback({"Data":[]})`
	assert.Equal(t, `{"Data":[]}`, stripCallbackWrapper(wrapped))

	bare := `{"Data":[]}`
	assert.Equal(t, bare, stripCallbackWrapper(bare))
}

func TestCameraSourceFetchAndDownload(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cameras.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`jsonTMCEarthCamerasCallback({"Data":[
			{"Number":"8020","Name":"Front St","Latitude":"43.64","Longitude":"-79.40"},
			{"Number":"8015","Name":"","Latitude":"43.65","Longitude":"-79.38"}
		]})`))
	})
	mux.HandleFunc("/images/loc8015.jpg", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("jpeg-8015"))
	})
	mux.HandleFunc("/images/loc8020.jpg", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	source := NewCameraFeedSource(server.URL+"/cameras.json", server.URL+"/images/loc%s.jpg", nil)
	records, err := source.Images(context.Background())
	require.NoError(t, err)

	// Cameras come back sorted by number; 8020's dead image is dropped.
	require.Len(t, records, 1)
	assert.Equal(t, "8015", records[0].ID)
	assert.Equal(t, "Camera 8015", records[0].Name)
	assert.Equal(t, []byte("jpeg-8015"), records[0].Image)
	assert.Equal(t, 43.65, records[0].Latitude)
}

func TestCameraSourceLocations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Data":[{"Number":"8015","Name":"Bay St","Latitude":"43.66","Longitude":"-79.39"}]}`))
	}))
	defer server.Close()

	source := NewCameraFeedSource(server.URL, "unused%s", nil)
	locations, err := source.Locations(context.Background())
	require.NoError(t, err)

	loc, ok := locations["8015"]
	require.True(t, ok)
	assert.Equal(t, "Bay St", loc.Name)
	assert.Equal(t, 43.66, loc.Latitude)
}

func TestCameraSourceListFailureAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	source := NewCameraFeedSource(server.URL, "unused%s", nil)
	_, err := source.Images(context.Background())
	require.Error(t, err)
}
