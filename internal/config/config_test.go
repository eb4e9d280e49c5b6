package config

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBodyLimitFitsEncodedMaxImage(t *testing.T) {
	cfg := CloudinaryConfig{MaxUploadBytes: 10_000_000}

	// A max-size image travels base64-encoded inside a JSON body; the
	// cap must admit the encoded form with room for the envelope.
	encoded := base64.StdEncoding.EncodedLen(cfg.MaxUploadBytes)
	assert.Greater(t, cfg.BodyLimit(), encoded)
	assert.GreaterOrEqual(t, cfg.BodyLimit()-encoded, 1<<20)
}

func TestBodyLimitSmallCap(t *testing.T) {
	cfg := CloudinaryConfig{MaxUploadBytes: 1}
	assert.Greater(t, cfg.BodyLimit(), base64.StdEncoding.EncodedLen(1))
}
