package udagramcli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/tj/assert"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Service{Name: "resize-image", Version: "abc123"})
	logger.Info().Str("object_key", "photo1.png").Msg("thumbnail written")

	var entry map[string]interface{}
	assert.Nil(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "resize-image", entry["service"])
	assert.Equal(t, "abc123", entry["version"])
	assert.Equal(t, "photo1.png", entry["object_key"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
}

func TestServiceDimensions(t *testing.T) {
	got := Service{Name: "send-notifications", Version: "v1"}.Dimensions()
	assert.Equal(t, "send-notifications", got[ServiceNameDimension])
	assert.Equal(t, "v1", got[ServiceVersionDimension])
}
