package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json handler filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, "warn", "json")

		log.Info("dropped")
		log.Warn("kept", "response_id", "r1")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "kept", line["msg"])
		assert.Equal(t, "r1", line["response_id"])
	})

	t.Run("text handler", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "debug", "text").Debug("hello")
		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, "loud", "json")
		log.Debug("dropped")
		assert.Empty(t, buf.String())
	})
}
