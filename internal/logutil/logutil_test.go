package logutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogConfig_getLevel(t *testing.T) {
	tests := []struct {
		level   string
		want    zap.AtomicLevel
		wantErr bool
	}{
		{"", zap.NewAtomicLevelAt(zap.InfoLevel), false},
		{"debug", zap.NewAtomicLevelAt(zap.DebugLevel), false},
		{"warn", zap.NewAtomicLevelAt(zap.WarnLevel), false},
		{"loud", zap.AtomicLevel{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			c := &LogConfig{Level: tt.level}
			got, err := c.getLevel()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Level(), got.Level())
		})
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	_, err := New(LogConfig{Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestNew_JSONToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heapctl.log")
	l, err := New(LogConfig{Level: "debug", Format: "json", Filename: path, MaxSize: 1})
	require.NoError(t, err)

	l.Debug("heap extended", zap.Int("extend", 4096))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "heap extended", entry["msg"])
	assert.Equal(t, float64(4096), entry["extend"])
	assert.Equal(t, "debug", entry["level"])
}
