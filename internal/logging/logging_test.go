package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    log.Level
		wantErr bool
	}{
		{"", log.InfoLevel, false},
		{"info", log.InfoLevel, false},
		{"DEBUG", log.DebugLevel, false},
		{"warn", log.WarnLevel, false},
		{"warning", log.WarnLevel, false},
		{"error", log.ErrorLevel, false},
		{"loud", log.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidLevel))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_WritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Config{Level: "info", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("Backup complete.")
	logger.Debug("hidden")

	assert.Contains(t, buf.String(), "Backup complete.")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNew_MirrorsToFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "debtune.log")

	logger, closer, err := New(Config{Level: "debug", Path: path, Output: &buf})
	require.NoError(t, err)

	logger.Warn("Reboot skipped.")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Reboot skipped.")
	assert.Contains(t, buf.String(), "Reboot skipped.")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Config{Level: "chatty"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	l := Discard()
	assert.Same(t, l, OrDiscard(l))
}
