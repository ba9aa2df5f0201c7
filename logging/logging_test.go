package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestComponentAddsAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(slog.LevelDebug, &buf), "parentlink")
	l.Debug("hello")

	assert.Contains(t, buf.String(), "component=parentlink")
	assert.Contains(t, buf.String(), "msg=hello")
}
