package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Logger = (*SlogAdapter)(nil)

func TestSlogAdapter_Levels(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Debug("debug message", "key", "d")
	adapter.Info("info message", "key", "i")
	adapter.Warn("warn message", "key", "w")
	adapter.Error("error message", Operation("share"))

	out := buf.String()
	for _, want := range []string{
		`level=DEBUG msg="debug message" component=drive key=d`,
		`level=INFO msg="info message" component=drive key=i`,
		`level=WARN msg="warn message" component=drive key=w`,
		`level=ERROR msg="error message" component=drive operation=share`,
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogAdapter_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))

	adapter.Info("dropped")
	assert.Empty(t, buf.String())
}

func TestForComponent_With(t *testing.T) {
	var buf bytes.Buffer
	adapter := ForComponent(slog.New(slog.NewTextHandler(&buf, nil)), "server").With(Tool("drive_share_file"))

	adapter.Info("called")
	assert.Contains(t, buf.String(), "component=server")
	assert.Contains(t, buf.String(), "tool=drive_share_file")
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	adapter := DefaultLogger()
	require.NotNil(t, adapter)
	adapter.Info("hello")
	assert.Contains(t, buf.String(), "component=drive")
}
