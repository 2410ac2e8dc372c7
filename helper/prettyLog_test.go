package helper

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPrettyHandler(t *testing.T) {
	t.Run("Create PrettyHandler", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{})

		require.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")
		assert.NotNil(t, handler.Handler, "Expected handler to have a non-nil Handler field")
		assert.NotNil(t, handler.l, "Expected handler to have a non-nil logger field")
	})

	t.Run("Create PrettyHandler with custom level and source", func(t *testing.T) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			},
		})

		assert.NotNil(t, handler, "Expected NewPrettyHandler to return a non-nil handler")
	})
}

func TestPrettyHandlerHandle(t *testing.T) {
	ctx := context.Background()

	newHandler := func() (*PrettyHandler, *bytes.Buffer) {
		var buf bytes.Buffer
		handler := NewPrettyHandler(&buf, PrettyHandlerOptions{
			SlogOpts: slog.HandlerOptions{Level: slog.LevelDebug},
		})
		return handler, &buf
	}

	t.Run("Handle writes level, message and attributes", func(t *testing.T) {
		levels := map[slog.Level]string{
			slog.LevelDebug: "DEBUG:",
			slog.LevelInfo:  "INFO:",
			slog.LevelWarn:  "WARN:",
			slog.LevelError: "ERROR:",
		}

		for level, marker := range levels {
			handler, buf := newHandler()

			record := slog.NewRecord(time.Now(), level, "routed query", 0)
			record.AddAttrs(slog.String("strategy", "hybrid"), slog.Int("results", 7))

			err := handler.Handle(ctx, record)
			require.NoError(t, err, "Expected Handle to not return an error")

			output := buf.String()
			assert.Contains(t, output, marker, "Expected output to contain the level marker")
			assert.Contains(t, output, "routed query", "Expected output to contain the message")
			assert.Contains(t, output, "strategy", "Expected output to contain attribute keys")
			assert.Contains(t, output, "hybrid", "Expected output to contain attribute values")
			assert.Contains(t, output, "7", "Expected output to contain numeric attribute values")
		}
	})

	t.Run("Handle without attributes writes an empty attribute object", func(t *testing.T) {
		handler, buf := newHandler()

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "cache cleared", 0)

		err := handler.Handle(ctx, record)
		require.NoError(t, err, "Expected Handle to not return an error")

		output := buf.String()
		assert.Contains(t, output, "cache cleared", "Expected output to contain the message")
		assert.Contains(t, output, "{}", "Expected output to contain an empty JSON object for attributes")
	})

	t.Run("Handle serializes nested attribute values", func(t *testing.T) {
		handler, buf := newHandler()

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "synthesis finished", 0)
		record.AddAttrs(slog.Any("info", map[string]interface{}{
			"final_count": 4,
			"method":      "enhanced_hybrid_synthesis",
		}))

		err := handler.Handle(ctx, record)
		require.NoError(t, err, "Expected Handle to not return an error")

		output := buf.String()
		assert.Contains(t, output, "final_count", "Expected output to contain nested keys")
		assert.Contains(t, output, "enhanced_hybrid_synthesis", "Expected output to contain nested values")
	})

	t.Run("Handle prefixes a bracketed millisecond timestamp", func(t *testing.T) {
		handler, buf := newHandler()

		record := slog.NewRecord(time.Now(), slog.LevelInfo, "time check", 0)

		err := handler.Handle(ctx, record)
		require.NoError(t, err, "Expected Handle to not return an error")

		assert.Regexp(t, `\[\d{2}:\d{2}:\d{2}\.\d{3}\]`, buf.String(),
			"Expected output to start with a [HH:MM:SS.mmm] timestamp")
	})
}
