package logger

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stripANSI removes ANSI color codes from a string for testing
func stripANSI(str string) string {
	ansiRegex := regexp.MustCompile(`\x1b\[[0-9;]*m`)
	return ansiRegex.ReplaceAllString(str, "")
}

func encodeEntry(t *testing.T, ent zapcore.Entry, fields ...zapcore.Field) string {
	t.Helper()
	enc := newMinimalEncoder()
	buf, err := enc.EncodeEntry(ent, fields)
	require.NoError(t, err)
	return stripANSI(buf.String())
}

func TestMinimalEncoderFormat(t *testing.T) {
	when := time.Date(2026, 3, 14, 13, 4, 35, 0, time.UTC)

	t.Run("info line has time, component, message", func(t *testing.T) {
		out := encodeEntry(t, zapcore.Entry{
			Level:      zapcore.InfoLevel,
			Time:       when,
			LoggerName: "pool",
			Message:    "Opened tenant store",
		})
		assert.Equal(t, "13:04:35  pool  Opened tenant store\n", out)
	})

	t.Run("warn level is marked", func(t *testing.T) {
		out := encodeEntry(t, zapcore.Entry{
			Level:   zapcore.WarnLevel,
			Time:    when,
			Message: "Detach failed after query",
		})
		assert.Contains(t, out, "WARN")
	})

	t.Run("known fields render as bare values", func(t *testing.T) {
		out := encodeEntry(t, zapcore.Entry{
			Level:      zapcore.InfoLevel,
			Time:       when,
			LoggerName: "federation",
			Message:    "Federated query complete",
		},
			zap.String("primary", "alpha"),
			zap.Int("secondaries", 2),
			zap.Int("rows", 7),
			zap.Int64("duration_ms", 12),
		)
		assert.Contains(t, out, "alpha")
		assert.Contains(t, out, "2 stores")
		assert.Contains(t, out, "7 rows")
		assert.Contains(t, out, "12ms")
	})

	t.Run("clone is independent", func(t *testing.T) {
		enc := newMinimalEncoder()
		clone := enc.Clone()
		assert.NotSame(t, enc, clone)
	})
}
