package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/architeacher/logistics/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		level    string
		expected zerolog.Level
	}{
		{name: "debug", level: logger.LogLevelDebug, expected: zerolog.DebugLevel},
		{name: "warning alias", level: logger.LogLevelWarning, expected: zerolog.WarnLevel},
		{name: "mixed case with spaces", level: "  ERROR ", expected: zerolog.ErrorLevel},
		{name: "unknown defaults to info", level: "verbose", expected: zerolog.InfoLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, logger.ParseLevel(tc.level))
		})
	}
}

func TestComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewBufferedTestLogger(&buf).Component("predicate-builder")

	log.Info().Msg("term recorded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "predicate-builder", entry["component"])
}

func TestDefault(t *testing.T) {
	t.Parallel()

	log := logger.Default().Component("predicate-builder")

	require.NotEqual(t, zerolog.Disabled, log.GetLevel())
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		ctx      func() context.Context
		field    string
		expected any
	}{
		{
			name: "adds request ID",
			ctx: func() context.Context {
				return context.WithValue(context.Background(), logger.ContextKeyRequestID, "req-123")
			},
			field:    "request_id",
			expected: "req-123",
		},
		{
			name: "adds company ID",
			ctx: func() context.Context {
				return context.WithValue(context.Background(), logger.ContextKeyCompanyID, "company-7")
			},
			field:    "company_id",
			expected: "company-7",
		},
		{
			name: "skips empty correlation ID",
			ctx: func() context.Context {
				return context.WithValue(context.Background(), logger.ContextKeyCorrelationID, "")
			},
			field:    "correlation_id",
			expected: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			log := logger.NewBufferedTestLogger(&buf)

			ctxLogger := log.WithContext(tc.ctx())
			ctxLogger.Info().Msg("test message")

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			require.Equal(t, tc.expected, entry[tc.field])
		})
	}
}
