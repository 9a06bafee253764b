package model

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/architeacher/logistics/pkg/logger"
)

func TestNewBuilder_DefaultLoggerIsLive(t *testing.T) {
	t.Parallel()

	b := NewBuilder(ConjunctionAnd)
	require.NotEqual(t, zerolog.Disabled, b.logger.GetLevel())

	b = NewBuilder(ConjunctionAnd, WithLogger(logger.NewTestLogger()))
	require.Equal(t, zerolog.Disabled, b.logger.GetLevel())
}
