package logging

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevels(t *testing.T) {
	cases := []struct {
		verbose, quiet bool
		want           zapcore.Level
	}{
		{false, false, zapcore.InfoLevel},
		{true, false, zapcore.DebugLevel},
		{false, true, zapcore.WarnLevel},
		{true, true, zapcore.DebugLevel},
	}
	for _, tc := range cases {
		logger, _, err := New(tc.verbose, tc.quiet)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tc.want))
		if tc.want > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(tc.want-1))
		}
	}
}

func TestRunIDIsUUID(t *testing.T) {
	_, id, err := New(false, true)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}
