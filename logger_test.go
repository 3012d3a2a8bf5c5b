package datatables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{level: "", expected: zapcore.InfoLevel},
		{level: "debug", expected: zapcore.DebugLevel},
		{level: "warn", expected: zapcore.WarnLevel},
		{level: "error", expected: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			logger, err := NewLogger(tt.level)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.expected))
			assert.False(t, logger.Core().Enabled(tt.expected-1))
			assert.Equal(t, "datatables", logger.Name())
		})
	}

	_, err := NewLogger("loud")
	assert.Error(t, err)
}
