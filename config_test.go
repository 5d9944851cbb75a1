package aioblkcopy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigValidateRejectsBadBlockSize(t *testing.T) {
	cfg := Config{BlockSize: 100, MaxQueueSize: 4}
	err := cfg.Validate()
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, CodeInvalidConfig, e.Code)
}

func TestConfigValidateRejectsNonMultipleOf512(t *testing.T) {
	cfg := Config{BlockSize: 1000, MaxQueueSize: 4}
	require.Error(t, cfg.Validate())
}

func TestConfigValidateRejectsBadQueueSize(t *testing.T) {
	cfg := Config{BlockSize: 4096, MaxQueueSize: 33}
	require.Error(t, cfg.Validate())

	cfg.MaxQueueSize = 0
	require.Error(t, cfg.Validate())
}

func TestConfigValidateAcceptsDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.NoError(t, cfg.Validate())
}

func TestConfigWithDefaultsFillsZeroFields(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.NotZero(t, cfg.BlockSize)
	require.NotZero(t, cfg.MaxQueueSize)
	require.NotZero(t, cfg.PollInterval)
}
