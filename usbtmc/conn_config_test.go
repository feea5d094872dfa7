package usbtmc

import (
	"testing"
	"time"

	"github.com/arloliu/go-scpi/framer"
	"github.com/arloliu/go-scpi/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConnectionConfig_Defaults(t *testing.T) {
	cfg, err := NewConnectionConfig("/dev/usbtmc0")
	require.NoError(t, err)

	assert.Equal(t, "/dev/usbtmc0", cfg.ConnectionString())
	assert.Equal(t, "/dev/usbtmc0", cfg.DevicePath())
	assert.Equal(t, framer.DefaultTimeout, cfg.Timeout())
	assert.Equal(t, framer.DefaultTransferSize, cfg.TransferSize())
	assert.Equal(t, framer.DefaultBufferSize, cfg.StagingBufferSize())
	assert.Equal(t, byte('\n'), cfg.Terminator())
	assert.False(t, cfg.FixBuggyDriver())
	assert.Equal(t, framer.DefaultQuirkRetryLimit, cfg.QuirkRetryLimit())
	assert.Equal(t, framer.DefaultWriteRetryLimit, cfg.WriteRetryLimit())
	assert.NotNil(t, cfg.GetLogger())
}

func TestNewConnectionConfig_WithOptions(t *testing.T) {
	l := logger.NewMockLogger()

	cfg, err := NewConnectionConfig("/dev/usbtmc3:512",
		WithTimeout(2*time.Second),
		WithStagingBufferSize(8192),
		WithTerminator('\r'),
		WithFixBuggyDriver(true),
		WithQuirkRetryLimit(10),
		WithWriteRetryLimit(5),
		WithLogger(l),
	)
	require.NoError(t, err)

	assert.Equal(t, "/dev/usbtmc3", cfg.DevicePath())
	assert.Equal(t, 2*time.Second, cfg.Timeout())
	assert.Equal(t, 512, cfg.TransferSize())
	assert.Equal(t, 8192, cfg.StagingBufferSize())
	assert.Equal(t, byte('\r'), cfg.Terminator())
	assert.True(t, cfg.FixBuggyDriver())
	assert.Equal(t, 10, cfg.QuirkRetryLimit())
	assert.Equal(t, 5, cfg.WriteRetryLimit())
	assert.Same(t, l, cfg.GetLogger())
}

func TestNewConnectionConfig_OptionOverridesConnectionString(t *testing.T) {
	cfg, err := NewConnectionConfig("/dev/usbtmc0:512", WithTransferSize(128))
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.TransferSize())
}

func TestNewConnectionConfig_BufferGrowsWithTransferSize(t *testing.T) {
	cfg, err := NewConnectionConfig("/dev/usbtmc0:65536")
	require.NoError(t, err)
	assert.Equal(t, 65536, cfg.StagingBufferSize())
}

func TestNewConnectionConfig_ExplicitBufferTooSmall(t *testing.T) {
	_, err := NewConnectionConfig("/dev/usbtmc0:2048", WithStagingBufferSize(1024))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds buffer size")
}

func TestNewConnectionConfig_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		opt    ConnOption
		errMsg string
	}{
		{"timeout", WithTimeout(0), "timeout"},
		{"timeout below driver minimum", WithTimeout(50 * time.Millisecond), "timeout"},
		{"transfer size", WithTransferSize(0), "transfer size"},
		{"buffer size", WithStagingBufferSize(framer.MaxBufferSize + 1), "staging buffer size"},
		{"terminator", WithTerminator(';'), "terminator"},
		{"quirk retry", WithQuirkRetryLimit(-1), "quirk retry limit"},
		{"write retry", WithWriteRetryLimit(framer.MaxWriteRetryLimit + 1), "write retry limit"},
		{"opener", WithDeviceOpener(nil), "opener"},
		{"logger", WithLogger(nil), "logger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnectionConfig("/dev/usbtmc0", tt.opt)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewConnectionConfig_InvalidConnectionString(t *testing.T) {
	_, err := NewConnectionConfig("/dev/usbtmc0:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transfer size")

	_, err = NewConnectionConfig("/dev/usbtmc0:99999999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}
