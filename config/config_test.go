package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"TCAGo/config"
	"TCAGo/global"
)

func TestNewAppliesDefaults(t *testing.T) {
	cfg, err := config.New[config.Config]()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.HTTPPort)
	require.Equal(t, "127.0.0.1", cfg.BindAddr)
	require.Equal(t, global.MailboxDepth, cfg.MailboxDepth)
	require.Equal(t, ".", cfg.CallLogDir)
	require.False(t, cfg.CallLogOff)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("http_port", "not-a-port")
	_, err := config.Load()
	require.Error(t, err)
	var se *global.SystemError
	require.ErrorAs(t, err, &se)
	require.Equal(t, global.ECConfiguration, se.Code)
}
