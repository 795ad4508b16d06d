package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigDanglingEnvFlag(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	// -env with no value must fall back to the default, not index past the args
	os.Args = []string{"ordmarket", "-env"}
	cfg := InitConfig("")
	assert.Nil(t, cfg)
}

func TestLoadYamlConfDefaults(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "conf.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("chain: testnet\n"), 0o644))

	cfg, err := LoadYamlConf(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, "testnet", cfg.Chain)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, int64(5), cfg.Indexer.MaxConcurrent)
	assert.Equal(t, 30, cfg.Indexer.TimeoutSecond)
	assert.Equal(t, 30, cfg.Market.OwnershipTtlSecond)
	assert.Equal(t, 300, cfg.Market.MetadataTtlSecond)
	assert.Equal(t, 86400, cfg.Market.ContentTtlSecond)
	assert.Equal(t, "0.0.0.0:80", cfg.RPCService.Addr)
	assert.Equal(t, "/", cfg.RPCService.Proxy)
	assert.Equal(t, "log", cfg.RPCService.LogPath)
}

func TestLoadYamlConfMissingFile(t *testing.T) {
	_, err := LoadYamlConf(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
