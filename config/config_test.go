package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8645", cfg.RPCAddress)
	require.Equal(t, "./lendbook-data", cfg.DataDir)
	require.Equal(t, "dev", cfg.Env)
	require.NoError(t, cfg.Validate())

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be written")
}

func TestLoadParsesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `RPCAddress = "0.0.0.0:9000"
DataDir = ""
Env = "prod"
EscrowAddress = "0x0000000000000000000000000000000000001001"
FeeRecipient = "0x0000000000000000000000000000000000001002"
ProxyFactory = "0x00000000000000000000000000000000000000f1"
ProxyInitCodeHash = "0x69b3e2b7a11cf89291cbe7e68eb3d74e0d851ff6f9b6e0cd0a233e4786a35d09"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.RPCAddress)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "./lendbook-data", cfg.DataDir, "empty DataDir should fall back to the default")
	require.Equal(t, "0x00000000000000000000000000000000000000f1", cfg.ProxyFactory)
}

func TestLoadRejectsBadAddresses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `EscrowAddress = "not-an-address"
FeeRecipient = "0x0000000000000000000000000000000000001002"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "EscrowAddress")
}

func TestValidateOptionalProxyFactory(t *testing.T) {
	cfg := &Config{
		EscrowAddress: "0x0000000000000000000000000000000000001001",
		FeeRecipient:  "0x0000000000000000000000000000000000001002",
	}
	require.NoError(t, cfg.Validate(), "empty proxy factory is allowed")

	cfg.ProxyFactory = "garbage"
	require.Error(t, cfg.Validate())
}
