package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// Config carries the lend service settings. Addresses are 20-byte hex
// strings; EscrowAddress custodies collateral and FeeRecipient collects
// protocol fees.
type Config struct {
	RPCAddress        string `toml:"RPCAddress"`
	DataDir           string `toml:"DataDir"`
	Env               string `toml:"Env"`
	EscrowAddress     string `toml:"EscrowAddress"`
	FeeRecipient      string `toml:"FeeRecipient"`
	ProxyFactory      string `toml:"ProxyFactory"`
	ProxyInitCodeHash string `toml:"ProxyInitCodeHash"`
}

// Load reads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the address-typed fields parse.
func (c *Config) Validate() error {
	for name, value := range map[string]string{
		"EscrowAddress": c.EscrowAddress,
		"FeeRecipient":  c.FeeRecipient,
	} {
		if !common.IsHexAddress(value) {
			return fmt.Errorf("config: %s must be a 20-byte hex address (got %q)", name, value)
		}
	}
	if c.ProxyFactory != "" && !common.IsHexAddress(c.ProxyFactory) {
		return fmt.Errorf("config: ProxyFactory must be a 20-byte hex address (got %q)", c.ProxyFactory)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./lendbook-data"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:    "127.0.0.1:8645",
		DataDir:       "./lendbook-data",
		Env:           "dev",
		EscrowAddress: "0x0000000000000000000000000000000000001001",
		FeeRecipient:  "0x0000000000000000000000000000000000001002",
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
