package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sessionsledger/crypto"

	"github.com/BurntSushi/toml"
)

type OracleConfig struct {
	Endpoint      string `toml:"Endpoint"`
	Pair          string `toml:"Pair"`
	MaxAgeSeconds int64  `toml:"MaxAgeSeconds"`
}

type AuthConfig struct {
	JWTSecret string `toml:"JWTSecret"`
	Issuer    string `toml:"Issuer"`
	Audience  string `toml:"Audience"`
}

type Config struct {
	RPCAddress   string       `toml:"RPCAddress"`
	DataDir      string       `toml:"DataDir"`
	NetworkName  string       `toml:"NetworkName"`
	Environment  string       `toml:"Environment"`
	LogLevel     string       `toml:"LogLevel"`
	OwnerAddress string       `toml:"OwnerAddress"`
	Oracle       OracleConfig `toml:"Oracle"`
	Auth         AuthConfig   `toml:"Auth"`
}

// Load reads the configuration at path, creating a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "sessions-local"
	}
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8545"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./sessions-data"
	}
	if strings.TrimSpace(cfg.OwnerAddress) == "" {
		return nil, fmt.Errorf("config file %s is missing OwnerAddress", path)
	}
	if _, err := crypto.DecodeAddress(cfg.OwnerAddress); err != nil {
		return nil, fmt.Errorf("config file %s has invalid OwnerAddress: %w", path, err)
	}
	if cfg.Oracle.MaxAgeSeconds <= 0 {
		cfg.Oracle.MaxAgeSeconds = 300
	}

	return cfg, nil
}

// Owner decodes the configured admin identity.
func (c *Config) Owner() ([20]byte, error) {
	var owner [20]byte
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(c.OwnerAddress))
	if err != nil {
		return owner, err
	}
	copy(owner[:], decoded.Bytes())
	return owner, nil
}

// createDefault creates and saves a default configuration file. A fresh admin
// key is generated so the file is immediately usable; operators are expected
// to replace OwnerAddress before going anywhere near production.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:   ":8545",
		DataDir:      "./sessions-data",
		NetworkName:  "sessions-local",
		Environment:  "dev",
		LogLevel:     "info",
		OwnerAddress: key.PubKey().Address().String(),
		Oracle: OracleConfig{
			Pair:          "ETH/USD",
			MaxAgeSeconds: 300,
		},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
