package mememiner

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/memeplaza/meme-mining-server/mememiner/database"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log     LogConfig         `toml:"log"`
	Server  ServerConfig      `toml:"server"`
	DB      database.DBConfig `toml:"db"`
	OpenSea OpenSeaConfig     `toml:"opensea"`
	Spaces  SpacesConfig      `toml:"spaces"`
}

type ServerConfig struct {
	Addr           string `toml:"addr"`
	AllowedOrigins string `toml:"allowed_origins"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

// OpenSeaConfig points the ownership adapter at the three tracked collections.
type OpenSeaConfig struct {
	BaseURL       string `toml:"base_url"`
	APIKey        string `toml:"api_key"`
	MinerContract string `toml:"miner_contract"`
	PassContract  string `toml:"pass_contract"`
	MemeContract  string `toml:"meme_contract"`
}

type SpacesConfig struct {
	Key        string `toml:"key"`
	Secret     string `toml:"secret"`
	Region     string `toml:"region"`
	Bucket     string `toml:"bucket"`
	AvatarRoot string `toml:"avatar_root"`
}
