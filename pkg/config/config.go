package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Index   IndexConfig   `yaml:"index"`
	Ranking RankingConfig `yaml:"ranking"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
}

type IndexConfig struct {
	Fanout int `yaml:"fanout"` // B-tree fan-out, even and > 2
}

type RankingConfig struct {
	Workers         int    `yaml:"workers"`          // NaiveScan workers; 1 scans sequentially
	DefaultStrategy string `yaml:"default_strategy"` // run1 / run2 or a strategy name
	DefaultK        int    `yaml:"default_k"`
}

type StorageConfig struct {
	Path string `yaml:"path"` // SQLite run history; empty disables archiving
}

type ServerConfig struct {
	Addr  string `yaml:"addr"`  // HTTP Listen Address (e.g. :8080)
	Table string `yaml:"table"` // CSV table served by cmd/server
}

func defaults() *Config {
	return &Config{
		Index:   IndexConfig{Fanout: 4},
		Ranking: RankingConfig{Workers: 1, DefaultStrategy: "threshold", DefaultK: 10},
		Server:  ServerConfig{Addr: ":8080"},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath == "" {
		for _, p := range []string{"configs/rankdb.yaml", "rankdb.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		return cfg, nil // no file found: use defaults
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults replaces out-of-range values with the built-in ones.
func applyDefaults(cfg *Config) {
	if cfg.Index.Fanout <= 2 || cfg.Index.Fanout%2 != 0 {
		cfg.Index.Fanout = 4
	}
	if cfg.Ranking.Workers <= 0 {
		cfg.Ranking.Workers = 1
	}
	if cfg.Ranking.DefaultStrategy == "" {
		cfg.Ranking.DefaultStrategy = "threshold"
	}
	if cfg.Ranking.DefaultK <= 0 {
		cfg.Ranking.DefaultK = 10
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}
