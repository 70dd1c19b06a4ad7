// Package config handles loading and managing ashaboard configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashaboard/ashaboard/pkg/ranking"
)

// Seed kinds.
const (
	SeedNone     = "none"
	SeedFile     = "file"
	SeedS3       = "s3"
	SeedGCS      = "gcs"
	SeedPostgres = "postgres"
)

// Config is the top-level configuration for ashaboard.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Ranking RankingConfig `yaml:"ranking"`
	Seed    SeedConfig    `yaml:"seed"`
	Cache   CacheConfig   `yaml:"cache"`
	Sensors SensorsConfig `yaml:"sensors"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	APIKey      string   `yaml:"api_key"` // empty disables the write guard
	CORSOrigins []string `yaml:"cors_origins"`
}

// RankingConfig controls the village risk ranking.
type RankingConfig struct {
	Weights ranking.Weights `yaml:"weights"`
}

// SeedConfig selects the read-only source the registry is seeded from.
type SeedConfig struct {
	Kind        string `yaml:"kind"`
	Path        string `yaml:"path"` // file kind
	Bucket      string `yaml:"bucket"`
	Key         string `yaml:"key"` // object key for s3/gcs
	Region      string `yaml:"region"`
	Endpoint    string `yaml:"endpoint"` // S3-compatible endpoint, e.g. MinIO
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	DatabaseURL string `yaml:"database_url"`
}

// CacheConfig controls leaderboard memoization.
type CacheConfig struct {
	Size int `yaml:"size"` // number of leaderboard versions kept
}

// SensorsConfig controls the MQTT water telemetry subscriber.
// An empty broker disables it.
type SensorsConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"*"},
		},
		Ranking: RankingConfig{
			Weights: ranking.DefaultWeights(),
		},
		Seed: SeedConfig{
			Kind: SeedNone,
		},
		Cache: CacheConfig{
			Size: 16,
		},
		Sensors: SensorsConfig{
			Topic:    "ashaboard/sources/+/readings",
			ClientID: "ashaboardd",
		},
	}
}

// Load reads a config file from the given path.
// If the file does not exist, it returns the default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overlays ASHABOARD_* environment variables on top of the loaded
// file. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Server.Addr, "ASHABOARD_ADDR")
	set(&c.Server.APIKey, "ASHABOARD_API_KEY")
	if v := getenv("ASHABOARD_CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	set(&c.Seed.Kind, "ASHABOARD_SEED_KIND")
	set(&c.Seed.Path, "ASHABOARD_SEED_PATH")
	set(&c.Seed.Bucket, "ASHABOARD_SEED_BUCKET")
	set(&c.Seed.Key, "ASHABOARD_SEED_KEY")
	set(&c.Seed.Region, "ASHABOARD_SEED_REGION")
	set(&c.Seed.Endpoint, "ASHABOARD_SEED_ENDPOINT")
	set(&c.Seed.AccessKey, "ASHABOARD_SEED_ACCESS_KEY")
	set(&c.Seed.SecretKey, "ASHABOARD_SEED_SECRET_KEY")
	set(&c.Seed.DatabaseURL, "DATABASE_URL")

	if v := getenv("ASHABOARD_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Size = n
		}
	}

	set(&c.Sensors.Broker, "ASHABOARD_MQTT_BROKER")
	set(&c.Sensors.Topic, "ASHABOARD_MQTT_TOPIC")
	set(&c.Sensors.ClientID, "ASHABOARD_MQTT_CLIENT_ID")
}

// Validate checks that the configuration can be used to start the service.
func (c *Config) Validate() error {
	var errs []error

	switch c.Seed.Kind {
	case SeedNone:
	case SeedFile:
		if c.Seed.Path == "" {
			errs = append(errs, errors.New("seed.path is required for file seeds"))
		}
	case SeedS3, SeedGCS:
		if c.Seed.Bucket == "" || c.Seed.Key == "" {
			errs = append(errs, fmt.Errorf("seed.bucket and seed.key are required for %s seeds", c.Seed.Kind))
		}
	case SeedPostgres:
		if c.Seed.DatabaseURL == "" {
			errs = append(errs, errors.New("seed.database_url is required for postgres seeds"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown seed kind %q", c.Seed.Kind))
	}

	if err := c.Ranking.Weights.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ranking.weights: %w", err))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, fmt.Errorf("cache.size must be positive, got %d", c.Cache.Size))
	}
	if c.Sensors.Broker != "" {
		if c.Sensors.Topic == "" {
			errs = append(errs, errors.New("sensors.topic is required when a broker is set"))
		} else if err := checkTopicPattern(c.Sensors.Topic); err != nil {
			errs = append(errs, fmt.Errorf("sensors.topic: %w", err))
		}
	}

	return errors.Join(errs...)
}

// FindConfigFile looks for .ashaboard/config.yaml in the given directory
// and its parents, returning the path if found, or "" if not.
func FindConfigFile(dir string) string {
	for {
		candidate := filepath.Join(dir, ".ashaboard", "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// checkTopicPattern requires exactly one "+" segment, which carries the
// source id, and no "#" wildcard.
func checkTopicPattern(topic string) error {
	ids := 0
	for _, seg := range strings.Split(topic, "/") {
		switch {
		case seg == "+":
			ids++
		case strings.ContainsAny(seg, "+#"):
			return fmt.Errorf("unsupported wildcard in segment %q", seg)
		}
	}
	if ids != 1 {
		return fmt.Errorf("%q must have exactly one + segment for the source id", topic)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
