package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/xtding233/shardcost/internal/pricing"
)

// Config is the process configuration. Game catalogs live in their own YAML tree.
type Config struct {
	HTTPAddr      string        `mapstructure:"http_addr"`
	GRPCAddr      string        `mapstructure:"grpc_addr"`
	CatalogDir    string        `mapstructure:"catalog_dir"` // empty uses the built-in games
	Game          string        `mapstructure:"game"`
	MaxPulls      int           `mapstructure:"max_pulls"`
	LogLevel      string        `mapstructure:"log_level"`
	LogDev        bool          `mapstructure:"log_dev"`
	WatchInterval time.Duration `mapstructure:"watch_interval"`
	SimTrials     int           `mapstructure:"sim_trials"`
	SimSeed       uint64        `mapstructure:"sim_seed"`
	SimCopies     int           `mapstructure:"sim_copies"`
}

const (
	DefaultHTTPAddr      = ":8080"
	DefaultGRPCAddr      = ":9090"
	DefaultGame          = "hsr"
	DefaultMaxPulls      = 180
	DefaultLogLevel      = "info"
	DefaultWatchInterval = 2 * time.Second
	DefaultSimTrials     = 20000
	DefaultSimSeed       = 42
	DefaultSimCopies     = 1

	EnvPrefix = "SHARDCOST"
)

var keys = []string{
	"http_addr", "grpc_addr", "catalog_dir", "game", "max_pulls", "log_level",
	"log_dev", "watch_interval", "sim_trials", "sim_seed", "sim_copies",
}

// New returns a viper instance with defaults and environment binding applied.
// Callers may bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	defaults := map[string]interface{}{
		"http_addr":      DefaultHTTPAddr,
		"grpc_addr":      DefaultGRPCAddr,
		"catalog_dir":    "",
		"game":           DefaultGame,
		"max_pulls":      DefaultMaxPulls,
		"log_level":      DefaultLogLevel,
		"log_dev":        false,
		"watch_interval": DefaultWatchInterval,
		"sim_trials":     DefaultSimTrials,
		"sim_seed":       DefaultSimSeed,
		"sim_copies":     DefaultSimCopies,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the optional config file into v, unmarshals and validates.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, Validate(&cfg)
}

// Validate checks ranges and addresses.
func Validate(cfg *Config) error {
	if cfg.Game == "" {
		return errors.New("game is required")
	}
	if cfg.MaxPulls < 1 || cfg.MaxPulls > pricing.MaxExactPulls {
		return errors.New("invalid max_pulls")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.WatchInterval <= 0 {
		return errors.New("invalid watch_interval")
	}
	if cfg.SimTrials < 1 {
		return errors.New("invalid sim_trials")
	}
	if cfg.SimCopies < 1 {
		return errors.New("invalid sim_copies")
	}
	for name, addr := range map[string]string{"http_addr": cfg.HTTPAddr, "grpc_addr": cfg.GRPCAddr} {
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid %s %q", name, addr)
		}
	}
	return nil
}
