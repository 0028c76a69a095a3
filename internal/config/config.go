package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/riskflow/internal/cluster"
	"github.com/Veraticus/riskflow/internal/common"
	"github.com/Veraticus/riskflow/internal/risk"
)

// Viper keys.
const (
	KeyClusters      = "clustering.k"
	KeySeed          = "clustering.seed"
	KeyMaxIter       = "clustering.max_iter"
	KeyNInit         = "clustering.n_init"
	KeyTolerance     = "clustering.tolerance"
	KeyStoragePath   = "storage.path"
	KeyLogLevel      = "logging.level"
	KeyLogFormat     = "logging.format"
	DefaultDBPath    = "~/.config/riskflow/riskflow.db"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// ClusteringConfig holds the k-means settings used for proxy labeling.
type ClusteringConfig struct {
	K         int
	Seed      int64
	MaxIter   int
	NInit     int
	Tolerance float64
}

// Config is the application configuration.
type Config struct {
	StoragePath string
	LogLevel    string
	LogFormat   string
	Clustering  ClusteringConfig
}

// Default returns the built-in configuration.
func Default() *Config {
	c := cluster.DefaultConfig()
	return &Config{
		StoragePath: DefaultDBPath,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
		Clustering: ClusteringConfig{
			K:         c.K,
			Seed:      c.Seed,
			MaxIter:   c.MaxIter,
			NInit:     c.NInit,
			Tolerance: c.Tolerance,
		},
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyClusters, d.Clustering.K)
	v.SetDefault(KeySeed, d.Clustering.Seed)
	v.SetDefault(KeyMaxIter, d.Clustering.MaxIter)
	v.SetDefault(KeyNInit, d.Clustering.NInit)
	v.SetDefault(KeyTolerance, d.Clustering.Tolerance)
	v.SetDefault(KeyStoragePath, d.StoragePath)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
}

// FromViper reads the configuration from v, falling back to defaults for
// unset keys. Paths are expanded.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := Default()

	if v.IsSet(KeyClusters) {
		cfg.Clustering.K = v.GetInt(KeyClusters)
	}
	if v.IsSet(KeySeed) {
		cfg.Clustering.Seed = v.GetInt64(KeySeed)
	}
	if v.IsSet(KeyMaxIter) {
		cfg.Clustering.MaxIter = v.GetInt(KeyMaxIter)
	}
	if v.IsSet(KeyNInit) {
		cfg.Clustering.NInit = v.GetInt(KeyNInit)
	}
	if v.IsSet(KeyTolerance) {
		cfg.Clustering.Tolerance = v.GetFloat64(KeyTolerance)
	}
	if s := v.GetString(KeyStoragePath); s != "" {
		cfg.StoragePath = s
	}
	if s := v.GetString(KeyLogLevel); s != "" {
		cfg.LogLevel = strings.ToLower(s)
	}
	if s := v.GetString(KeyLogFormat); s != "" {
		cfg.LogFormat = strings.ToLower(s)
	}
	cfg.StoragePath = ExpandPath(cfg.StoragePath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Clustering.K <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, KeyClusters, c.Clustering.K)
	}
	if c.Clustering.MaxIter <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, KeyMaxIter, c.Clustering.MaxIter)
	}
	if c.Clustering.NInit <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", common.ErrInvalidConfig, KeyNInit, c.Clustering.NInit)
	}
	if c.Clustering.Tolerance < 0 {
		return fmt.Errorf("%w: %s must be non-negative, got %g", common.ErrInvalidConfig, KeyTolerance, c.Clustering.Tolerance)
	}
	if strings.TrimSpace(c.StoragePath) == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyStoragePath)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", KeyLogLevel, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: %s must be console or json, got %q", common.ErrInvalidConfig, KeyLogFormat, c.LogFormat)
	}
	return nil
}

// RiskConfig converts the clustering settings for the labeler.
func (c *Config) RiskConfig() risk.Config {
	rc := risk.DefaultConfig()
	rc.Clusters = c.Clustering.K
	rc.Seed = c.Clustering.Seed
	rc.MaxIter = c.Clustering.MaxIter
	rc.NInit = c.Clustering.NInit
	rc.Tolerance = c.Clustering.Tolerance
	return rc
}
