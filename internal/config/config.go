package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Boundary   BoundaryConfig   `yaml:"boundary" mapstructure:"boundary"`
	Query      QueryConfig      `yaml:"query" mapstructure:"query"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Precompute PrecomputeConfig `yaml:"precompute" mapstructure:"precompute"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// BoundaryConfig configures the state boundary source.
type BoundaryConfig struct {
	// URL is the feature-service layer that serves state polygons.
	URL string `yaml:"url" mapstructure:"url"`
	// TimeoutSecs is the request timeout for the boundary fetch. The
	// boundary payload is much larger than a count query, so this runs
	// longer than query.timeout_secs.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// SimplifyToleranceDeg is the maxAllowableOffset passed to the
	// boundary service. Generalized outlines are sufficient.
	SimplifyToleranceDeg float64 `yaml:"simplify_tolerance_deg" mapstructure:"simplify_tolerance_deg"`
	// ShapefilePath, when set, loads boundaries from a local TIGER/Line
	// states shapefile instead of the network service.
	ShapefilePath string `yaml:"shapefile_path" mapstructure:"shapefile_path"`
}

// QueryConfig configures per-state intersection count queries.
type QueryConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// Concurrency bounds outstanding requests against one target service.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
	// BufferKm shrinks each state polygon inward before querying, to
	// exclude sliver intersections along shared borders. Zero disables.
	BufferKm  float64 `yaml:"buffer_km" mapstructure:"buffer_km"`
	UserAgent string  `yaml:"user_agent" mapstructure:"user_agent"`
	// RatePerHost limits requests per second against any single host.
	RatePerHost float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"`
}

// StoreConfig configures the catalog / coverage database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// PrecomputeConfig configures the offline coverage precomputation tool.
type PrecomputeConfig struct {
	// DatasetConcurrency bounds how many datasets run at once. Each
	// dataset fans out its own region queries, so total outstanding
	// connections are dataset_concurrency * region_concurrency.
	DatasetConcurrency int `yaml:"dataset_concurrency" mapstructure:"dataset_concurrency"`
	RegionConcurrency  int `yaml:"region_concurrency" mapstructure:"region_concurrency"`
	RetryAttempts      int `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelayMs       int `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
}

// ServerConfig configures the coverage HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BoundaryTimeout returns the boundary fetch timeout as a duration.
func (c BoundaryConfig) BoundaryTimeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// QueryTimeout returns the count-query timeout as a duration.
func (c QueryConfig) QueryTimeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RetryDelay returns the precompute retry base delay as a duration.
func (c PrecomputeConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("COVERAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("boundary.url", "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/State_County/MapServer/0")
	v.SetDefault("boundary.timeout_secs", 60)
	v.SetDefault("boundary.simplify_tolerance_deg", 0.01)
	v.SetDefault("query.timeout_secs", 20)
	v.SetDefault("query.concurrency", 4)
	v.SetDefault("query.buffer_km", 2.0)
	v.SetDefault("query.user_agent", "coverage-cli/1.0")
	v.SetDefault("query.rate_per_host", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "coverage.db")
	v.SetDefault("precompute.dataset_concurrency", 2)
	v.SetDefault("precompute.region_concurrency", 4)
	v.SetDefault("precompute.retry_attempts", 3)
	v.SetDefault("precompute.retry_delay_ms", 1000)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
