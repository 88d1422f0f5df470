package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Marker MarkerConfig `yaml:"marker" mapstructure:"marker"`
	Places PlacesConfig `yaml:"places" mapstructure:"places"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Map    MapConfig    `yaml:"map" mapstructure:"map"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the input datasets and their join keys.
type DataConfig struct {
	BoundaryPath      string `yaml:"boundary_path" mapstructure:"boundary_path"`
	BoundaryKey       string `yaml:"boundary_key" mapstructure:"boundary_key"`
	StateFP           string `yaml:"state_fp" mapstructure:"state_fp"`
	CountyPath        string `yaml:"county_path" mapstructure:"county_path"`
	CountyKey         string `yaml:"county_key" mapstructure:"county_key"`
	CityPath          string `yaml:"city_path" mapstructure:"city_path"`
	CityKey           string `yaml:"city_key" mapstructure:"city_key"`
	ChoroplethCatalog string `yaml:"choropleth_catalog" mapstructure:"choropleth_catalog"`
	MarkerCatalog     string `yaml:"marker_catalog" mapstructure:"marker_catalog"`
}

// MarkerConfig configures the city marker popups.
type MarkerConfig struct {
	NullStatus string `yaml:"null_status" mapstructure:"null_status"`
}

// PlacesConfig selects the city coordinate table.
type PlacesConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // builtin, csv, sqlite, postgres
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CacheConfig configures the dataset cache.
type CacheConfig struct {
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ServerConfig configures the dashboard server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MapConfig holds the initial map viewport and page title.
type MapConfig struct {
	Title     string  `yaml:"title" mapstructure:"title"`
	CenterLat float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon float64 `yaml:"center_lon" mapstructure:"center_lon"`
	Zoom      int     `yaml:"zoom" mapstructure:"zoom"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VASERVICES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.boundary_path", "data/va_county/va.shp")
	v.SetDefault("data.boundary_key", "NAME")
	v.SetDefault("data.state_fp", "")
	v.SetDefault("data.county_path", "data/all_services_binarized.csv")
	v.SetDefault("data.county_key", "County")
	v.SetDefault("data.city_path", "data/va_services.csv")
	v.SetDefault("data.city_key", "city")
	v.SetDefault("data.choropleth_catalog", "")
	v.SetDefault("data.marker_catalog", "")
	v.SetDefault("marker.null_status", "Not Available")
	v.SetDefault("places.driver", "builtin")
	v.SetDefault("places.path", "")
	v.SetDefault("places.database_url", "")
	v.SetDefault("cache.max_entries", 16)
	v.SetDefault("cache.ttl", "0s")
	v.SetDefault("server.port", 8501)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("map.title", "Virginia Services Availability Map")
	v.SetDefault("map.center_lat", 37.5)
	v.SetDefault("map.center_lon", -78.5)
	v.SetDefault("map.zoom", 7)
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

// Validate checks the settings a command mode depends on. Mode is one of
// "serve", "render" or "places".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must be >= 0")
		}
	case "render":
	case "places":
		if c.Places.Driver != "sqlite" && c.Places.Driver != "postgres" {
			errs = append(errs, "places.driver must be sqlite or postgres to import")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Data.BoundaryPath == "" {
		errs = append(errs, "data.boundary_path is required")
	}
	if c.Cache.MaxEntries <= 0 {
		errs = append(errs, "cache.max_entries must be > 0")
	}

	switch c.Places.Driver {
	case "builtin":
	case "csv", "sqlite":
		if c.Places.Path == "" {
			errs = append(errs, fmt.Sprintf("places.path is required for driver %q", c.Places.Driver))
		}
	case "postgres":
		if c.Places.DatabaseURL == "" {
			errs = append(errs, "places.database_url is required for driver \"postgres\"")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown places.driver %q", c.Places.Driver))
	}

	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
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
