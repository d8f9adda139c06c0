package config

import (
	"io"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates and describes the input datasets.
type DataConfig struct {
	Dir                string `yaml:"dir" mapstructure:"dir"`
	RoadsFile          string `yaml:"roads_file" mapstructure:"roads_file"`
	SettlementsFile    string `yaml:"settlements_file" mapstructure:"settlements_file"`
	PortsFile          string `yaml:"ports_file" mapstructure:"ports_file"`
	Delimiter          string `yaml:"delimiter" mapstructure:"delimiter"`
	CSVEncoding        string `yaml:"csv_encoding" mapstructure:"csv_encoding"`
	ShapefileEncoding  string `yaml:"shapefile_encoding" mapstructure:"shapefile_encoding"`
	CRS                string `yaml:"crs" mapstructure:"crs"`
	RoadClasses        []int  `yaml:"road_classes" mapstructure:"road_classes"`
	LargeSettlementMin int64  `yaml:"large_settlement_min" mapstructure:"large_settlement_min"`
}

// DashboardConfig configures the two dashboard sections.
type DashboardConfig struct {
	Roads       SliderConfig `yaml:"roads" mapstructure:"roads"`
	Ports       SliderConfig `yaml:"ports" mapstructure:"ports"`
	DefaultZoom float64      `yaml:"default_zoom" mapstructure:"default_zoom"`
	MapStyle    string       `yaml:"map_style" mapstructure:"map_style"`
}

// SliderConfig describes the distance control of one section, in meters.
type SliderConfig struct {
	Min     float64 `yaml:"min" mapstructure:"min"`
	Max     float64 `yaml:"max" mapstructure:"max"`
	Step    float64 `yaml:"step" mapstructure:"step"`
	Default float64 `yaml:"default" mapstructure:"default"`
}

// ServerConfig configures the dashboard HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CorsOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	// .env is optional; values already in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BUFFERDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", ".")
	v.SetDefault("data.roads_file", "ROADS.shp")
	v.SetDefault("data.settlements_file", "naselja.csv")
	v.SetDefault("data.ports_file", "m_luke.csv")
	v.SetDefault("data.delimiter", ";")
	v.SetDefault("data.csv_encoding", "utf-8")
	v.SetDefault("data.shapefile_encoding", "windows-1252")
	v.SetDefault("data.crs", "")
	v.SetDefault("data.road_classes", []int{1, 3})
	v.SetDefault("data.large_settlement_min", 10000)
	v.SetDefault("dashboard.roads.min", 0)
	v.SetDefault("dashboard.roads.max", 10000)
	v.SetDefault("dashboard.roads.step", 100)
	v.SetDefault("dashboard.roads.default", 500)
	v.SetDefault("dashboard.ports.min", 0)
	v.SetDefault("dashboard.ports.max", 50000)
	v.SetDefault("dashboard.ports.step", 1000)
	v.SetDefault("dashboard.ports.default", 20000)
	v.SetDefault("dashboard.default_zoom", 6)
	v.SetDefault("dashboard.map_style", "carto-darkmatter")
	v.SetDefault("server.port", 8050)
	v.SetDefault("server.cors_origins", []string{"*"})
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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise surface as confusing runtime errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return eris.New("config: server.port must be > 0")
	}
	if len([]rune(c.Data.Delimiter)) != 1 {
		return eris.Errorf("config: data.delimiter must be a single character, got %q", c.Data.Delimiter)
	}
	if c.Data.LargeSettlementMin < 0 {
		return eris.New("config: data.large_settlement_min must be non-negative")
	}
	for name, s := range map[string]SliderConfig{"roads": c.Dashboard.Roads, "ports": c.Dashboard.Ports} {
		if s.Min < 0 || s.Max < s.Min {
			return eris.Errorf("config: dashboard.%s range [%g, %g] is invalid", name, s.Min, s.Max)
		}
		if s.Default < s.Min || s.Default > s.Max {
			return eris.Errorf("config: dashboard.%s.default %g outside [%g, %g]", name, s.Default, s.Min, s.Max)
		}
	}
	return nil
}

// WriteYAML writes c in the config.yaml layout Load reads.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return eris.Wrap(err, "config: encode yaml")
	}
	return enc.Close()
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
