package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Canvas settings.
	GridSize     int           `mapstructure:"grid_size" yaml:"grid_size"`
	DefaultColor string        `mapstructure:"default_color" yaml:"default_color"`
	Cooldown     time.Duration `mapstructure:"cooldown" yaml:"cooldown"`

	// Identity verification settings. Audience is the client identifier the
	// external provider issued tokens for.
	AuthAudience string `mapstructure:"auth_audience" yaml:"auth_audience"`
	AuthIssuer   string `mapstructure:"auth_issuer" yaml:"auth_issuer"`
	AuthSecret   string `mapstructure:"auth_secret" yaml:"auth_secret"`

	DatabasePath   string   `mapstructure:"database_path" yaml:"database_path"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":3001",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		GridSize:          32,
		DefaultColor:      "#FFFFFF",
		Cooldown:          time.Second,
		DatabasePath:      "pixelcanvas.db",
		AllowedOrigins:    []string{"*"},
		LogLevel:          "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.GridSize != 0 {
		c.GridSize = other.GridSize
	}
	if other.DefaultColor != "" {
		c.DefaultColor = other.DefaultColor
	}
	if other.Cooldown != 0 {
		c.Cooldown = other.Cooldown
	}
	if other.AuthAudience != "" {
		c.AuthAudience = other.AuthAudience
	}
	if other.AuthIssuer != "" {
		c.AuthIssuer = other.AuthIssuer
	}
	if other.AuthSecret != "" {
		c.AuthSecret = other.AuthSecret
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if len(other.AllowedOrigins) != 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
