// Package config loads NACP settings from defaults, an optional YAML file,
// a .env file and NACP_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultFile is read from the working directory when no --config is given.
const DefaultFile = "nacp.yaml"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Geo      GeoConfig      `mapstructure:"geo"`
	Email    EmailConfig    `mapstructure:"email"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Survey   SurveyConfig   `mapstructure:"survey"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AdminConfig holds the dashboard credential map. Passwords starting with
// "$2" are bcrypt hashes; anything else is plain text and hashed at startup.
// Usernames are case-insensitive. Filled by Load from "admin.credentials"
// so the env var may carry a JSON object.
type AdminConfig struct {
	Credentials map[string]string `mapstructure:"-"`
}

type GeoConfig struct {
	IPInfoURL    string        `mapstructure:"ipinfo_url"`
	NominatimURL string        `mapstructure:"nominatim_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type EmailConfig struct {
	PostmarkToken string `mapstructure:"postmark_token"`
	From          string `mapstructure:"from"`
}

type ArchiveConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type SurveyConfig struct {
	TotalSections int `mapstructure:"total_sections"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("database.path", "nacp.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("admin.credentials", map[string]string{"admin": "admin123"})
	v.SetDefault("geo.ipinfo_url", "https://ipinfo.io")
	v.SetDefault("geo.nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geo.user_agent", "NACPCensus/1.0")
	v.SetDefault("geo.cache_ttl", time.Hour)
	v.SetDefault("email.postmark_token", "")
	v.SetDefault("email.from", "")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.access_key", "")
	v.SetDefault("archive.secret_key", "")
	v.SetDefault("archive.prefix", "exports")
	v.SetDefault("survey.total_sections", 5)
}

// Load builds the configuration. path names a YAML file; when empty,
// nacp.yaml is used if present. NACP_ADMIN_CREDENTIALS may hold a JSON
// object of username to password.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("NACP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Admin.Credentials = v.GetStringMapString("admin.credentials")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if len(c.Admin.Credentials) == 0 {
		errs = append(errs, errors.New("admin.credentials must list at least one user"))
	}
	for user, pass := range c.Admin.Credentials {
		if user == "" || pass == "" {
			errs = append(errs, errors.New("admin.credentials entries need a username and password"))
			break
		}
	}
	if c.Survey.TotalSections <= 0 {
		errs = append(errs, fmt.Errorf("survey.total_sections must be positive, got %d", c.Survey.TotalSections))
	}
	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// ArchiveEnabled reports whether exports can be uploaded to object storage.
func (c *Config) ArchiveEnabled() bool {
	return c.Archive.Bucket != "" && c.Archive.AccessKey != "" && c.Archive.SecretKey != ""
}
