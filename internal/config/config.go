// Package config reads donorhub settings from defaults, an optional YAML
// file, a .env file and DONORHUB_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DONORHUB_SERVER_ADDR.
const EnvPrefix = "DONORHUB"

// Config is the resolved application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Relay    RelayConfig
	AMQP     AMQPConfig
	Ingest   IngestConfig
	Log      LogConfig
	Catalog  CatalogConfig
}

type ServerConfig struct {
	Addr string
}

// DatabaseConfig selects the store. Driver is "sqlite" or "postgres".
type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

type AuthConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// RelayConfig points at the form endpoint donation appointments are
// forwarded to. An empty URL disables relaying.
type RelayConfig struct {
	URL     string
	Timeout time.Duration
}

// AMQPConfig enables domain event publishing when URL is set.
type AMQPConfig struct {
	URL      string
	Exchange string
}

type IngestConfig struct {
	Enabled bool
}

type LogConfig struct {
	Level  string
	Format string
}

type CatalogConfig struct {
	Seed     bool
	Timezone string
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "donorhub.db")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "donorhub")
	v.SetDefault("auth.ttl", "24h")
	v.SetDefault("relay.url", "")
	v.SetDefault("relay.timeout", "10s")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "donorhub.events")
	v.SetDefault("ingest.enabled", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("catalog.seed", true)
	v.SetDefault("catalog.timezone", "Local")
}

// Init prepares v for Load: defaults, environment binding and the config
// file. A missing .env or config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("donorhub")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// Load resolves v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Server: ServerConfig{Addr: v.GetString("server.addr")},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			Path:   v.GetString("database.path"),
			URL:    v.GetString("database.url"),
		},
		Auth: AuthConfig{
			Secret: v.GetString("auth.secret"),
			Issuer: v.GetString("auth.issuer"),
			TTL:    v.GetDuration("auth.ttl"),
		},
		Relay: RelayConfig{
			URL:     v.GetString("relay.url"),
			Timeout: v.GetDuration("relay.timeout"),
		},
		AMQP: AMQPConfig{
			URL:      v.GetString("amqp.url"),
			Exchange: v.GetString("amqp.exchange"),
		},
		Ingest:  IngestConfig{Enabled: v.GetBool("ingest.enabled")},
		Log:     LogConfig{Level: v.GetString("log.level"), Format: v.GetString("log.format")},
		Catalog: CatalogConfig{Seed: v.GetBool("catalog.seed"), Timezone: v.GetString("catalog.timezone")},
	}
	return cfg, cfg.Validate()
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for postgres")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Relay.Timeout <= 0 {
		return errors.New("relay.timeout must be positive")
	}
	if _, err := time.LoadLocation(c.Catalog.Timezone); err != nil {
		return fmt.Errorf("catalog.timezone: %w", err)
	}
	return nil
}

// Location returns the zone camp dates are interpreted in.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Catalog.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
