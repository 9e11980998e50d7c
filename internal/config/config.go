// Package config handles loading and parsing application configuration.
// It reads values from three sources (later sources win):
//  1. A .env file in the working directory, if one exists
//  2. An optional YAML file: CONFIG_PATH=/path/to/config.yaml or --config=/path/to/config.yaml
//  3. Environment variables (MONGO_URI, PORT, ...)
//
// Without a YAML file the service runs purely from the environment, which
// is how it is usually deployed.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Storage drivers understood by the bootstrap.
const (
	DriverMongoDB = "mongodb"
	DriverSQLite  = "sqlite"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	HTTPServer HTTPServer `yaml:"http_server"`
	Storage    Storage    `yaml:"storage"`
}

// HTTPServer holds settings specific to the HTTP server.
// Nested under http_server: in the YAML file.
type HTTPServer struct {
	// Host is empty by default so the server listens on every interface.
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT" env-default:"3000"`

	// StaticDir is served at "/" for any path no other route claims.
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR" env-default:"public"`
}

// Addr is the TCP address the server listens on, e.g. ":3000".
func (h HTTPServer) Addr() string {
	return net.JoinHostPort(h.Host, strconv.Itoa(h.Port))
}

// Storage selects and configures the persistence backend.
type Storage struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"mongodb"`

	// MongoURI is required when Driver is "mongodb". The format is left
	// to the driver.
	MongoURI      string `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"test"`

	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"storage/students.db"`
}

// Load reads the configuration. An empty path skips the YAML file and
// reads only the environment.
func Load(path string) (*Config, error) {
	// A missing .env file is the normal case in containers.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case DriverMongoDB:
		if c.Storage.MongoURI == "" {
			return errors.New("MONGO_URI is not set")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("SQLITE_PATH is not set")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.HTTPServer.Port < 0 || c.HTTPServer.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.HTTPServer.Port)
	}
	return nil
}

// MustLoad reads, validates, and returns the application config.
//
// Functions prefixed with "Must" are allowed to exit on failure: if this
// returns, the config is valid.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err.Error())
	}

	return cfg
}
