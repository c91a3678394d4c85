// Package config handles loading and parsing application configuration.
//
// Sources, lowest priority first:
//  1. An optional .env file in the working directory (loaded with godotenv;
//     never overrides variables that are already set)
//  2. A YAML file named by CONFIG_PATH or --config
//  3. Environment variables, via the env:"..." tags below
//
// With no YAML file at all the configuration is read from the environment
// alone, which is how containers usually run the service.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Placeholders substituted into Mongo.URL by URI.
const (
	UserPlaceholder     = "<user_name>"
	PasswordPlaceholder = "<db_password>"
)

// Config is the root configuration structure.
// Every field maps to a key in the YAML file AND can be overridden
// by the corresponding environment variable (env:"...").
//
// env-required:"true" means the app refuses to start if that value is
// missing.
type Config struct {
	// Env controls log format and verbosity: "dev", "staging" or "prod".
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	HTTPServer `yaml:"http_server"`

	Mongo Mongo `yaml:"mongo"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	// Addr is the TCP address the server listens on, e.g. "localhost:8082".
	Addr string `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8082"`
}

// Mongo holds the connection settings of the document store.
//
// URL is a connection string template; credentials are kept apart from it
// and interpolated at startup:
//
//	mongodb+srv://<user_name>:<db_password>@cluster0.example.mongodb.net/
type Mongo struct {
	URL      string `yaml:"url"      env:"MONGO_URL" env-required:"true"`
	User     string `yaml:"user"     env:"MONGO_USER"`
	Password string `yaml:"password" env:"MONGO_PASSWORD"`
}

// URI returns URL with the user and password placeholders filled in.
// Values are inserted verbatim; their correctness is only proven by the
// ping at startup.
func (m Mongo) URI() string {
	return strings.NewReplacer(
		UserPlaceholder, m.User,
		PasswordPlaceholder, m.Password,
	).Replace(m.URL)
}

// Load reads the configuration. envFilename and configPath may each be
// empty to skip that source.
func Load(envFilename, configPath string) (*Config, error) {
	if envFilename != "" {
		if err := godotenv.Load(envFilename); err != nil {
			return nil, fmt.Errorf("error loading %s file: %w", envFilename, err)
		}
	}

	var cfg Config

	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("cannot read config from environment: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}

// MustLoad resolves the config sources from the process environment and
// command line, then loads them.
//
// The name "MustLoad" follows a Go convention: functions prefixed with
// "Must" are allowed to exit on failure. If this function returns, the
// config is valid.
func MustLoad() *Config {
	envFilename := ""
	if _, err := os.Stat(".env"); err == nil {
		envFilename = ".env"
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	cfg, err := Load(envFilename, configPath)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
