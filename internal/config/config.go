package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jmtruffa/xirr"
)

// Config is the xirrd configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	CORS     CORSConfig     `yaml:"cors"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Solver   SolverConfig   `yaml:"solver"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	Mode            string        `yaml:"mode" default:"release" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type CORSConfig struct {
	AllowedOrigins []string      `yaml:"allowed_origins" default:"[\"*\"]"`
	AllowedMethods []string      `yaml:"allowed_methods" default:"[\"GET\",\"POST\",\"DELETE\",\"OPTIONS\"]"`
	AllowedHeaders []string      `yaml:"allowed_headers" default:"[\"Origin\",\"Content-Type\",\"Accept\"]"`
	MaxAge         time.Duration `yaml:"max_age" default:"12h"`
}

// DatabaseConfig selects where saved cash-flow sets live. An empty Driver
// disables the portfolio endpoints.
type DatabaseConfig struct {
	Driver string `yaml:"driver" default:"sqlite3" validate:"omitempty,oneof=sqlite3 postgres"`
	DSN    string `yaml:"dsn" default:"xirr.db"`
	Seed   string `yaml:"seed"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" default:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json text"`
	Output     string `yaml:"output" default:"stdout" validate:"oneof=stdout stderr file"`
	File       string `yaml:"file" default:"logs/xirrd.log"`
	MaxSize    int    `yaml:"max_size" default:"100"`
	MaxBackups int    `yaml:"max_backups" default:"3"`
	MaxAge     int    `yaml:"max_age" default:"28"`
	Compress   bool   `yaml:"compress"`
}

// SolverConfig holds the defaults applied to requests that do not set them.
type SolverConfig struct {
	Guess               float64 `yaml:"guess" default:"0.1"`
	Tolerance           float64 `yaml:"tolerance" default:"1e-10" validate:"gt=0"`
	NewtonIterations    int     `yaml:"newton_iterations" default:"100" validate:"min=0"`
	BisectionIterations int     `yaml:"bisection_iterations" default:"200" validate:"min=0"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
}

// Options converts the solver section into solver options.
func (s SolverConfig) Options() xirr.Options {
	return xirr.Options{
		Guess:               s.Guess,
		Tolerance:           s.Tolerance,
		NewtonIterations:    s.NewtonIterations,
		BisectionIterations: s.BisectionIterations,
	}
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load builds the configuration from defaults, then the YAML file at path (if
// any), then a .env file and the environment. The result is validated.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// a missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate checks field rules, then the solver options the same way Solve does.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return c.Solver.Options().Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("XIRR_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("XIRR_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("XIRR_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("XIRR_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("XIRR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("XIRR_CORS_ORIGINS"); v != "" {
		c.CORS.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("XIRR_DB_DRIVER"); ok {
		c.Database.Driver = v
	}
	if v := os.Getenv("XIRR_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("XIRR_GUESS"); v != "" {
		guess, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("XIRR_GUESS: %w", err)
		}
		c.Solver.Guess = guess
	}

	// Same variables the bond service uses for its Postgres connection.
	if c.Database.Driver == "postgres" && os.Getenv("XIRR_DB_DSN") == "" {
		if dsn, ok := postgresDSNFromEnv(); ok {
			c.Database.DSN = dsn
		}
	}
	return nil
}

func postgresDSNFromEnv() (string, bool) {
	dbUser := os.Getenv("POSTGRES_USER")
	dbPassword := os.Getenv("POSTGRES_PASSWORD")
	dbHost := os.Getenv("POSTGRES_HOST")
	dbPort := os.Getenv("POSTGRES_PORT")
	dbName := os.Getenv("POSTGRES_DB")

	if dbUser == "" || dbPassword == "" || dbHost == "" || dbPort == "" || dbName == "" {
		return "", false
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName), true
}
