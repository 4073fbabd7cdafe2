// Package config assembles the service configuration from defaults,
// command-line flags, a .env file and environment variables, in that
// order of increasing priority, and validates the result.
package config

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/patric-chuzhbe/usersvc/internal/models"
)

// Config holds every runtime setting of the service. The DB_* fields are
// only consulted when the relational backend is selected.
type Config struct {
	RunAddr     string `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel    string `env:"LOG_LEVEL" validate:"loglevel"`
	DataBackend string `env:"DATA_BACKEND"`

	DBUser             string `env:"DB_USER"`
	DBPassword         string `env:"DB_PASSWORD"`
	DBServer           string `env:"DB_SERVER"`
	DBPort             int    `env:"DB_PORT"`
	DBName             string `env:"DB_NAME"`
	DBEncrypt          bool   `env:"DB_ENCRYPT"`
	DBTrustCertificate bool   `env:"DB_TRUST_CERTIFICATE"`

	DBPoolMax           int           `env:"DB_POOL_MAX"`
	DBPoolMin           int           `env:"DB_POOL_MIN"`
	DBPoolIdleTimeout   time.Duration `env:"DB_POOL_IDLE_TIMEOUT"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT"`

	MigrationsDir string `env:"MIGRATIONS_DIR" validate:"required"`
}

var defaultConfig = Config{
	RunAddr:             ":3000",
	LogLevel:            "info",
	DataBackend:         "",
	DBServer:            "localhost",
	DBPort:              5432,
	DBPoolMax:           10,
	DBPoolMin:           0,
	DBPoolIdleTimeout:   30 * time.Second,
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "cmd/usersvc/migrations",
}

// StorageType resolves the backend selector once. "memory" (in any case)
// selects the in-memory backend, anything else the relational one.
func (c *Config) StorageType() int {
	if strings.EqualFold(c.DataBackend, "memory") {
		return models.StorageTypeMemory
	}

	return models.StorageTypePostgresql
}

// DatabaseDSN assembles the pgx connection string from the discrete DB_*
// fields. The sslmode is derived from the encryption and certificate-trust
// flags.
func (c *Config) DatabaseDSN() string {
	sslMode := "disable"
	if c.DBEncrypt {
		if c.DBTrustCertificate {
			sslMode = "require"
		} else {
			sslMode = "verify-full"
		}
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBServer, c.DBPort),
		Path:     c.DBName,
		RawQuery: "sslmode=" + sslMode,
	}

	return dsn.String()
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func validate(values *Config) error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	return validate.Struct(values)
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

// InitOption configures New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command-line flag parsing; tests use it to
// keep the global flag set untouched.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New builds the configuration. A missing .env file is not an error.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		flag.StringVar(&values.RunAddr, "a", values.RunAddr, "address and port to listen on")
		flag.StringVar(&values.LogLevel, "l", values.LogLevel, "logger level")
		flag.StringVar(&values.DataBackend, "s", values.DataBackend, "data backend (`memory` or empty for PostgreSQL)")
		flag.StringVar(&values.MigrationsDir, "m", values.MigrationsDir, "directory with goose migration files")
		flag.Parse()
	}

	if err := env.Parse(values); err != nil {
		return nil, err
	}

	if err := validate(values); err != nil {
		return nil, err
	}

	return values, nil
}
