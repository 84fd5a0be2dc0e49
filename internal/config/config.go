package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings"
	"time"
)

// Store drivers selectable through STORE_DRIVER.
const (
	StoreMemory = "memory"
	StoreMySQL  = "mysql"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Database settings are only required when the
// MySQL store is selected.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	LogLevel        string // debug, info, warn or error
	StoreDriver     string // memory or mysql
	SeedFile        string // YAML events/users fixture for the memory store
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	DBAutoMigrate   bool   // create tables on startup
	DBMaxOpenConns  int    // connection pool size
	DBConnLifetime  time.Duration
	JWTSecret       string // secret used to verify access tokens
	DefaultCurrency string // currency applied to tickets stored without one
	SigningKey      string // key for artifact signatures; empty disables signing
	MaxPageSize     int    // upper bound for the limit query parameter
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		StoreDriver:     strings.ToLower(envStr("STORE_DRIVER", StoreMemory)),
		SeedFile:        os.Getenv("STORE_SEED_FILE"),
		DBPass:          os.Getenv("DB_PASS"),
		DBAutoMigrate:   envBool("DB_AUTO_MIGRATE", true),
		DBMaxOpenConns:  envInt("DB_MAX_OPEN_CONNS", 25),
		DBConnLifetime:  envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		JWTSecret:       must("JWT_SECRET"),
		DefaultCurrency: strings.ToUpper(envStr("DEFAULT_CURRENCY", "USD")),
		SigningKey:      os.Getenv("TICKET_SIGNING_KEY"),
		MaxPageSize:     envInt("MAX_PAGE_SIZE", 100),
	}
	switch cfg.StoreDriver {
	case StoreMemory:
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	default:
		log.Fatalf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}
	if len(cfg.DefaultCurrency) != 3 {
		log.Fatalf("invalid DEFAULT_CURRENCY: %q", cfg.DefaultCurrency)
	}
	return cfg
}

// IsProd reports whether the service runs in production mode.
func (c Config) IsProd() bool { return strings.EqualFold(c.Env, "prod") }

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
