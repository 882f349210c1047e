package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/avolkov/proxdeck/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultEnvironment     = logger.EnvProduction
	defaultAccessLifetime  = "15m"
	defaultRefreshLifetime = "7d"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Redis that backs the token denylist, optional
	// When empty the service runs without a revocation cache
	RedisURL string

	// Secret keys for signing access and refresh token payloads
	AccessSecret  string
	RefreshSecret string

	// Token lifetimes as duration strings ("15m", "7d")
	AccessLifetime  string
	RefreshLifetime string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		Environment:     defaultEnvironment,
		AccessLifetime:  defaultAccessLifetime,
		RefreshLifetime: defaultRefreshLifetime,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URL":           setString(&c.DatabaseDSN),
		"REDIS_URL":              setString(&c.RedisURL),
		"JWT_SECRET":             setString(&c.AccessSecret),
		"JWT_REFRESH_SECRET":     setString(&c.RefreshSecret),
		"JWT_EXPIRES_IN":         setString(&c.AccessLifetime),
		"JWT_REFRESH_EXPIRES_IN": setString(&c.RefreshLifetime),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"ENVIRONMENT":            setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("proxdeck", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.RedisURL, "redis", "r", c.RedisURL, "Redis url for the token denylist")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Secret key for access tokens")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret key for refresh tokens")
	fs.StringVar(&c.AccessLifetime, "access-lifetime", c.AccessLifetime, "Access token lifetime, e.g. 15m")
	fs.StringVar(&c.RefreshLifetime, "refresh-lifetime", c.RefreshLifetime, "Refresh token lifetime, e.g. 7d")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
