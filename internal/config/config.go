package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime settings, loaded from the environment with an
// optional .env file for local development.
type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		Path string
	}
	Matching struct {
		MinScore        int
		AmountTolerance int
		CountryPrefix   string
	}
	Statement struct {
		Delimiter string
	}
}

// Load reads configuration from the environment. When envFile is non-empty
// and exists, it is loaded first.
func Load(envFile string) *Config {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logrus.WithField("file", envFile).Debug("no env file loaded")
		}
	}

	cfg := &Config{}
	cfg.Server.Port = GetEnvAsInt("PORT", 8080)
	cfg.Database.Path = GetEnv("DB_PATH", "rentmatch.db")
	cfg.Matching.MinScore = GetEnvAsInt("MATCH_MIN_SCORE", 60)
	cfg.Matching.AmountTolerance = GetEnvAsInt("MATCH_AMOUNT_TOLERANCE", 100)
	cfg.Matching.CountryPrefix = GetEnv("PHONE_COUNTRY_PREFIX", "254")
	cfg.Statement.Delimiter = GetEnv("STATEMENT_DELIMITER", ",")
	return cfg
}

// DelimiterRune returns the configured statement field delimiter.
func (c *Config) DelimiterRune() rune {
	for _, r := range c.Statement.Delimiter {
		return r
	}
	return ','
}

func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
