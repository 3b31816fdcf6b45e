package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Discovery struct {
		DefaultMinAge        int
		DefaultMaxAge        int
		MaxDistanceCeilingKM float64
		DefaultPageSize      int
		MaxPageSize          int
		CandidateCacheTTLSec int
	}

	Quota struct {
		SuperlikeDailyLimit int
	}

	Score struct {
		InterestsWeight int
		GoalWeight      int
		AgeWeight       int
		LifestyleWeight int
	}
}

func New() *Config {
	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "discovery_server")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "discovery")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Discovery defaults
	cfg.Discovery.DefaultMinAge = getEnvInt("DISCOVERY_DEFAULT_MIN_AGE", 18)
	cfg.Discovery.DefaultMaxAge = getEnvInt("DISCOVERY_DEFAULT_MAX_AGE", 99)
	cfg.Discovery.MaxDistanceCeilingKM = getEnvFloat("DISCOVERY_MAX_DISTANCE_KM", 100)
	cfg.Discovery.DefaultPageSize = getEnvInt("DISCOVERY_DEFAULT_PAGE_SIZE", 10)
	cfg.Discovery.MaxPageSize = getEnvInt("DISCOVERY_MAX_PAGE_SIZE", 50)
	cfg.Discovery.CandidateCacheTTLSec = getEnvInt("DISCOVERY_CANDIDATE_CACHE_TTL_SEC", 15)

	// Quotas
	cfg.Quota.SuperlikeDailyLimit = getEnvInt("QUOTA_SUPERLIKE_DAILY", 5)

	// Compatibility score weights. Must sum to 100 for a full-marks score.
	cfg.Score.InterestsWeight = getEnvInt("SCORE_INTERESTS_WEIGHT", 40)
	cfg.Score.GoalWeight = getEnvInt("SCORE_GOAL_WEIGHT", 20)
	cfg.Score.AgeWeight = getEnvInt("SCORE_AGE_WEIGHT", 25)
	cfg.Score.LifestyleWeight = getEnvInt("SCORE_LIFESTYLE_WEIGHT", 15)

	return cfg
}

// Validate checks config values that cannot be defaulted away.
func (c *Config) Validate() error {
	sum := c.Score.InterestsWeight + c.Score.GoalWeight + c.Score.AgeWeight + c.Score.LifestyleWeight
	if sum != 100 {
		return fmt.Errorf("score weights must sum to 100, got %d", sum)
	}
	if c.Discovery.DefaultMinAge < 18 {
		return fmt.Errorf("default min age must be at least 18, got %d", c.Discovery.DefaultMinAge)
	}
	if c.Quota.SuperlikeDailyLimit < 0 {
		return fmt.Errorf("superlike daily limit must be non-negative, got %d", c.Quota.SuperlikeDailyLimit)
	}
	return nil
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
