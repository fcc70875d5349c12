package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	Redis     RedisConfig     `yaml:"redis"`
	Email     EmailConfig     `yaml:"email"`
	Hackathon HackathonConfig `yaml:"hackathon"`
	Admin     AdminConfig     `yaml:"admin"`
}

type ServerConfig struct {
	Host          string   `yaml:"host"`
	Port          string   `yaml:"port"`
	Mode          string   `yaml:"mode"` // debug, release, test
	CORSOrigins   []string `yaml:"cors_origins"`
	AuthRateRPS   float64  `yaml:"auth_rate_rps"`
	AuthRateBurst int      `yaml:"auth_rate_burst"`
}

type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

type DatabaseConfig struct {
	Driver         string `yaml:"driver"` // mongodb, sqlite, mysql, postgres, memory
	DSN            string `yaml:"dsn"`
	Name           string `yaml:"name"` // mongodb database name
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout is the per-call deadline applied by the store.
func (d *DatabaseConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

// RedisConfig for optional async notification queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	UseTLS   bool   `yaml:"use_tls"`
}

type HackathonConfig struct {
	SweepIntervalSeconds int    `yaml:"sweep_interval_seconds"`
	Timezone             string `yaml:"timezone"`
	// 0 means a problem can be picked by any number of teams.
	MaxTeamsPerProblem int `yaml:"max_teams_per_problem"`
	StartConcurrency   int `yaml:"start_concurrency"`
}

func (h *HackathonConfig) SweepInterval() time.Duration {
	if h.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(h.SweepIntervalSeconds) * time.Second
}

// Location resolves Timezone, falling back to UTC when it is empty or unknown.
func (h *HackathonConfig) Location() *time.Location {
	if h.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(h.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type AdminConfig struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	TeamName string `yaml:"team_name"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		// Fields missing from the file keep their defaults.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          "8080",
			Mode:          "debug",
			CORSOrigins:   []string{"*"},
			AuthRateRPS:   5,
			AuthRateBurst: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
		Database: DatabaseConfig{
			Driver:         "mongodb",
			DSN:            "mongodb://localhost:27017",
			Name:           "codesurge",
			TimeoutSeconds: 5,
		},
		JWT: JWTConfig{
			Secret:     "codesurge-secret-key-change-in-production",
			ExpireHour: 24,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Email: EmailConfig{
			Enabled: false,
			Port:    587,
			From:    "no-reply@codesurge.dev",
		},
		Hackathon: HackathonConfig{
			SweepIntervalSeconds: 60,
			Timezone:             "UTC",
			MaxTeamsPerProblem:   0,
			StartConcurrency:     8,
		},
		Admin: AdminConfig{
			Username: "admin",
			Email:    "admin@codesurge.dev",
			Password: "admin123",
			TeamName: "Organizers",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		c.Database.Name = name
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if host := os.Getenv("SMTP_HOST"); host != "" {
		c.Email.Enabled = true
		c.Email.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Email.Port = p
		}
	}
	if user := os.Getenv("SMTP_USERNAME"); user != "" {
		c.Email.Username = user
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		c.Email.Password = pass
	}
	if tz := os.Getenv("HACKATHON_TIMEZONE"); tz != "" {
		c.Hackathon.Timezone = tz
	}
	if pass := os.Getenv("ADMIN_PASSWORD"); pass != "" {
		c.Admin.Password = pass
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}
