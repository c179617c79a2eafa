// config/config.go
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration        `mapstructure:"server"`
	Database      DatabaseConfiguration      `mapstructure:"database"`
	Redis         RedisConfiguration         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfiguration `mapstructure:"elasticsearch"`
	Log           LogConfiguration           `mapstructure:"log"`
	Reconcile     ReconcileConfiguration     `mapstructure:"reconcile"`
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port            string        `mapstructure:"port"`
	RateLimit       int           `mapstructure:"rateLimit"`
	RateLimitWindow time.Duration `mapstructure:"rateLimitWindow"`
	// JWTSecret signs admin tokens. Authentication is off when empty.
	JWTSecret  string `mapstructure:"jwtSecret"`
	AdminGroup string `mapstructure:"adminGroup"`
}

// DatabaseConfiguration stores data for the SQLite database
type DatabaseConfiguration struct {
	Path     string `mapstructure:"path"`
	LogLevel string `mapstructure:"logLevel"`
}

// RedisConfiguration stores data for Redis connection. Redis is disabled when Addr is empty.
type RedisConfiguration struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	DialTimeout     time.Duration `mapstructure:"dialTimeout"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	PoolSize        int           `mapstructure:"poolSize"`
	DefaultCacheTTL time.Duration `mapstructure:"defaultCacheTTL"`
}

func (r RedisConfiguration) Enabled() bool {
	return r.Addr != ""
}

// ElasticsearchConfiguration stores data for the audit mirror. Disabled when URL is empty.
type ElasticsearchConfiguration struct {
	URL   string `mapstructure:"url"`
	Index string `mapstructure:"index"`
}

func (e ElasticsearchConfiguration) Enabled() bool {
	return e.URL != ""
}

type LogConfiguration struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

type ReconcileConfiguration struct {
	// Schedule is a cron spec used by the serve command. Empty disables scheduling.
	Schedule           string        `mapstructure:"schedule"`
	LockTTL            time.Duration `mapstructure:"lockTTL"`
	ExpirySentinelDays int           `mapstructure:"expirySentinelDays"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rateLimit", 100)
	v.SetDefault("server.rateLimitWindow", time.Minute)
	v.SetDefault("server.jwtSecret", "")
	v.SetDefault("server.adminGroup", "securenet-admin")
	v.SetDefault("database.path", "dyngroups.db")
	v.SetDefault("database.logLevel", "warn")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dialTimeout", 5*time.Second)
	v.SetDefault("redis.readTimeout", 3*time.Second)
	v.SetDefault("redis.writeTimeout", 3*time.Second)
	v.SetDefault("redis.poolSize", 10)
	v.SetDefault("redis.defaultCacheTTL", 5*time.Minute)
	v.SetDefault("elasticsearch.url", "")
	v.SetDefault("elasticsearch.index", "dynamic-group-audit")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
	v.SetDefault("reconcile.schedule", "")
	v.SetDefault("reconcile.lockTTL", 5*time.Minute)
	v.SetDefault("reconcile.expirySentinelDays", 9999)
}

// Load reads the configuration from path (optional), the environment and defaults.
func Load(path string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DYNGROUPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Configuration) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rateLimit cannot be negative")
	}
	if c.Reconcile.ExpirySentinelDays <= 0 {
		return fmt.Errorf("reconcile.expirySentinelDays must be positive")
	}
	return nil
}
