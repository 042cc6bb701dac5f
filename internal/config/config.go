// Package config loads the server configuration from environment variables
// with sane defaults for local development.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the jubsok backend.
type Config struct {
	ListenAddr     string
	Environment    string
	LogLevel       string
	AllowedOrigins []string

	JWTSecret      string
	AccessTokenTTL time.Duration

	PingPeriod     time.Duration
	ActiveWindow   time.Duration
	MaxMessageSize int64
	FrameBurst     int
	FrameInterval  time.Duration

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from the environment (JUBSOK_ prefix) and applies
// defaults and sanitization.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("jubsok")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origins", "*")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("access_token_ttl", "15m")
	v.SetDefault("ping_period", "3s")
	v.SetDefault("active_window", "5s")
	v.SetDefault("max_message_size", 4096)
	v.SetDefault("frame_burst", 20)
	v.SetDefault("frame_interval", "1s")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_database", "jubsok")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	cfg := &Config{
		ListenAddr:     v.GetString("listen_addr"),
		Environment:    v.GetString("environment"),
		LogLevel:       v.GetString("log_level"),
		AllowedOrigins: splitOrigins(v.GetString("allowed_origins")),
		JWTSecret:      v.GetString("jwt_secret"),
		AccessTokenTTL: v.GetDuration("access_token_ttl"),
		PingPeriod:     v.GetDuration("ping_period"),
		ActiveWindow:   v.GetDuration("active_window"),
		MaxMessageSize: v.GetInt64("max_message_size"),
		FrameBurst:     v.GetInt("frame_burst"),
		FrameInterval:  v.GetDuration("frame_interval"),
		MongoURI:       v.GetString("mongo_uri"),
		MongoDatabase:  v.GetString("mongo_database"),
		RedisAddr:      v.GetString("redis_addr"),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),
	}
	cfg.sanitize()
	return cfg, nil
}

func (c *Config) sanitize() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = 3 * time.Second
	}
	if c.ActiveWindow <= 0 {
		c.ActiveWindow = 5 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	if c.FrameBurst <= 0 {
		c.FrameBurst = 20
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = time.Second
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
