package config

import "github.com/spf13/viper"

// Config carries the environment-driven settings of the service.
type Config struct {
	Port        string
	DatabaseURL string
	RedisAddr   string
	RateLimit   float64
	RateBurst   int
}

// Load reads configuration from the environment, falling back to defaults.
// RedisAddr is optional; without it the duplicate-request guard is disabled.
func Load() Config {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("rate_limit", 50.0)
	v.SetDefault("rate_burst", 100)
	v.AutomaticEnv()

	return Config{
		Port:        v.GetString("port"),
		DatabaseURL: v.GetString("database_url"),
		RedisAddr:   v.GetString("redis_addr"),
		RateLimit:   v.GetFloat64("rate_limit"),
		RateBurst:   v.GetInt("rate_burst"),
	}
}
