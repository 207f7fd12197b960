package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// ServerConfig configures `yijing serve`.
type ServerConfig struct {
	Addr         string          `yaml:"addr" env:"YIJING_SERVER_ADDR"`
	Port         int             `yaml:"port"` // PORT
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
	Metrics      bool            `yaml:"metrics" env:"YIJING_SERVER_METRICS"`
	ReadTimeout  string          `yaml:"read_timeout"`
	WriteTimeout string          `yaml:"write_timeout"`
}

// RateLimitConfig is a per-client token bucket. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS     float64 `yaml:"rps" env:"YIJING_RATE_LIMIT_RPS"`
	Burst   int     `yaml:"burst" env:"YIJING_RATE_LIMIT_BURST"`
	IdleTTL string  `yaml:"idle_ttl"`
}

// ListenAddr returns the host:port the server binds.
func (c ServerConfig) ListenAddr() string {
	return net.JoinHostPort(c.Addr, strconv.Itoa(c.Port))
}

// GetReadTimeout returns the HTTP read timeout.
func (c ServerConfig) GetReadTimeout() time.Duration {
	return parseDuration(c.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout returns the HTTP write timeout.
func (c ServerConfig) GetWriteTimeout() time.Duration {
	return parseDuration(c.WriteTimeout, 90*time.Second)
}

// GetIdleTTL returns how long an idle client bucket is kept.
func (c RateLimitConfig) GetIdleTTL() time.Duration {
	return parseDuration(c.IdleTTL, 10*time.Minute)
}

// Enabled reports whether rate limiting is on.
func (c RateLimitConfig) Enabled() bool {
	return c.RPS > 0
}

func (c ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Port)
	}
	if c.RateLimit.Enabled() && c.RateLimit.Burst < 1 {
		return fmt.Errorf("invalid server.rate_limit.burst: %d (must be >= 1 when rps > 0)", c.RateLimit.Burst)
	}
	return nil
}
