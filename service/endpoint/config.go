package endpoint

import "time"

// Config represents HTTP server configuration
type Config struct {
	Addr            string        `json:"addr,omitempty" yaml:"addr,omitempty"`
	ReadTimeout     time.Duration `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout    time.Duration `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64 `json:"maxBodyBytes,omitempty" yaml:"maxBodyBytes,omitempty"`
	// AdminToken enables the admin routes; callers send it as a bearer token
	AdminToken string `json:"-" yaml:"adminToken,omitempty"`
}

// DefaultConfig returns default server config
func DefaultConfig() Config {
	return Config{
		Addr:            ":2052",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MaxBodyBytes:    1 << 20,
	}
}
