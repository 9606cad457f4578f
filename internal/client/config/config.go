package config

import "time"

// Config holds runtime settings for the dropspace client.
//
// Units: ProgressTickInterval is a time.Duration (e.g., 100*time.Millisecond);
// ProgressStep is percentage points added per tick.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Collection is the shared metadata collection all clients observe.
	Collection string

	// SessionToken is an optional pre-provisioned token; when redemption
	// fails the client falls back to anonymous sign-in.
	SessionToken string
	TokenSecret  string

	ShareLinkBase        string
	ProgressTickInterval time.Duration
	ProgressStep         int

	TracingEnabled bool
	OTLPEndpoint   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPassword = ""
	c.RedisDB = 0
	c.Collection = "uploads"
	c.SessionToken = ""
	c.TokenSecret = ""
	c.ShareLinkBase = "https://dropspace.example.com/share"
	c.ProgressTickInterval = 100 * time.Millisecond
	c.ProgressStep = 10
	c.TracingEnabled = false
	c.OTLPEndpoint = "localhost:4318"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
