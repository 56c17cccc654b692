package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

// WebRTC converts the entry into the RTCIceServer shape browsers expect.
func (s ICEServer) WebRTC() webrtc.ICEServer {
	return webrtc.ICEServer{
		URLs:       s.URLs,
		Username:   s.Username,
		Credential: s.Credential,
	}
}

type HeartbeatConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type RoomsConfig struct {
	MaxPerUser int `mapstructure:"max_per_user"`
}

type RateLimitConfig struct {
	Messages int           `mapstructure:"messages"`
	Interval time.Duration `mapstructure:"interval"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RevocationConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Key       string `mapstructure:"key"`
}

type Config struct {
	Mode       string `mapstructure:"mode"`
	Debug      bool   `mapstructure:"debug"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	ReadLimit  int64  `mapstructure:"read_limit"`
	SendBuffer int    `mapstructure:"send_buffer"`
	Secret     string `mapstructure:"secret"`

	AuthURL    string      `mapstructure:"auth_url"`
	JWTKey     string      `mapstructure:"jwt_key"`
	ICEServers []ICEServer `mapstructure:"ice_servers"`

	Heartbeat  HeartbeatConfig  `mapstructure:"heartbeat"`
	Rooms      RoomsConfig      `mapstructure:"rooms"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Revocation RevocationConfig `mapstructure:"revocation"`
}

// WebRTCICEServers is the iceServers hint sent in serverInfo; never nil.
func (c *Config) WebRTCICEServers() []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(c.ICEServers))
	for _, s := range c.ICEServers {
		out = append(out, s.WebRTC())
	}
	return out
}

// Load reads config/config.<CONFIG_ENV>.yaml (dev by default).
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads fileName on top of defaults and VOICE_* environment
// variables. A missing file is not an error; an invalid result is.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("VOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Bool("debug", cfg.Debug).
		Dur("heartbeat", cfg.Heartbeat.Interval).
		Int("ice_servers", len(cfg.ICEServers)).
		Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("debug", false)
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("send_buffer", 32)
	v.SetDefault("secret", "")

	v.SetDefault("auth_url", "")
	v.SetDefault("jwt_key", "")
	v.SetDefault("ice_servers", []map[string]any{})

	v.SetDefault("heartbeat.interval", "10s")
	v.SetDefault("rooms.max_per_user", 2)
	v.SetDefault("rate_limit.messages", 50)
	v.SetDefault("rate_limit.interval", "1s")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("revocation.redis_addr", "")
	v.SetDefault("revocation.password", "")
	v.SetDefault("revocation.db", 0)
	v.SetDefault("revocation.key", "jwt:revoked")
}

func (c *Config) Validate() error {
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("invalid server port")
	}
	if c.JWTKey == "" {
		return errors.New("jwt_key must be set")
	}
	if c.AuthURL == "" {
		return errors.New("auth_url must be set")
	}
	if c.ReadLimit <= 0 {
		return errors.New("read_limit must be positive")
	}
	if c.SendBuffer <= 0 {
		return errors.New("send_buffer must be positive")
	}
	if c.Heartbeat.Interval <= 0 {
		return errors.New("heartbeat.interval must be positive")
	}
	if c.Rooms.MaxPerUser < 1 {
		return errors.New("rooms.max_per_user must be at least 1")
	}
	if c.RateLimit.Messages < 0 {
		return errors.New("rate_limit.messages must not be negative")
	}
	if c.RateLimit.Messages > 0 && c.RateLimit.Interval <= 0 {
		return errors.New("rate_limit.interval must be positive when rate limiting is on")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics.path must start with /")
	}
	for i, s := range c.ICEServers {
		if err := s.validate(); err != nil {
			return fmt.Errorf("ice_servers[%d]: %w", i, err)
		}
	}
	return nil
}

func (s ICEServer) validate() error {
	if len(s.URLs) == 0 {
		return errors.New("urls must not be empty")
	}
	for _, raw := range s.URLs {
		uri, err := stun.ParseURI(raw)
		if err != nil {
			return fmt.Errorf("bad url %q: %w", raw, err)
		}
		if uri.Scheme == stun.SchemeTypeTURN || uri.Scheme == stun.SchemeTypeTURNS {
			if s.Username == "" || s.Credential == "" {
				return fmt.Errorf("turn server %q needs username and credential", raw)
			}
		}
	}
	return nil
}
