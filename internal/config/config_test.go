package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
mode: debug
debug: true
port: 9000
auth_url: https://auth.example.com
jwt_key: secret
ice_servers:
  - urls: ["stun:stun.l.google.com:19302"]
  - urls: ["turn:turn.example.com:3478?transport=udp"]
    username: user
    credential: pass
heartbeat:
  interval: 5s
rooms:
  max_per_user: 3
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Mode)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "https://auth.example.com", cfg.AuthURL)
	assert.Equal(t, 5*time.Second, cfg.Heartbeat.Interval)
	assert.Equal(t, 3, cfg.Rooms.MaxPerUser)
	require.Len(t, cfg.ICEServers, 2)
	assert.Equal(t, "user", cfg.ICEServers[1].Username)

	// defaults survive partial files
	assert.EqualValues(t, 32768, cfg.ReadLimit)
	assert.Equal(t, 32, cfg.SendBuffer)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "jwt:revoked", cfg.Revocation.Key)

	ice := cfg.WebRTCICEServers()
	require.Len(t, ice, 2)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, ice[0].URLs)
	assert.Equal(t, "pass", ice[1].Credential)
}

func TestLoadFileEnvOverride(t *testing.T) {
	path := writeConfig(t, "auth_url: https://a\njwt_key: from-file\n")
	t.Setenv("VOICE_JWT_KEY", "from-env")
	t.Setenv("VOICE_ROOMS_MAX_PER_USER", "7")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTKey)
	assert.Equal(t, 7, cfg.Rooms.MaxPerUser)
}

func TestLoadFileMissingUsesDefaults(t *testing.T) {
	t.Setenv("VOICE_JWT_KEY", "k")
	t.Setenv("VOICE_AUTH_URL", "https://a")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Heartbeat.Interval)
	assert.Equal(t, 2, cfg.Rooms.MaxPerUser)
	assert.NotNil(t, cfg.WebRTCICEServers())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Mode:       "release",
			Port:       8080,
			ReadLimit:  1024,
			SendBuffer: 8,
			AuthURL:    "https://a",
			JWTKey:     "k",
			Heartbeat:  HeartbeatConfig{Interval: time.Second},
			Rooms:      RoomsConfig{MaxPerUser: 2},
			Metrics:    MetricsConfig{Enabled: true, Path: "/metrics"},
		}
	}
	base := valid()
	require.NoError(t, base.Validate())

	cases := map[string]func(c *Config){
		"bad mode":          func(c *Config) { c.Mode = "prod" },
		"port":              func(c *Config) { c.Port = 0 },
		"no key":            func(c *Config) { c.JWTKey = "" },
		"no auth url":       func(c *Config) { c.AuthURL = "" },
		"heartbeat":         func(c *Config) { c.Heartbeat.Interval = 0 },
		"quota":             func(c *Config) { c.Rooms.MaxPerUser = 0 },
		"rate interval":     func(c *Config) { c.RateLimit = RateLimitConfig{Messages: 5} },
		"metrics path":      func(c *Config) { c.Metrics.Path = "metrics" },
		"ice without urls":  func(c *Config) { c.ICEServers = []ICEServer{{}} },
		"ice bad scheme":    func(c *Config) { c.ICEServers = []ICEServer{{URLs: []string{"http://x"}}} },
		"turn without cred": func(c *Config) { c.ICEServers = []ICEServer{{URLs: []string{"turn:t.example.com"}}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
