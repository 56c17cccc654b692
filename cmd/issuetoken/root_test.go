package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dkeye/VoiceRelay/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "auth_url: https://auth.example.com\njwt_key: cli-key\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignProducesVerifiableToken(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, "--config", cfg, "sign", "--username", "alice", "--uid", "7", "--icon", "🎧")
	require.NoError(t, err)

	verifier, err := auth.NewJWTVerifier("cli-key", nil)
	require.NoError(t, err)
	id, err := verifier.Verify(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "7", id.ExternalID)
	assert.Equal(t, "🎧", id.Icon)
}

func TestSignRequiresUsername(t *testing.T) {
	_, err := run(t, "--config", writeConfig(t), "sign", "--uid", "7")
	assert.Error(t, err)
}

func TestRevokeNeedsStore(t *testing.T) {
	_, err := run(t, "--config", writeConfig(t), "revoke", "some-jti")
	assert.ErrorIs(t, err, errNoRevocationStore)
}
