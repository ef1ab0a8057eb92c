package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teachdl/internal/config"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"school.test/courses/1", "https://school.test/courses/1"},
		{"  https://school.test/p/go  ", "https://school.test/p/go"},
		{"HTTP://school.test", "HTTP://school.test"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeURL(tt.in), tt.in)
	}
}

func TestApplyFlagsOnlyChanged(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--url", "https://school.test/c/1",
		"-vv",
		"--notes",
		"--timeout", "5s",
	}))

	cfg := config.Default()
	cfg.Email = "yaml@school.test"
	cfg.Output = "/data"
	applyFlags(cmd, cfg)

	assert.Equal(t, "https://school.test/c/1", cfg.URL)
	assert.Equal(t, 2, cfg.Verbose)
	assert.True(t, cfg.Notes)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "yaml@school.test", cfg.Email, "unset flag keeps config value")
	assert.Equal(t, "/data", cfg.Output, "flag default does not override config")
}

func TestLoadConfigPrecedence(t *testing.T) {
	for _, name := range []string{"URL", "EMAIL", "PASSWORD", "TEACHDL_PROXY"} {
		t.Setenv(name, "")
	}
	t.Setenv("PASSWORD", "from-env")

	path := filepath.Join(t.TempDir(), "teachdl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"url: https://school.test/c/2\nemail: me@school.test\npassword: from-yaml\ntimeout: 20s\n"), 0o644))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "-t", "7s"}))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, "https://school.test/c/2", cfg.URL)
	assert.Equal(t, "from-env", cfg.Password)
	assert.Equal(t, 7*time.Second, cfg.Timeout)
}

func TestLoadConfigRequiresLogin(t *testing.T) {
	for _, name := range []string{"URL", "EMAIL", "PASSWORD", "TEACHDL_PROXY"} {
		t.Setenv(name, "")
	}
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--url", "https://school.test/c/3", "--config", ""}))

	_, err := loadConfig(cmd)
	assert.Error(t, err)
}
