package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvKubeconfig, "")
	t.Setenv(EnvNamespaces, "")
	t.Setenv(EnvLogLevel, "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".kube", "config"), cfg.KubeconfigPath)
	assert.Equal(t, filepath.Join(home, ".kubesync"), cfg.ConfigDir)
	assert.Equal(t, filepath.Join(home, ".kubesync", "kubesync.log"), cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Namespaces)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvKubeconfig, "/tmp/kubeconfig")
	t.Setenv(EnvNamespaces, "shop, default,,kube-system ")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/kubeconfig", cfg.KubeconfigPath)
	assert.Equal(t, []string{"shop", "default", "kube-system"}, cfg.Namespaces)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{KubeconfigPath: "/kube", LogLevel: "info", LogFormat: "json"}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log level"},
		{name: "bad format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: "log format"},
		{name: "bad namespace", mutate: func(c *Config) { c.Namespaces = []string{"a b"} }, wantErr: "namespace"},
		{name: "demo needs no kubeconfig", mutate: func(c *Config) { c.KubeconfigPath = ""; c.Demo = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}

func TestEnsureConfigDir(t *testing.T) {
	cfg := &Config{ConfigDir: filepath.Join(t.TempDir(), "nested", ".kubesync")}
	require.NoError(t, cfg.EnsureConfigDir())
	assert.DirExists(t, cfg.ConfigDir)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"a"}, SplitList(" a ,"))
}
