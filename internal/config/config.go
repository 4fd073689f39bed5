package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tapcraft-io/kubesync/internal/logging"
)

// Environment variables read by NewConfig.
const (
	EnvKubeconfig = "KUBECONFIG"
	EnvNamespaces = "KUBESYNC_NAMESPACES"
	EnvLogLevel   = "KUBESYNC_LOG_LEVEL"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	// Kubernetes
	KubeconfigPath string
	Context        string
	// Namespaces to select at start. Empty selects all.
	Namespaces []string
	Demo       bool

	// Logging
	LogLevel  string
	LogFormat string
	// LogFile receives logs while the terminal UI owns the screen.
	LogFile string

	// Metrics
	MetricsAddr string

	// Paths
	ConfigDir string
}

// NewConfig creates a new configuration with defaults, overridden by the
// environment.
func NewConfig() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configDir := filepath.Join(homeDir, ".kubesync")

	kubeconfigPath := os.Getenv(EnvKubeconfig)
	if kubeconfigPath == "" {
		kubeconfigPath = filepath.Join(homeDir, ".kube", "config")
	}

	logLevel := os.Getenv(EnvLogLevel)
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		KubeconfigPath: kubeconfigPath,
		Namespaces:     SplitList(os.Getenv(EnvNamespaces)),
		LogLevel:       logLevel,
		LogFormat:      "text",
		LogFile:        filepath.Join(configDir, "kubesync.log"),
		ConfigDir:      configDir,
	}, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q, want text or json", ErrInvalid, c.LogFormat)
	}
	if !c.Demo && c.KubeconfigPath == "" && os.Getenv("KUBERNETES_SERVICE_HOST") == "" {
		return fmt.Errorf("%w: no kubeconfig and not running in a cluster", ErrInvalid)
	}
	for _, ns := range c.Namespaces {
		if strings.ContainsAny(ns, " /") {
			return fmt.Errorf("%w: namespace %q", ErrInvalid, ns)
		}
	}
	return nil
}

// EnsureConfigDir creates the config directory if it doesn't exist
func (c *Config) EnsureConfigDir() error {
	return os.MkdirAll(c.ConfigDir, 0o755)
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
