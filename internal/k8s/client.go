package k8s

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// Client wraps the Kubernetes clients the stores talk through
type Client struct {
	Dynamic    dynamic.Interface
	Clientset  kubernetes.Interface
	RestConfig *rest.Config
	Context    string
}

// NewClient creates a new Kubernetes client. An empty kubeContext uses the
// kubeconfig's current context.
func NewClient(kubeconfigPath, kubeContext string) (*Client, error) {
	// If no path provided, use default
	if kubeconfigPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		kubeconfigPath = filepath.Join(homeDir, ".kube", "config")
	}

	// Check if running in-cluster; an explicit context always means kubeconfig
	config, err := rest.InClusterConfig()
	if err != nil || kubeContext != "" {
		rules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath}
		overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
		config, err = clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to build config: %w", err)
		}
	}
	// Per-namespace list fan-out needs more than the default 5 QPS
	config.QPS = 50
	config.Burst = 100

	dyn, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	if kubeContext == "" {
		kubeContext, _ = GetCurrentContext(kubeconfigPath)
	}

	return &Client{
		Dynamic:    dyn,
		Clientset:  clientset,
		RestConfig: config,
		Context:    kubeContext,
	}, nil
}

// API returns the store transport backed by the dynamic client.
func (c *Client) API() *DynamicAPI {
	return NewDynamicAPI(c.Dynamic)
}

// ServerVersion returns the API server's git version.
func (c *Client) ServerVersion() (string, error) {
	info, err := c.Clientset.Discovery().ServerVersion()
	if err != nil {
		return "", fmt.Errorf("failed to get server version: %w", err)
	}
	return info.GitVersion, nil
}

// GetCurrentContext returns the current kubectl context
func GetCurrentContext(kubeconfigPath string) (string, error) {
	if kubeconfigPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		kubeconfigPath = filepath.Join(homeDir, ".kube", "config")
	}

	config, err := clientcmd.LoadFromFile(kubeconfigPath)
	if err != nil {
		return "", err
	}

	return config.CurrentContext, nil
}

// GetContexts returns all available contexts, sorted
func GetContexts(kubeconfigPath string) ([]string, error) {
	if kubeconfigPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		kubeconfigPath = filepath.Join(homeDir, ".kube", "config")
	}

	config, err := clientcmd.LoadFromFile(kubeconfigPath)
	if err != nil {
		return nil, err
	}

	contexts := make([]string, 0, len(config.Contexts))
	for name := range config.Contexts {
		contexts = append(contexts, name)
	}
	sort.Strings(contexts)

	return contexts, nil
}
