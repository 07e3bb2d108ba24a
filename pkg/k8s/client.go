package k8s

import (
	"context"
	"fmt"
	"log/slog"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/Daltonopenclaw/agent-forge/internal/config"
)

// Client wraps the Kubernetes clients the platform needs: the typed
// clientset for core resources and a dynamic client for the Traefik CRDs.
type Client struct {
	clientset     *kubernetes.Clientset
	dynamicClient dynamic.Interface
	config        *rest.Config
}

// GroupVersionResource definitions for the Traefik routing CRDs.
var (
	IngressRouteGVR = schema.GroupVersionResource{
		Group:    "traefik.io",
		Version:  "v1alpha1",
		Resource: "ingressroutes",
	}

	MiddlewareGVR = schema.GroupVersionResource{
		Group:    "traefik.io",
		Version:  "v1alpha1",
		Resource: "middlewares",
	}
)

// NewClient creates a Kubernetes client. When cfg.Kubeconfig is set the
// file is used; otherwise in-cluster configuration is assumed.
func NewClient(cfg config.KubernetesConfig) (*Client, error) {
	var restConfig *rest.Config
	var err error

	if cfg.Kubeconfig != "" {
		slog.Info("using kubeconfig file", "path", cfg.Kubeconfig)
		restConfig, err = clientcmd.BuildConfigFromFlags("", cfg.Kubeconfig)
	} else {
		slog.Info("using in-cluster kubernetes configuration")
		restConfig, err = rest.InClusterConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build kubernetes config: %w", err)
	}

	restConfig.QPS = cfg.QPS
	restConfig.Burst = cfg.Burst

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes clientset: %w", err)
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}

	slog.Info("kubernetes client created successfully",
		"qps", restConfig.QPS,
		"burst", restConfig.Burst,
	)

	return &Client{
		clientset:     clientset,
		dynamicClient: dynamicClient,
		config:        restConfig,
	}, nil
}

// GetClientset returns the typed Kubernetes clientset.
func (c *Client) GetClientset() *kubernetes.Clientset {
	return c.clientset
}

// GetDynamicClient returns the dynamic client used for CRDs.
func (c *Client) GetDynamicClient() dynamic.Interface {
	return c.dynamicClient
}

// GetConfig returns the underlying REST configuration.
func (c *Client) GetConfig() *rest.Config {
	return c.config
}

// HealthCheck verifies connectivity to the cluster control plane.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		return fmt.Errorf("kubernetes health check failed: %w", err)
	}
	return nil
}
