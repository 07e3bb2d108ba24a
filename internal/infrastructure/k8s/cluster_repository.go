package k8s

import (
	"context"
	"log/slog"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/client-go/kubernetes"

	"github.com/Daltonopenclaw/agent-forge/internal/config"
	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// clusterRepository implements domain.ClusterRepository with the typed
// clientset. All creations are idempotent via IgnoreAlreadyExists and all
// deletions via IgnoreNotFound, so re-entrant provisioning converges.
type clusterRepository struct {
	client   kubernetes.Interface
	platform config.PlatformConfig
	logger   *slog.Logger
}

// NewClusterRepository creates a cluster repository for agent namespaces.
func NewClusterRepository(client kubernetes.Interface, platform config.PlatformConfig, logger *slog.Logger) domain.ClusterRepository {
	return &clusterRepository{
		client:   client,
		platform: platform,
		logger:   logger,
	}
}

func (r *clusterRepository) CreateNamespace(ctx context.Context, namespace string, cfg *entity.AgentConfig) error {
	ns := buildNamespace(namespace, cfg)
	_, err := r.client.CoreV1().Namespaces().Create(ctx, ns, metav1.CreateOptions{})
	if err = IgnoreAlreadyExists(err); err != nil {
		return handleK8sError(err, "namespace", namespace)
	}
	r.logger.Info("namespace created", "namespace", namespace, "agent_id", cfg.AgentID)
	return nil
}

func (r *clusterRepository) CreateResourceQuota(ctx context.Context, namespace string) error {
	quota := buildResourceQuota(namespace)
	_, err := r.client.CoreV1().ResourceQuotas(namespace).Create(ctx, quota, metav1.CreateOptions{})
	if err = IgnoreAlreadyExists(err); err != nil {
		return handleK8sError(err, "resource quota", QuotaName)
	}
	return nil
}

func (r *clusterRepository) CreateStateVolume(ctx context.Context, namespace string) error {
	pvc := buildStateVolume(namespace)
	_, err := r.client.CoreV1().PersistentVolumeClaims(namespace).Create(ctx, pvc, metav1.CreateOptions{})
	if err = IgnoreAlreadyExists(err); err != nil {
		return handleK8sError(err, "persistent volume claim", VolumeName)
	}
	return nil
}

func (r *clusterRepository) CreateAgentConfigMap(ctx context.Context, namespace string, documents map[string]string) error {
	cm := buildConfigMap(namespace, documents)
	_, err := r.client.CoreV1().ConfigMaps(namespace).Create(ctx, cm, metav1.CreateOptions{})
	if err = IgnoreAlreadyExists(err); err != nil {
		return handleK8sError(err, "config map", ConfigMapName)
	}
	return nil
}

func (r *clusterRepository) CreateCredentialsSecret(ctx context.Context, namespace string, stringData map[string]string) error {
	secret := buildSecret(namespace, stringData)
	_, err := r.client.CoreV1().Secrets(namespace).Create(ctx, secret, metav1.CreateOptions{})
	if err = IgnoreAlreadyExists(err); err != nil {
		return handleK8sError(err, "secret", SecretName)
	}
	return nil
}

func (r *clusterRepository) CreateRuntimeDeployment(ctx context.Context, namespace string) error {
	deployment := buildDeployment(namespace, r.platform.RuntimeImage, int32(r.platform.RuntimePort))
	_, err := r.client.AppsV1().Deployments(namespace).Create(ctx, deployment, metav1.CreateOptions{})
	if err = IgnoreAlreadyExists(err); err != nil {
		return handleK8sError(err, "deployment", DeploymentName)
	}
	r.logger.Info("runtime deployment created",
		"namespace", namespace,
		"image", r.platform.RuntimeImage,
	)
	return nil
}

func (r *clusterRepository) CreateRuntimeService(ctx context.Context, namespace string) error {
	service := buildService(namespace, int32(r.platform.RuntimePort))
	_, err := r.client.CoreV1().Services(namespace).Create(ctx, service, metav1.CreateOptions{})
	if err = IgnoreAlreadyExists(err); err != nil {
		return handleK8sError(err, "service", ServiceName)
	}
	return nil
}

func (r *clusterRepository) CreateNetworkPolicies(ctx context.Context, namespace string) error {
	for _, policy := range buildNetworkPolicies(namespace, r.platform.Namespace) {
		_, err := r.client.NetworkingV1().NetworkPolicies(namespace).Create(ctx, policy, metav1.CreateOptions{})
		if err = IgnoreAlreadyExists(err); err != nil {
			return handleK8sError(err, "network policy", policy.Name)
		}
	}
	return nil
}

func (r *clusterRepository) RuntimeReady(ctx context.Context, namespace string) (bool, error) {
	deployment, err := r.client.AppsV1().Deployments(namespace).Get(ctx, DeploymentName, metav1.GetOptions{})
	if err != nil {
		// The deployment may not be visible yet; keep polling.
		if IgnoreNotFound(err) == nil {
			return false, nil
		}
		return false, handleK8sError(err, "deployment", DeploymentName)
	}

	desired := int32(1)
	if deployment.Spec.Replicas != nil {
		desired = *deployment.Spec.Replicas
	}
	return deployment.Status.ReadyReplicas >= desired, nil
}

func (r *clusterRepository) DeleteRuntimePods(ctx context.Context, namespace string) error {
	selector := labels.Set(workloadLabels()).String()
	err := r.client.CoreV1().Pods(namespace).DeleteCollection(ctx, metav1.DeleteOptions{}, metav1.ListOptions{
		LabelSelector: selector,
	})
	if err = IgnoreNotFound(err); err != nil {
		return handleK8sError(err, "pods", selector)
	}
	r.logger.Info("runtime pods deleted for restart", "namespace", namespace)
	return nil
}

func (r *clusterRepository) DeleteNamespace(ctx context.Context, namespace string) error {
	err := r.client.CoreV1().Namespaces().Delete(ctx, namespace, metav1.DeleteOptions{})
	if err = IgnoreNotFound(err); err != nil {
		return handleK8sError(err, "namespace", namespace)
	}
	r.logger.Info("namespace deleted", "namespace", namespace)
	return nil
}
