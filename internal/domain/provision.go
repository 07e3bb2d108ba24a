package domain

import (
	"context"

	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// ProvisionResult identifies the environment created for an agent.
type ProvisionResult struct {
	Namespace  string
	GatewayURL string
}

// Provisioner orchestrates creation and teardown of an agent's isolated
// runtime environment in the cluster.
type Provisioner interface {
	// Provision creates all cluster resources for the agent in stage order.
	// Status values are sent to updates (which may be nil) as each stage
	// begins; the channel is closed by Provision before it returns. On any
	// stage failure the namespace is deleted best-effort before the error
	// is returned.
	Provision(ctx context.Context, cfg *entity.AgentConfig, updates chan<- entity.ProvisioningStatus) (*ProvisionResult, error)

	// Deprovision deletes the agent's namespace and external route. Absent
	// resources are not an error.
	Deprovision(ctx context.Context, namespace string) error

	// RestartRuntime deletes the runtime pods so the deployment recreates
	// them with current configuration.
	RestartRuntime(ctx context.Context, namespace string) error

	// Status returns the most recent status of an in-flight or recently
	// finished provisioning run for the agent, if any.
	Status(agentID string) (entity.ProvisioningStatus, bool)
}

// ClusterRepository is the typed surface the provisioner needs from the
// cluster control plane. Creation methods are idempotent: an object that
// already exists is treated as created.
type ClusterRepository interface {
	CreateNamespace(ctx context.Context, namespace string, cfg *entity.AgentConfig) error
	CreateResourceQuota(ctx context.Context, namespace string) error
	CreateStateVolume(ctx context.Context, namespace string) error
	CreateAgentConfigMap(ctx context.Context, namespace string, documents map[string]string) error
	CreateCredentialsSecret(ctx context.Context, namespace string, stringData map[string]string) error
	CreateRuntimeDeployment(ctx context.Context, namespace string) error
	CreateRuntimeService(ctx context.Context, namespace string) error
	CreateNetworkPolicies(ctx context.Context, namespace string) error

	// RuntimeReady reports whether the runtime deployment has at least as
	// many ready replicas as desired. A missing deployment is not ready,
	// not an error.
	RuntimeReady(ctx context.Context, namespace string) (bool, error)

	// DeleteRuntimePods deletes the runtime pods, forcing a restart.
	DeleteRuntimePods(ctx context.Context, namespace string) error

	// DeleteNamespace removes the namespace and, by cascade, everything in
	// it. Deleting an absent namespace is a no-op.
	DeleteNamespace(ctx context.Context, namespace string) error
}

// IngressRepository manages the per-agent external route on the shared edge
// proxy. Both operations are idempotent.
type IngressRepository interface {
	CreateRoute(ctx context.Context, namespace, slug string) error
	DeleteRoute(ctx context.Context, namespace string) error
}
