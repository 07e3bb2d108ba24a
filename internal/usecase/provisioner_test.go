package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Daltonopenclaw/agent-forge/internal/config"
	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

// Stub ClusterRepository recording the order of calls, with injectable
// failures and configurable readiness behavior.
type testClusterRepository struct {
	calls         []string
	failOn        string
	failErr       error
	readyAfter    int // number of RuntimeReady polls before reporting ready
	readyPolls    int
	configMaps    map[string]map[string]string
	secrets       map[string]map[string]string
	deletedNS     []string
	deletedPodsNS []string
}

func newTestClusterRepository() *testClusterRepository {
	return &testClusterRepository{
		configMaps: make(map[string]map[string]string),
		secrets:    make(map[string]map[string]string),
	}
}

func (r *testClusterRepository) record(call string) error {
	r.calls = append(r.calls, call)
	if r.failOn == call {
		if r.failErr != nil {
			return r.failErr
		}
		return errors.New("injected failure: " + call)
	}
	return nil
}

func (r *testClusterRepository) CreateNamespace(ctx context.Context, namespace string, cfg *entity.AgentConfig) error {
	return r.record("CreateNamespace")
}

func (r *testClusterRepository) CreateResourceQuota(ctx context.Context, namespace string) error {
	return r.record("CreateResourceQuota")
}

func (r *testClusterRepository) CreateStateVolume(ctx context.Context, namespace string) error {
	return r.record("CreateStateVolume")
}

func (r *testClusterRepository) CreateAgentConfigMap(ctx context.Context, namespace string, documents map[string]string) error {
	r.configMaps[namespace] = documents
	return r.record("CreateAgentConfigMap")
}

func (r *testClusterRepository) CreateCredentialsSecret(ctx context.Context, namespace string, stringData map[string]string) error {
	r.secrets[namespace] = stringData
	return r.record("CreateCredentialsSecret")
}

func (r *testClusterRepository) CreateRuntimeDeployment(ctx context.Context, namespace string) error {
	return r.record("CreateRuntimeDeployment")
}

func (r *testClusterRepository) CreateRuntimeService(ctx context.Context, namespace string) error {
	return r.record("CreateRuntimeService")
}

func (r *testClusterRepository) CreateNetworkPolicies(ctx context.Context, namespace string) error {
	return r.record("CreateNetworkPolicies")
}

func (r *testClusterRepository) RuntimeReady(ctx context.Context, namespace string) (bool, error) {
	if err := r.record("RuntimeReady"); err != nil {
		return false, err
	}
	r.readyPolls++
	return r.readyPolls > r.readyAfter, nil
}

func (r *testClusterRepository) DeleteRuntimePods(ctx context.Context, namespace string) error {
	r.deletedPodsNS = append(r.deletedPodsNS, namespace)
	return r.record("DeleteRuntimePods")
}

func (r *testClusterRepository) DeleteNamespace(ctx context.Context, namespace string) error {
	r.deletedNS = append(r.deletedNS, namespace)
	return r.record("DeleteNamespace")
}

type testIngressRepository struct {
	created []string
	deleted []string
	failErr error
}

func (r *testIngressRepository) CreateRoute(ctx context.Context, namespace, slug string) error {
	if r.failErr != nil {
		return r.failErr
	}
	r.created = append(r.created, namespace+"/"+slug)
	return nil
}

func (r *testIngressRepository) DeleteRoute(ctx context.Context, namespace string) error {
	r.deleted = append(r.deleted, namespace)
	return nil
}

func testProvisioner(cluster *testClusterRepository, ingress *testIngressRepository) domain.Provisioner {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProvisioner(
		cluster,
		ingress,
		config.PlatformConfig{Domain: "agents.example.com", RuntimePort: 4444},
		config.ProvidersConfig{OpenRouterAPIKey: "pooled-or-key", OpenAIAPIKey: ""},
		config.ProvisionerConfig{ReadyTimeout: time.Second, PollInterval: time.Millisecond},
		logger,
	)
}

func testAgentConfig() *entity.AgentConfig {
	return &entity.AgentConfig{
		AgentID:         "3f8a2b1c-9d4e-4f6a-b1c2-d3e4f5a6b7c8",
		TenantID:        "tenant-1",
		Name:            "Atlas",
		PersonalityType: "personal-assistant",
		ModelTier:       entity.ModelTierSmart,
	}
}

func collectUpdates(t *testing.T, updates <-chan entity.ProvisioningStatus) []entity.ProvisioningStatus {
	t.Helper()
	var got []entity.ProvisioningStatus
	for status := range updates {
		got = append(got, status)
	}
	return got
}

func TestProvisionSuccess(t *testing.T) {
	cluster := newTestClusterRepository()
	ingress := &testIngressRepository{}
	p := testProvisioner(cluster, ingress)

	updates := make(chan entity.ProvisioningStatus, 32)
	result, err := p.Provision(context.Background(), testAgentConfig(), updates)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	if result.Namespace != "agent-atlas-3f8a2b1c" {
		t.Errorf("namespace = %q, want %q", result.Namespace, "agent-atlas-3f8a2b1c")
	}
	if result.GatewayURL != "https://agent-atlas-3f8a2b1c.agents.example.com" {
		t.Errorf("gateway URL = %q", result.GatewayURL)
	}

	got := collectUpdates(t, updates)
	wantStages := []entity.Stage{
		entity.StageNamespace,
		entity.StageStorage,
		entity.StageConfig,
		entity.StageSecrets,
		entity.StageDeployment,
		entity.StageHealth,
		entity.StageIngress,
		entity.StageComplete,
	}
	if len(got) != len(wantStages) {
		t.Fatalf("got %d updates, want %d: %+v", len(got), len(wantStages), got)
	}
	for i, want := range wantStages {
		if got[i].Stage != want {
			t.Errorf("update[%d].Stage = %s, want %s", i, got[i].Stage, want)
		}
	}

	// Progress is strictly non-decreasing and ends at 100.
	last := -1
	for i, status := range got {
		if status.Progress < last {
			t.Errorf("update[%d] progress %d decreased from %d", i, status.Progress, last)
		}
		last = status.Progress
	}
	if last != 100 {
		t.Errorf("final progress = %d, want 100", last)
	}

	if len(ingress.created) != 1 || ingress.created[0] != "agent-atlas-3f8a2b1c/atlas-3f8a2b1c" {
		t.Errorf("ingress routes created = %v", ingress.created)
	}
	if len(cluster.deletedNS) != 0 {
		t.Errorf("no namespace should be deleted on success, got %v", cluster.deletedNS)
	}

	status, ok := p.Status("3f8a2b1c-9d4e-4f6a-b1c2-d3e4f5a6b7c8")
	if !ok || status.Stage != entity.StageComplete {
		t.Errorf("Status() = %+v, %v, want complete", status, ok)
	}
}

func TestProvisionStageOrder(t *testing.T) {
	cluster := newTestClusterRepository()
	p := testProvisioner(cluster, &testIngressRepository{})

	if _, err := p.Provision(context.Background(), testAgentConfig(), nil); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	want := []string{
		"CreateNamespace",
		"CreateResourceQuota",
		"CreateStateVolume",
		"CreateAgentConfigMap",
		"CreateCredentialsSecret",
		"CreateRuntimeDeployment",
		"CreateRuntimeService",
		"CreateNetworkPolicies",
		"RuntimeReady",
	}
	if len(cluster.calls) != len(want) {
		t.Fatalf("calls = %v", cluster.calls)
	}
	for i := range want {
		if cluster.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, cluster.calls[i], want[i])
		}
	}
}

func TestProvisionRollbackOnFailure(t *testing.T) {
	tests := []struct {
		name         string
		failOn       string
		wantStage    entity.Stage
		minProgress  int
		wantIngress  bool
		ingressError error
	}{
		{
			name:        "storage failure rolls back namespace",
			failOn:      "CreateStateVolume",
			wantStage:   entity.StageStorage,
			minProgress: 25,
		},
		{
			name:        "secret failure rolls back namespace",
			failOn:      "CreateCredentialsSecret",
			wantStage:   entity.StageSecrets,
			minProgress: 55,
		},
		{
			name:         "ingress failure rolls back namespace",
			ingressError: errors.New("injected failure: CreateRoute"),
			wantStage:    entity.StageIngress,
			minProgress:  95,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cluster := newTestClusterRepository()
			cluster.failOn = tt.failOn
			ingress := &testIngressRepository{failErr: tt.ingressError}
			p := testProvisioner(cluster, ingress)

			updates := make(chan entity.ProvisioningStatus, 32)
			_, err := p.Provision(context.Background(), testAgentConfig(), updates)
			if err == nil {
				t.Fatal("Provision() succeeded, want error")
			}

			if len(cluster.deletedNS) != 1 || cluster.deletedNS[0] != "agent-atlas-3f8a2b1c" {
				t.Errorf("rollback deleted namespaces = %v, want [agent-atlas-3f8a2b1c]", cluster.deletedNS)
			}

			got := collectUpdates(t, updates)
			if len(got) == 0 {
				t.Fatal("no updates received")
			}
			final := got[len(got)-1]
			if final.Stage != entity.StageError {
				t.Errorf("final stage = %s, want error", final.Stage)
			}
			if final.Error == "" {
				t.Error("error status carries no error detail")
			}
			// Error status retains the progress of the failed stage.
			if final.Progress < tt.minProgress {
				t.Errorf("error progress = %d, want >= %d", final.Progress, tt.minProgress)
			}

			status, ok := p.Status("3f8a2b1c-9d4e-4f6a-b1c2-d3e4f5a6b7c8")
			if !ok || status.Stage != entity.StageError {
				t.Errorf("Status() = %+v, %v, want error stage", status, ok)
			}
		})
	}
}

func TestProvisionReadinessTimeout(t *testing.T) {
	cluster := newTestClusterRepository()
	cluster.readyAfter = 1 << 30 // never ready
	p := testProvisioner(cluster, &testIngressRepository{})

	_, err := p.Provision(context.Background(), testAgentConfig(), nil)
	if err == nil {
		t.Fatal("Provision() succeeded, want readiness timeout")
	}
	if !strings.Contains(err.Error(), "timeout waiting for agent runtime") {
		t.Errorf("error = %v, want readiness timeout", err)
	}
	if len(cluster.deletedNS) != 1 {
		t.Errorf("namespace not rolled back after timeout: %v", cluster.deletedNS)
	}
	if cluster.readyPolls < 2 {
		t.Errorf("readiness was polled %d times, want repeated polling", cluster.readyPolls)
	}
}

func TestProvisionReadinessEventuallyReady(t *testing.T) {
	cluster := newTestClusterRepository()
	cluster.readyAfter = 3
	p := testProvisioner(cluster, &testIngressRepository{})

	if _, err := p.Provision(context.Background(), testAgentConfig(), nil); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if cluster.readyPolls != 4 {
		t.Errorf("readiness polls = %d, want 4", cluster.readyPolls)
	}
}

func TestProvisionValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.AgentConfig)
	}{
		{"missing agent id", func(c *entity.AgentConfig) { c.AgentID = "" }},
		{"missing tenant id", func(c *entity.AgentConfig) { c.TenantID = "" }},
		{"missing name", func(c *entity.AgentConfig) { c.Name = "" }},
		{"name with no usable characters", func(c *entity.AgentConfig) { c.Name = "!!!" }},
		{"invalid model tier", func(c *entity.AgentConfig) { c.ModelTier = "turbo" }},
		{"invalid key provider", func(c *entity.AgentConfig) {
			c.BYOKAPIKey = "sk-123"
			c.BYOKProvider = "cohere"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cluster := newTestClusterRepository()
			p := testProvisioner(cluster, &testIngressRepository{})

			cfg := testAgentConfig()
			tt.mutate(cfg)

			_, err := p.Provision(context.Background(), cfg, nil)
			if err == nil {
				t.Fatal("Provision() succeeded, want validation error")
			}
			if !domain.IsInvalidInput(err) {
				t.Errorf("error = %v, want invalid input", err)
			}
			// Validation failures never touch the cluster.
			if len(cluster.calls) != 0 {
				t.Errorf("cluster was touched: %v", cluster.calls)
			}
		})
	}
}

func TestCredentialSelection(t *testing.T) {
	tests := []struct {
		name         string
		byokProvider entity.BYOKProvider
		byokKey      string
		poolOpenAI   string
		want         map[string]string
	}{
		{
			name: "pooled key only",
			want: map[string]string{"OPENROUTER_API_KEY": "pooled-or-key"},
		},
		{
			name:         "anthropic BYOK replaces pooled key",
			byokProvider: entity.BYOKProviderAnthropic,
			byokKey:      "sk-ant-own",
			want:         map[string]string{"ANTHROPIC_API_KEY": "sk-ant-own"},
		},
		{
			name:         "openai BYOK keeps pooled key",
			byokProvider: entity.BYOKProviderOpenAI,
			byokKey:      "sk-oai-own",
			want: map[string]string{
				"OPENROUTER_API_KEY": "pooled-or-key",
				"OPENAI_API_KEY":     "sk-oai-own",
			},
		},
		{
			name:       "platform openai key installed alongside pooled key",
			poolOpenAI: "sk-oai-pool",
			want: map[string]string{
				"OPENROUTER_API_KEY": "pooled-or-key",
				"OPENAI_API_KEY":     "sk-oai-pool",
			},
		},
		{
			name:         "openai BYOK overrides platform openai key",
			byokProvider: entity.BYOKProviderOpenAI,
			byokKey:      "sk-oai-own",
			poolOpenAI:   "sk-oai-pool",
			want: map[string]string{
				"OPENROUTER_API_KEY": "pooled-or-key",
				"OPENAI_API_KEY":     "sk-oai-own",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cluster := newTestClusterRepository()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			p := NewProvisioner(
				cluster,
				&testIngressRepository{},
				config.PlatformConfig{Domain: "agents.example.com"},
				config.ProvidersConfig{OpenRouterAPIKey: "pooled-or-key", OpenAIAPIKey: tt.poolOpenAI},
				config.ProvisionerConfig{ReadyTimeout: time.Second, PollInterval: time.Millisecond},
				logger,
			)

			cfg := testAgentConfig()
			cfg.BYOKProvider = tt.byokProvider
			cfg.BYOKAPIKey = tt.byokKey

			if _, err := p.Provision(context.Background(), cfg, nil); err != nil {
				t.Fatalf("Provision() error = %v", err)
			}

			got := cluster.secrets["agent-atlas-3f8a2b1c"]
			if len(got) != len(tt.want) {
				t.Fatalf("secret data = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("secret[%s] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestProvisionConfigMapDocuments(t *testing.T) {
	cluster := newTestClusterRepository()
	p := testProvisioner(cluster, &testIngressRepository{})

	if _, err := p.Provision(context.Background(), testAgentConfig(), nil); err != nil {
		t.Fatalf("Provision() error = %v", err)
	}

	docs := cluster.configMaps["agent-atlas-3f8a2b1c"]
	for _, name := range []string{"config.json5", "IDENTITY.md", "SOUL.md", "AGENTS.md", "USER.md", "MEMORY.md", "TOOLS.md", "HEARTBEAT.md"} {
		if _, ok := docs[name]; !ok {
			t.Errorf("config map missing document %s", name)
		}
	}
	if !strings.Contains(docs["SOUL.md"], "Atlas") {
		t.Error("soul document does not carry the agent name")
	}
}

func TestDeprovision(t *testing.T) {
	cluster := newTestClusterRepository()
	ingress := &testIngressRepository{}
	p := testProvisioner(cluster, ingress)

	if err := p.Deprovision(context.Background(), "agent-atlas-3f8a2b1c"); err != nil {
		t.Fatalf("Deprovision() error = %v", err)
	}
	if len(ingress.deleted) != 1 || ingress.deleted[0] != "agent-atlas-3f8a2b1c" {
		t.Errorf("ingress deletions = %v", ingress.deleted)
	}
	if len(cluster.deletedNS) != 1 || cluster.deletedNS[0] != "agent-atlas-3f8a2b1c" {
		t.Errorf("namespace deletions = %v", cluster.deletedNS)
	}

	// Repeated deprovision is a no-op; the repositories swallow not-found.
	if err := p.Deprovision(context.Background(), "agent-atlas-3f8a2b1c"); err != nil {
		t.Fatalf("second Deprovision() error = %v", err)
	}
}

func TestRestartRuntime(t *testing.T) {
	cluster := newTestClusterRepository()
	p := testProvisioner(cluster, &testIngressRepository{})

	if err := p.RestartRuntime(context.Background(), "agent-atlas-3f8a2b1c"); err != nil {
		t.Fatalf("RestartRuntime() error = %v", err)
	}
	if len(cluster.deletedPodsNS) != 1 || cluster.deletedPodsNS[0] != "agent-atlas-3f8a2b1c" {
		t.Errorf("pod deletions = %v", cluster.deletedPodsNS)
	}
}

func TestStatusUnknownAgent(t *testing.T) {
	p := testProvisioner(newTestClusterRepository(), &testIngressRepository{})
	if _, ok := p.Status("no-such-agent"); ok {
		t.Error("Status() reported an unknown agent")
	}
}
