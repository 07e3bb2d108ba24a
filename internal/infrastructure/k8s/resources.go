package k8s

import (
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/Daltonopenclaw/agent-forge/internal/domain/entity"
)

const (
	// Label keys for agent namespaces and workloads.
	LabelApp      = "app.kubernetes.io/name"
	LabelInstance = "app.kubernetes.io/instance"
	LabelTenant   = "agentforge.dev/tenant"
	LabelAgent    = "agentforge.dev/agent"

	// LabelAppValue marks every namespace this platform owns.
	LabelAppValue = "agentforge-agent"

	// Fixed object names inside every agent namespace.
	QuotaName      = "agent-quota"
	VolumeName     = "agent-state"
	ConfigMapName  = "agent-config"
	SecretName     = "agent-credentials"
	DeploymentName = "gateway"
	ServiceName    = "gateway"

	// Network policy names.
	PolicyDenyAll         = "default-deny"
	PolicyAllowEgress     = "allow-gateway-egress"
	PolicyAllowPlatformIn = "allow-platform-ingress"

	// Workload selector label.
	appLabelKey   = "app"
	appLabelValue = "gateway"

	// StateVolumeSize is the per-agent persistent state allocation.
	StateVolumeSize = "1Gi"
)

func workloadLabels() map[string]string {
	return map[string]string{appLabelKey: appLabelValue}
}

func buildNamespace(name string, cfg *entity.AgentConfig) *corev1.Namespace {
	return &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
			Labels: map[string]string{
				LabelApp:      LabelAppValue,
				LabelInstance: cfg.AgentID,
				LabelTenant:   cfg.TenantID,
				LabelAgent:    cfg.AgentID,
			},
		},
	}
}

func buildResourceQuota(namespace string) *corev1.ResourceQuota {
	return &corev1.ResourceQuota{
		ObjectMeta: metav1.ObjectMeta{
			Name:      QuotaName,
			Namespace: namespace,
		},
		Spec: corev1.ResourceQuotaSpec{
			Hard: corev1.ResourceList{
				corev1.ResourcePods:                   resource.MustParse("10"),
				corev1.ResourceRequestsCPU:            resource.MustParse("4"),
				corev1.ResourceRequestsMemory:         resource.MustParse("4Gi"),
				corev1.ResourceLimitsCPU:              resource.MustParse("8"),
				corev1.ResourceLimitsMemory:           resource.MustParse("8Gi"),
				corev1.ResourcePersistentVolumeClaims: resource.MustParse("2"),
				corev1.ResourceRequestsStorage:        resource.MustParse("5Gi"),
			},
		},
	}
}

func buildStateVolume(namespace string) *corev1.PersistentVolumeClaim {
	return &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      VolumeName,
			Namespace: namespace,
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(StateVolumeSize),
				},
			},
		},
	}
}

func buildConfigMap(namespace string, documents map[string]string) *corev1.ConfigMap {
	return &corev1.ConfigMap{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ConfigMapName,
			Namespace: namespace,
		},
		Data: documents,
	}
}

func buildSecret(namespace string, stringData map[string]string) *corev1.Secret {
	return &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      SecretName,
			Namespace: namespace,
		},
		Type:       corev1.SecretTypeOpaque,
		StringData: stringData,
	}
}

func buildDeployment(namespace, image string, port int32) *appsv1.Deployment {
	replicas := int32(1)

	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{
			Name:      DeploymentName,
			Namespace: namespace,
			Labels:    workloadLabels(),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: workloadLabels(),
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: workloadLabels(),
				},
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{
						{
							Name:  "runtime",
							Image: image,
							Ports: []corev1.ContainerPort{
								{ContainerPort: port},
							},
							Env: []corev1.EnvVar{
								{Name: "AGENT_STATE_DIR", Value: "/state"},
								{Name: "AGENT_WORKSPACE", Value: "/state/workspace"},
							},
							EnvFrom: []corev1.EnvFromSource{
								{
									SecretRef: &corev1.SecretEnvSource{
										LocalObjectReference: corev1.LocalObjectReference{
											Name: SecretName,
										},
									},
								},
							},
							VolumeMounts: []corev1.VolumeMount{
								{Name: "state", MountPath: "/state"},
								{Name: "config", MountPath: "/state/workspace", SubPath: "workspace"},
							},
							Resources: corev1.ResourceRequirements{
								Requests: corev1.ResourceList{
									corev1.ResourceMemory: resource.MustParse("512Mi"),
									corev1.ResourceCPU:    resource.MustParse("100m"),
								},
								Limits: corev1.ResourceList{
									corev1.ResourceMemory: resource.MustParse("1Gi"),
									corev1.ResourceCPU:    resource.MustParse("1000m"),
								},
							},
							LivenessProbe: &corev1.Probe{
								ProbeHandler: corev1.ProbeHandler{
									HTTPGet: &corev1.HTTPGetAction{
										Path: "/health",
										Port: intstr.FromInt32(port),
									},
								},
								InitialDelaySeconds: 30,
								PeriodSeconds:       30,
							},
							ReadinessProbe: &corev1.Probe{
								ProbeHandler: corev1.ProbeHandler{
									HTTPGet: &corev1.HTTPGetAction{
										Path: "/health",
										Port: intstr.FromInt32(port),
									},
								},
								InitialDelaySeconds: 10,
								PeriodSeconds:       10,
							},
						},
					},
					Volumes: []corev1.Volume{
						{
							Name: "state",
							VolumeSource: corev1.VolumeSource{
								PersistentVolumeClaim: &corev1.PersistentVolumeClaimVolumeSource{
									ClaimName: VolumeName,
								},
							},
						},
						{
							Name: "config",
							VolumeSource: corev1.VolumeSource{
								ConfigMap: &corev1.ConfigMapVolumeSource{
									LocalObjectReference: corev1.LocalObjectReference{
										Name: ConfigMapName,
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func buildService(namespace string, port int32) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ServiceName,
			Namespace: namespace,
		},
		Spec: corev1.ServiceSpec{
			Selector: workloadLabels(),
			Type:     corev1.ServiceTypeClusterIP,
			Ports: []corev1.ServicePort{
				{Port: port, TargetPort: intstr.FromInt32(port)},
			},
		},
	}
}

// buildNetworkPolicies returns the three per-namespace policies: deny all
// traffic by default, let the runtime reach model provider APIs, and admit
// ingress only from the platform namespace.
func buildNetworkPolicies(namespace, platformNamespace string) []*networkingv1.NetworkPolicy {
	denyAll := &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{
			Name:      PolicyDenyAll,
			Namespace: namespace,
		},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{},
			PolicyTypes: []networkingv1.PolicyType{
				networkingv1.PolicyTypeIngress,
				networkingv1.PolicyTypeEgress,
			},
		},
	}

	allowEgress := &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{
			Name:      PolicyAllowEgress,
			Namespace: namespace,
		},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{
				MatchLabels: workloadLabels(),
			},
			PolicyTypes: []networkingv1.PolicyType{
				networkingv1.PolicyTypeEgress,
			},
			// One empty rule allows all egress.
			Egress: []networkingv1.NetworkPolicyEgressRule{{}},
		},
	}

	allowPlatformIngress := &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{
			Name:      PolicyAllowPlatformIn,
			Namespace: namespace,
		},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{
				MatchLabels: workloadLabels(),
			},
			PolicyTypes: []networkingv1.PolicyType{
				networkingv1.PolicyTypeIngress,
			},
			Ingress: []networkingv1.NetworkPolicyIngressRule{
				{
					From: []networkingv1.NetworkPolicyPeer{
						{
							NamespaceSelector: &metav1.LabelSelector{
								MatchLabels: map[string]string{
									"kubernetes.io/metadata.name": platformNamespace,
								},
							},
						},
					},
				},
			},
		},
	}

	return []*networkingv1.NetworkPolicy{denyAll, allowEgress, allowPlatformIngress}
}
