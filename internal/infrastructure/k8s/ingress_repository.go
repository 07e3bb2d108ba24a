package k8s

import (
	"context"
	"fmt"
	"log/slog"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"

	"github.com/Daltonopenclaw/agent-forge/internal/config"
	"github.com/Daltonopenclaw/agent-forge/internal/domain"
	pkgk8s "github.com/Daltonopenclaw/agent-forge/pkg/k8s"
)

const (
	// Fixed object names for the per-agent route.
	RouteName      = "agent-gateway"
	MiddlewareName = "agent-headers"
)

// ingressRepository manages the Traefik IngressRoute and Middleware objects
// that expose an agent's gateway at agent-<slug>.<domain>.
type ingressRepository struct {
	client   dynamic.Interface
	platform config.PlatformConfig
	logger   *slog.Logger
}

// NewIngressRepository creates an ingress repository backed by the dynamic
// client.
func NewIngressRepository(client dynamic.Interface, platform config.PlatformConfig, logger *slog.Logger) domain.IngressRepository {
	return &ingressRepository{
		client:   client,
		platform: platform,
		logger:   logger,
	}
}

// CreateRoute creates the header middleware and the routing rule. The
// middleware is created first because the route references it. Both calls
// swallow already-exists errors.
func (r *ingressRepository) CreateRoute(ctx context.Context, namespace, slug string) error {
	middleware := r.buildMiddleware(namespace)
	_, err := r.client.Resource(pkgk8s.MiddlewareGVR).
		Namespace(namespace).
		Create(ctx, middleware, metav1.CreateOptions{})
	if err = IgnoreAlreadyExists(err); err != nil {
		return handleK8sError(err, "middleware", MiddlewareName)
	}

	route := r.buildRoute(namespace, slug)
	_, err = r.client.Resource(pkgk8s.IngressRouteGVR).
		Namespace(namespace).
		Create(ctx, route, metav1.CreateOptions{})
	if err = IgnoreAlreadyExists(err); err != nil {
		return handleK8sError(err, "ingress route", RouteName)
	}

	r.logger.Info("agent route created",
		"namespace", namespace,
		"hostname", r.hostname(slug),
	)
	return nil
}

// DeleteRoute removes the routing rule and the middleware. Order does not
// matter because both deletions swallow not-found errors.
func (r *ingressRepository) DeleteRoute(ctx context.Context, namespace string) error {
	err := r.client.Resource(pkgk8s.IngressRouteGVR).
		Namespace(namespace).
		Delete(ctx, RouteName, metav1.DeleteOptions{})
	if err = IgnoreNotFound(err); err != nil {
		return handleK8sError(err, "ingress route", RouteName)
	}

	err = r.client.Resource(pkgk8s.MiddlewareGVR).
		Namespace(namespace).
		Delete(ctx, MiddlewareName, metav1.DeleteOptions{})
	if err = IgnoreNotFound(err); err != nil {
		return handleK8sError(err, "middleware", MiddlewareName)
	}

	r.logger.Info("agent route deleted", "namespace", namespace)
	return nil
}

func (r *ingressRepository) hostname(slug string) string {
	return fmt.Sprintf("agent-%s.%s", slug, r.platform.Domain)
}

func (r *ingressRepository) buildRoute(namespace, slug string) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "traefik.io/v1alpha1",
			"kind":       "IngressRoute",
			"metadata": map[string]interface{}{
				"name":      RouteName,
				"namespace": namespace,
				"labels": map[string]interface{}{
					LabelApp:   RouteName,
					LabelAgent: slug,
				},
			},
			"spec": map[string]interface{}{
				"entryPoints": []interface{}{"websecure"},
				"routes": []interface{}{
					map[string]interface{}{
						"match": fmt.Sprintf("Host(`%s`)", r.hostname(slug)),
						"kind":  "Rule",
						"services": []interface{}{
							map[string]interface{}{
								"name": ServiceName,
								"port": int64(r.platform.RuntimePort),
							},
						},
						"middlewares": []interface{}{
							map[string]interface{}{
								"name":      MiddlewareName,
								"namespace": namespace,
							},
						},
					},
				},
				"tls": map[string]interface{}{
					"secretName": r.platform.TLSSecretName,
				},
			},
		},
	}
}

func (r *ingressRepository) buildMiddleware(namespace string) *unstructured.Unstructured {
	return &unstructured.Unstructured{
		Object: map[string]interface{}{
			"apiVersion": "traefik.io/v1alpha1",
			"kind":       "Middleware",
			"metadata": map[string]interface{}{
				"name":      MiddlewareName,
				"namespace": namespace,
			},
			"spec": map[string]interface{}{
				"headers": map[string]interface{}{
					"customRequestHeaders": map[string]interface{}{
						"X-Forwarded-Proto": "https",
					},
				},
			},
		},
	}
}
