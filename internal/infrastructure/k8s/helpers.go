package k8s

import (
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	"github.com/Daltonopenclaw/agent-forge/internal/domain"
)

// IgnoreAlreadyExists swallows already-exists errors so that re-entrant
// provisioning attempts converge instead of failing. Every creation call in
// this package goes through it.
func IgnoreAlreadyExists(err error) error {
	if apierrors.IsAlreadyExists(err) {
		return nil
	}
	return err
}

// IgnoreNotFound swallows not-found errors so that deprovisioning an
// already-deleted resource is a no-op. Every deletion call in this package
// goes through it.
func IgnoreNotFound(err error) error {
	if apierrors.IsNotFound(err) {
		return nil
	}
	return err
}

// handleK8sError translates Kubernetes API errors into domain errors so the
// layers above never import apimachinery.
func handleK8sError(err error, resourceType, name string) error {
	if apierrors.IsNotFound(err) {
		return domain.NewNotFoundError(resourceType, name)
	}
	if apierrors.IsAlreadyExists(err) {
		return domain.NewAlreadyExistsError(resourceType, name)
	}
	if apierrors.IsConflict(err) {
		return domain.NewConflictError(fmt.Sprintf("%s '%s' has been modified", resourceType, name))
	}
	if apierrors.IsForbidden(err) {
		return fmt.Errorf("%w: %v", domain.ErrForbidden, err)
	}
	if apierrors.IsUnauthorized(err) {
		return fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if apierrors.IsInvalid(err) || apierrors.IsBadRequest(err) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return domain.NewInternalError(err)
}
