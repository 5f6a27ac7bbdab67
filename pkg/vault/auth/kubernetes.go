package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	authv1 "k8s.io/api/authentication/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

const (
	// DefaultKubernetesMount is the default mount path for the kubernetes backend.
	DefaultKubernetesMount = "kubernetes"

	// DefaultKubernetesTokenPath is the default path for mounted service account tokens.
	DefaultKubernetesTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

	// DefaultKubernetesNamespacePath is the path to the mounted namespace file.
	DefaultKubernetesNamespacePath = "/var/run/secrets/kubernetes.io/serviceaccount/namespace"
)

// KubernetesOptions configures Kubernetes service account authentication.
type KubernetesOptions struct {
	// Mount is the auth mount path (default: "kubernetes").
	Mount string

	// Role is the backend role to authenticate as.
	Role string

	// TokenPath is the mounted service account token file (default:
	// DefaultKubernetesTokenPath). Ignored when Supplier is set.
	TokenPath string

	// Supplier overrides the mounted-file supplier, e.g.
	// TokenRequestSupplier for API-issued short-lived tokens.
	Supplier flow.Supplier

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewKubernetesMethod creates a Kubernetes login method. By default the
// service account JWT is read from its mounted path on every login, so
// kubelet rotation is picked up without restarts.
func NewKubernetesMethod(transport vault.Transport, opts KubernetesOptions) (*Method, error) {
	if opts.Role == "" {
		return nil, autherrors.NewUsageError("kubernetes method requires a role")
	}

	supplier := opts.Supplier
	if supplier == nil {
		path := opts.TokenPath
		if path == "" {
			path = DefaultKubernetesTokenPath
		}
		supplier = FileJWTSupplier(path)
	}

	mount := opts.Mount
	if mount == "" {
		mount = DefaultKubernetesMount
	}

	role := opts.Role
	pipeline := flow.FromSupplier(supplier).
		Map(func(jwt interface{}) (interface{}, error) {
			return map[string]interface{}{"jwt": jwt, "role": role}, nil
		}).
		Login("auth/{mount}/login", mount)

	return newMethod("kubernetes", transport, pipeline, opts.Logger)
}

// TokenRequestOptions configures API-issued service account tokens.
type TokenRequestOptions struct {
	// Audiences maps to the token's aud claim (default: ["vault"]).
	Audiences []string

	// Duration is the requested token lifetime (default: 1h).
	Duration time.Duration

	// ServiceAccountName is the account to issue the token for.
	ServiceAccountName string

	// Namespace of the service account.
	Namespace string
}

// DefaultTokenRequestAudiences are the audiences requested when none are given.
var DefaultTokenRequestAudiences = []string{"vault"}

// DefaultTokenRequestDuration is the token lifetime requested when none is given.
const DefaultTokenRequestDuration = 1 * time.Hour

// TokenRequestSupplier produces short-lived service account JWTs through the
// Kubernetes TokenRequest API. Each call issues a fresh token; wrap with
// CachedJWTSupplier to reuse a token until it nears expiry.
func TokenRequestSupplier(client kubernetes.Interface, opts TokenRequestOptions) flow.Supplier {
	return func(ctx context.Context) (interface{}, error) {
		if opts.ServiceAccountName == "" || opts.Namespace == "" {
			return nil, autherrors.NewUsageError("token request supplier requires a service account name and namespace")
		}

		audiences := opts.Audiences
		if len(audiences) == 0 {
			audiences = DefaultTokenRequestAudiences
		}
		duration := opts.Duration
		if duration == 0 {
			duration = DefaultTokenRequestDuration
		}
		expirationSeconds := int64(duration.Seconds())

		tokenRequest := &authv1.TokenRequest{
			Spec: authv1.TokenRequestSpec{
				Audiences:         audiences,
				ExpirationSeconds: &expirationSeconds,
			},
		}

		result, err := client.CoreV1().ServiceAccounts(opts.Namespace).
			CreateToken(ctx, opts.ServiceAccountName, tokenRequest, metav1.CreateOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create token request: %w", err)
		}
		return result.Status.Token, nil
	}
}
