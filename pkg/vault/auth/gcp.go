package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iamcredentials/v1"
	"google.golang.org/api/option"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

const (
	// DefaultGCPMount is the default mount path for the gcp backend.
	DefaultGCPMount = "gcp"

	// DefaultGCEMetadataBase is the GCE metadata server base URL.
	DefaultGCEMetadataBase = "http://metadata.google.internal/computeMetadata/v1"
)

// GCPIAMOptions configures GCP IAM authentication: the login JWT is signed
// by the IAM credentials API on behalf of a service account. Works with
// Workload Identity on GKE and with Application Default Credentials.
type GCPIAMOptions struct {
	// Mount is the auth mount path (default: "gcp").
	Mount string

	// Role is the backend role to authenticate as. It also becomes part of
	// the JWT audience (vault/<role>).
	Role string

	// ServiceAccountEmail is the signing service account. Auto-detected
	// from ADC or the metadata server when empty.
	ServiceAccountEmail string

	// CredentialsJSON is optional service account credentials. Empty uses
	// Application Default Credentials or Workload Identity.
	CredentialsJSON []byte

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewGCPIAMMethod creates a GCP IAM login method. A fresh IAM-signed JWT is
// produced per login because the backend requires a short exp claim.
func NewGCPIAMMethod(transport vault.Transport, opts GCPIAMOptions) (*Method, error) {
	if opts.Role == "" {
		return nil, autherrors.NewUsageError("gcp-iam method requires a role")
	}
	mount := opts.Mount
	if mount == "" {
		mount = DefaultGCPMount
	}

	role := opts.Role
	pipeline := flow.FromSupplier(IAMSignedJWTSupplier(opts)).
		Map(func(jwt interface{}) (interface{}, error) {
			return map[string]interface{}{"role": role, "jwt": jwt}, nil
		}).
		Login("auth/{mount}/login", mount)

	return newMethod("gcp-iam", transport, pipeline, opts.Logger)
}

// IAMSignedJWTSupplier produces a Vault-audience JWT signed by the IAM
// credentials API.
func IAMSignedJWTSupplier(opts GCPIAMOptions) flow.Supplier {
	return func(ctx context.Context) (interface{}, error) {
		return generateIAMSignedJWT(ctx, opts)
	}
}

func generateIAMSignedJWT(ctx context.Context, opts GCPIAMOptions) (string, error) {
	saEmail := opts.ServiceAccountEmail
	if saEmail == "" {
		var err error
		saEmail, err = DetectGCPServiceAccountEmail(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to determine service account email: %w", err)
		}
	}

	var clientOpts []option.ClientOption
	if len(opts.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, opts.CredentialsJSON,
			iamcredentials.CloudPlatformScope)
		if err != nil {
			return "", fmt.Errorf("failed to parse credentials JSON: %w", err)
		}
		clientOpts = append(clientOpts, option.WithCredentials(creds))
	}

	iamService, err := iamcredentials.NewService(ctx, clientOpts...)
	if err != nil {
		return "", fmt.Errorf("failed to create IAM credentials service: %w", err)
	}

	now := time.Now()
	claims := map[string]interface{}{
		"aud": fmt.Sprintf("vault/%s", opts.Role),
		"sub": saEmail,
		"iat": now.Unix(),
		"exp": now.Add(15 * time.Minute).Unix(),
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JWT claims: %w", err)
	}

	name := fmt.Sprintf("projects/-/serviceAccounts/%s", saEmail)
	signResp, err := iamService.Projects.ServiceAccounts.
		SignJwt(name, &iamcredentials.SignJwtRequest{Payload: string(claimsJSON)}).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signResp.SignedJwt, nil
}

// GCPGCEOptions configures GCP GCE authentication: the instance proves its
// identity with a metadata-server identity token.
type GCPGCEOptions struct {
	// Mount is the auth mount path (default: "gcp").
	Mount string

	// Role is the backend role to authenticate as. It also becomes part of
	// the identity token's audience (vault/<role>).
	Role string

	// MetadataBase overrides the metadata server base URL, for tests.
	MetadataBase string

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewGCPGCEMethod creates a GCP GCE login method. The identity token is
// fetched from the metadata server on every login.
func NewGCPGCEMethod(transport vault.Transport, opts GCPGCEOptions) (*Method, error) {
	if opts.Role == "" {
		return nil, autherrors.NewUsageError("gcp-gce method requires a role")
	}
	mount := opts.Mount
	if mount == "" {
		mount = DefaultGCPMount
	}
	base := opts.MetadataBase
	if base == "" {
		base = DefaultGCEMetadataBase
	}

	identityURL := fmt.Sprintf(
		"%s/instance/service-accounts/default/identity?audience=%s&format=full",
		base, url.QueryEscape("vault/"+opts.Role),
	)

	role := opts.Role
	pipeline := flow.FromRequest(
		vault.NewRequest(http.MethodGet, identityURL).
			WithHeader("Metadata-Flavor", "Google").
			Expecting(vault.ResponseText)).
		Map(func(jwt interface{}) (interface{}, error) {
			identity, ok := jwt.(string)
			if !ok || identity == "" {
				return nil, fmt.Errorf("metadata server returned no identity token")
			}
			return map[string]interface{}{"role": role, "jwt": identity}, nil
		}).
		Login("auth/{mount}/login", mount)

	return newMethod("gcp-gce", transport, pipeline, opts.Logger)
}

// DetectGCPServiceAccountEmail determines the service account email from the
// environment, Application Default Credentials, or the metadata server.
func DetectGCPServiceAccountEmail(ctx context.Context) (string, error) {
	if email := os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"); email != "" {
		return email, nil
	}

	creds, err := google.FindDefaultCredentials(ctx)
	if err == nil && creds.JSON != nil {
		var credData struct {
			ClientEmail string `json:"client_email"`
		}
		if json.Unmarshal(creds.JSON, &credData) == nil && credData.ClientEmail != "" {
			return credData.ClientEmail, nil
		}
	}

	return emailFromMetadata(ctx)
}

func emailFromMetadata(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		DefaultGCEMetadataBase+"/instance/service-accounts/default/email", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Metadata-Flavor", "Google")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	email := strings.TrimSpace(string(body))
	if email == "" {
		return "", fmt.Errorf("empty service account email from metadata")
	}
	return email, nil
}
