package auth

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-logr/logr"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

const (
	// DefaultAzureMount is the default mount path for the azure backend.
	DefaultAzureMount = "azure"

	// DefaultAzureMetadataBase is the Azure IMDS base URL.
	DefaultAzureMetadataBase = "http://169.254.169.254"

	// DefaultAzureResource is the audience requested for the MSI access token.
	DefaultAzureResource = "https://management.azure.com/"

	azureTokenAPIVersion = "2018-02-01"
)

// AzureOptions configures Azure MSI authentication: the VM's managed
// identity access token is obtained from IMDS and presented to the backend
// together with the instance coordinates.
type AzureOptions struct {
	// Mount is the auth mount path (default: "azure").
	Mount string

	// Role is the backend role to authenticate as.
	Role string

	// Resource is the token audience (default: Azure Resource Manager).
	// Must match the resource configured on the backend.
	Resource string

	// SubscriptionID, ResourceGroupName, VMName, and VMSSName identify the
	// instance to the backend. Optional fields the backend does not require
	// for the role may stay empty.
	SubscriptionID    string
	ResourceGroupName string
	VMName            string
	VMSSName          string

	// MetadataBase overrides the IMDS base URL, for tests.
	MetadataBase string

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewAzureMethod creates an Azure MSI login method. The access token is
// fetched from IMDS on every login.
func NewAzureMethod(transport vault.Transport, opts AzureOptions) (*Method, error) {
	if opts.Role == "" {
		return nil, autherrors.NewUsageError("azure method requires a role")
	}
	mount := opts.Mount
	if mount == "" {
		mount = DefaultAzureMount
	}
	base := opts.MetadataBase
	if base == "" {
		base = DefaultAzureMetadataBase
	}
	resource := opts.Resource
	if resource == "" {
		resource = DefaultAzureResource
	}

	tokenURL := fmt.Sprintf("%s/metadata/identity/oauth2/token?api-version=%s&resource=%s",
		base, azureTokenAPIVersion, url.QueryEscape(resource))

	pipeline := flow.FromRequest(
		vault.NewRequest(http.MethodGet, tokenURL).
			WithHeader("Metadata", "true").
			Expecting(vault.ResponseJSON)).
		Map(azureLoginPayload(opts)).
		Login("auth/{mount}/login", mount)

	return newMethod("azure", transport, pipeline, opts.Logger)
}

// azureLoginPayload merges the MSI access token with the instance
// coordinates into the backend's login payload.
func azureLoginPayload(opts AzureOptions) flow.MapFunc {
	return func(response interface{}) (interface{}, error) {
		body, ok := response.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("identity endpoint returned %T, expected a JSON object", response)
		}
		accessToken, _ := body["access_token"].(string)
		if accessToken == "" {
			return nil, fmt.Errorf("identity endpoint returned no access token")
		}

		payload := map[string]interface{}{
			"role": opts.Role,
			"jwt":  accessToken,
		}
		if opts.SubscriptionID != "" {
			payload["subscription_id"] = opts.SubscriptionID
		}
		if opts.ResourceGroupName != "" {
			payload["resource_group_name"] = opts.ResourceGroupName
		}
		if opts.VMName != "" {
			payload["vm_name"] = opts.VMName
		}
		if opts.VMSSName != "" {
			payload["vmss_name"] = opts.VMSSName
		}
		return payload, nil
	}
}
