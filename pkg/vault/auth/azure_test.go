package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/panteparak/vault-authkit/pkg/vault"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

func TestAzureMethod(t *testing.T) {
	transport := &scriptedTransport{handle: func(req *vault.Request) (interface{}, error) {
		uri, err := req.ResolveURI()
		if err != nil {
			return nil, err
		}
		if strings.Contains(uri, "/metadata/identity/oauth2/token") {
			return map[string]interface{}{
				"access_token": "msi-access-token",
				"expires_in":   "3599",
			}, nil
		}
		return loginOK("s.azure")(req)
	}}

	method, err := NewAzureMethod(transport, AzureOptions{
		Role:              "my-role",
		SubscriptionID:    "sub-1",
		ResourceGroupName: "rg-1",
		VMName:            "vm-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method.Name() != "azure" {
		t.Errorf("Name() = %q", method.Name())
	}

	tok, err := method.Login(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.ClientToken != "s.azure" {
		t.Errorf("ClientToken = %q", tok.ClientToken)
	}

	tokenReq := transport.call(0)
	uri := resolvedURI(t, tokenReq)
	if !strings.Contains(uri, "api-version=2018-02-01") {
		t.Errorf("token URI %q must pin the IMDS api-version", uri)
	}
	if !strings.Contains(uri, "resource=https%3A%2F%2Fmanagement.azure.com%2F") {
		t.Errorf("token URI %q must carry the escaped resource", uri)
	}
	if tokenReq.Headers.Get("Metadata") != "true" {
		t.Error("IMDS requests require the Metadata header")
	}
	if tokenReq.Response != vault.ResponseJSON {
		t.Error("IMDS token response must be parsed as JSON")
	}

	loginReq := transport.call(1)
	if got := resolvedURI(t, loginReq); got != "auth/azure/login" {
		t.Errorf("login path = %q", got)
	}
	body := loginReq.Body.(map[string]interface{})
	if body["jwt"] != "msi-access-token" || body["role"] != "my-role" {
		t.Errorf("payload = %v", body)
	}
	if body["subscription_id"] != "sub-1" || body["resource_group_name"] != "rg-1" || body["vm_name"] != "vm-1" {
		t.Errorf("instance coordinates missing from payload: %v", body)
	}
	if _, present := body["vmss_name"]; present {
		t.Error("empty coordinates must be omitted")
	}
}

func TestAzureMethodMissingAccessTokenFails(t *testing.T) {
	transport := &scriptedTransport{handle: func(req *vault.Request) (interface{}, error) {
		uri, _ := req.ResolveURI()
		if strings.Contains(uri, "oauth2/token") {
			return map[string]interface{}{"error": "identity not found"}, nil
		}
		return loginOK("s.x")(req)
	}}

	method, err := NewAzureMethod(transport, AzureOptions{Role: "my-role"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := method.Login(context.Background()); err == nil {
		t.Fatal("expected error for missing access token")
	}
	if transport.callCount() != 1 {
		t.Error("login must not be attempted without an access token")
	}
}

func TestAzureMethodRequiresRole(t *testing.T) {
	transport := &scriptedTransport{handle: loginOK("s.x")}
	if _, err := NewAzureMethod(transport, AzureOptions{}); !autherrors.IsUsageError(err) {
		t.Errorf("expected UsageError, got %v", err)
	}
}
