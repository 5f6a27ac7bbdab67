/*
Package auth provides the login method adapters for Vault's auth backends.

Each adapter declares its login flow as a pipeline (construction only, no
I/O) and implements session.LoginMethod through a shared executor, so every
method can be run eagerly, deferred, or behind a session manager.

# Supported Authentication Methods

  - token.go: externally supplied static token (no login call)
  - userpass.go: username/password login
  - approle.go: AppRole role_id/secret_id login
  - jwt.go: JWT/OIDC login with static, file, or expiry-cached suppliers
  - kubernetes.go: service account JWT, mounted file or TokenRequest API
  - aws.go: AWS IAM (signed STS GetCallerIdentity) and EC2 (IMDS identity document)
  - gcp.go: GCP IAM (IAM-signed service account JWT) and GCE (metadata identity)
  - azure.go: Azure MSI access token from IMDS
  - cubbyhole.go: response-unwrapping of a wrapped token
  - nonce.go: stable nonce cache for the EC2 flow

# Common Pattern

Each adapter follows a consistent pattern:

 1. Options struct - configuration with sensible mount defaults
 2. New*Method constructor - builds the pipeline and validates configuration
 3. Supplier helpers - credential/metadata discovery for that provider

# Usage

	method, err := auth.NewJWTMethod(client, auth.JWTOptions{
	    Role:     "my-role",
	    Supplier: auth.FileJWTSupplier("/var/run/secrets/tokens/vault-token"),
	})
	if err != nil {
	    log.Fatal(err)
	}

	manager := session.NewManager(method, session.ManagerOptions{})
	tok, err := manager.Token(ctx)
*/
package auth
