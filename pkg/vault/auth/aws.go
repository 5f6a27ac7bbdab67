package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/go-logr/logr"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/flow"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

const (
	// DefaultAWSMount is the default mount path for the aws backend.
	DefaultAWSMount = "aws"

	// DefaultIMDSBase is the EC2 instance metadata service base URL.
	DefaultIMDSBase = "http://169.254.169.254"

	// imdsIdentityPKCS7Path is the IMDS path of the PKCS#7-signed instance
	// identity document.
	imdsIdentityPKCS7Path = "/latest/dynamic/instance-identity/pkcs7"
)

// AWSIAMOptions configures AWS IAM authentication: the login payload is a
// presigned STS GetCallerIdentity request the backend replays to verify the
// caller's identity. Works with IRSA on EKS and with instance profiles.
type AWSIAMOptions struct {
	// Mount is the auth mount path (default: "aws").
	Mount string

	// Role is the backend role to authenticate as.
	Role string

	// Region is the AWS region (auto-detected if empty).
	Region string

	// STSEndpoint overrides the default STS endpoint.
	STSEndpoint string

	// IAMServerIDHeaderValue sets the X-Vault-AWS-IAM-Server-ID header.
	// This must match the value configured in the backend.
	IAMServerIDHeaderValue string

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewAWSIAMMethod creates an AWS IAM login method. The identity payload is
// re-signed on every login because presigned requests expire quickly.
func NewAWSIAMMethod(transport vault.Transport, opts AWSIAMOptions) (*Method, error) {
	if opts.Role == "" {
		return nil, autherrors.NewUsageError("aws-iam method requires a role")
	}
	mount := opts.Mount
	if mount == "" {
		mount = DefaultAWSMount
	}

	role := opts.Role
	pipeline := flow.FromSupplier(IAMLoginSupplier(opts)).
		Map(func(loginData interface{}) (interface{}, error) {
			payload, ok := loginData.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("iam supplier produced %T, expected a login payload", loginData)
			}
			payload["role"] = role
			return payload, nil
		}).
		Login("auth/{mount}/login", mount)

	return newMethod("aws-iam", transport, pipeline, opts.Logger)
}

// IAMLoginSupplier produces the signed STS GetCallerIdentity payload for the
// aws backend's iam login type.
func IAMLoginSupplier(opts AWSIAMOptions) flow.Supplier {
	return func(ctx context.Context) (interface{}, error) {
		return generateIAMLoginData(ctx, opts)
	}
}

// generateIAMLoginData presigns a GetCallerIdentity request and encodes its
// components the way the backend expects them.
func generateIAMLoginData(ctx context.Context, opts AWSIAMOptions) (map[string]interface{}, error) {
	awsCfg, err := loadAWSConfig(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	stsClient := sts.NewFromConfig(awsCfg, func(o *sts.Options) {
		if opts.STSEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.STSEndpoint)
		}
	})

	presignClient := sts.NewPresignClient(stsClient)
	presignedReq, err := presignClient.PresignGetCallerIdentity(ctx, &sts.GetCallerIdentityInput{},
		func(po *sts.PresignOptions) {
			po.Presigner = newStsPresigner(po.Presigner, opts.IAMServerIDHeaderValue)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to presign GetCallerIdentity: %w", err)
	}

	parsedURL, err := url.Parse(presignedReq.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse presigned URL: %w", err)
	}

	return map[string]interface{}{
		"iam_http_request_method": presignedReq.Method,
		"iam_request_url":         base64.StdEncoding.EncodeToString([]byte(presignedReq.URL)),
		"iam_request_body":        base64.StdEncoding.EncodeToString([]byte("Action=GetCallerIdentity&Version=2011-06-15")),
		"iam_request_headers":     buildIAMRequestHeaders(parsedURL.Host, opts.IAMServerIDHeaderValue),
	}, nil
}

// loadAWSConfig loads AWS configuration with support for IRSA.
// IRSA injects AWS_WEB_IDENTITY_TOKEN_FILE and AWS_ROLE_ARN.
func loadAWSConfig(ctx context.Context, opts AWSIAMOptions) (aws.Config, error) {
	var configOpts []func(*config.LoadOptions) error

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}

	if tokenFile := os.Getenv("AWS_WEB_IDENTITY_TOKEN_FILE"); tokenFile != "" {
		roleARN := os.Getenv("AWS_ROLE_ARN")
		if roleARN == "" {
			return aws.Config{}, fmt.Errorf("AWS_ROLE_ARN not set but AWS_WEB_IDENTITY_TOKEN_FILE is present")
		}

		baseCfg, err := config.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return aws.Config{}, fmt.Errorf("failed to load base AWS config: %w", err)
		}

		stsClient := sts.NewFromConfig(baseCfg)
		webIdentityProvider := stscreds.NewWebIdentityRoleProvider(
			stsClient,
			roleARN,
			stscreds.IdentityTokenFile(tokenFile),
			func(o *stscreds.WebIdentityRoleOptions) {
				if sessionName := os.Getenv("AWS_ROLE_SESSION_NAME"); sessionName != "" {
					o.RoleSessionName = sessionName
				}
			},
		)

		configOpts = append(configOpts, config.WithCredentialsProvider(webIdentityProvider))
	}

	return config.LoadDefaultConfig(ctx, configOpts...)
}

// buildIAMRequestHeaders builds the base64 headers JSON for the iam login payload.
func buildIAMRequestHeaders(host, serverIDHeader string) string {
	headers := map[string][]string{
		"Host":         {host},
		"Content-Type": {"application/x-www-form-urlencoded; charset=utf-8"},
	}

	if serverIDHeader != "" {
		headers["X-Vault-AWS-IAM-Server-ID"] = []string{serverIDHeader}
	}

	headersJSON, _ := json.Marshal(headers)
	return base64.StdEncoding.EncodeToString(headersJSON)
}

// stsPresigner wraps the default presigner to add the server ID header
// before signing, so the signature covers it.
type stsPresigner struct {
	inner          sts.HTTPPresignerV4
	serverIDHeader string
}

func newStsPresigner(inner sts.HTTPPresignerV4, serverIDHeader string) *stsPresigner {
	return &stsPresigner{
		inner:          inner,
		serverIDHeader: serverIDHeader,
	}
}

func (p *stsPresigner) PresignHTTP(
	ctx context.Context, credentials aws.Credentials, r *http.Request,
	payloadHash string, service string, region string, signingTime time.Time,
	optFns ...func(*v4.SignerOptions),
) (signedURL string, signedHeader http.Header, err error) {
	if p.serverIDHeader != "" {
		r.Header.Set("X-Vault-AWS-IAM-Server-ID", p.serverIDHeader)
	}
	return p.inner.PresignHTTP(ctx, credentials, r, payloadHash, service, region, signingTime, optFns...)
}

// AWSEC2Options configures AWS EC2 authentication: the instance proves its
// identity with the PKCS#7-signed identity document from IMDS, bound to a
// stable reauthentication nonce.
type AWSEC2Options struct {
	// Mount is the auth mount path (default: "aws").
	Mount string

	// Role is the backend role to authenticate as.
	Role string

	// Nonce holds the instance's reauthentication nonce. A nil cache gets a
	// fresh one with a random UUID nonce.
	Nonce *NonceCache

	// MetadataBase overrides the IMDS base URL, for tests.
	MetadataBase string

	// Logger receives flow logs; defaults to discarding.
	Logger logr.Logger
}

// NewAWSEC2Method creates an AWS EC2 login method. The identity document is
// fetched from IMDS on every login; the nonce is generated once and reused
// so the backend keeps recognizing the instance.
func NewAWSEC2Method(transport vault.Transport, opts AWSEC2Options) (*Method, error) {
	if opts.Role == "" {
		return nil, autherrors.NewUsageError("aws-ec2 method requires a role")
	}
	mount := opts.Mount
	if mount == "" {
		mount = DefaultAWSMount
	}
	base := opts.MetadataBase
	if base == "" {
		base = DefaultIMDSBase
	}
	nonce := opts.Nonce
	if nonce == nil {
		nonce = NewNonceCache(nil)
	}

	role := opts.Role
	pipeline := flow.FromRequest(
		vault.NewRequest(http.MethodGet, base+imdsIdentityPKCS7Path).
			Expecting(vault.ResponseText)).
		Map(func(pkcs7 interface{}) (interface{}, error) {
			doc, ok := pkcs7.(string)
			if !ok || doc == "" {
				return nil, fmt.Errorf("instance metadata returned no identity document")
			}
			return map[string]interface{}{
				"role":  role,
				"pkcs7": doc,
				"nonce": nonce.Get(),
			}, nil
		}).
		Login("auth/{mount}/login", mount)

	return newMethod("aws-ec2", transport, pipeline, opts.Logger)
}

// DetectAWSRegion determines the AWS region from the environment, falling
// back to the instance metadata service's availability zone.
func DetectAWSRegion(ctx context.Context, transport vault.Transport) (string, error) {
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region, nil
	}
	if region := os.Getenv("AWS_DEFAULT_REGION"); region != "" {
		return region, nil
	}

	value, err := transport.Execute(ctx,
		vault.NewRequest(http.MethodGet, DefaultIMDSBase+"/latest/meta-data/placement/availability-zone").
			Expecting(vault.ResponseText))
	if err != nil {
		return "", fmt.Errorf("unable to determine AWS region: %w", err)
	}

	az, _ := value.(string)
	if az == "" {
		return "", fmt.Errorf("empty availability zone from instance metadata")
	}
	// AZ is region + letter (e.g., us-west-2a -> us-west-2).
	return az[:len(az)-1], nil
}
