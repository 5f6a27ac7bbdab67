package vault

import (
	"net/http"
	"net/url"
	"strings"

	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

// ResponseKind declares how a request step expects its response body to be
// parsed. The parsed value becomes the next execution state of the flow.
type ResponseKind int

const (
	// ResponseSecret parses the body as a structured backend response whose
	// auth section can carry a token. This is the kind every login step uses.
	ResponseSecret ResponseKind = iota

	// ResponseJSON parses the body as a free-form JSON object. Used for
	// cloud metadata endpoints that return JSON (e.g., Azure IMDS).
	ResponseJSON

	// ResponseText returns the body as a trimmed string. Used for metadata
	// endpoints that return raw documents (e.g., EC2 PKCS7, GCE identity).
	ResponseText
)

// String returns the response kind name for logging.
func (k ResponseKind) String() string {
	switch k {
	case ResponseSecret:
		return "secret"
	case ResponseJSON:
		return "json"
	case ResponseText:
		return "text"
	}
	return "unknown"
}

// Request describes one HTTP exchange of a login flow. The target is either
// a resolved URI or a URI template with positional path variables, never
// both. A URI may be an absolute URL (cloud metadata endpoints) or a
// backend-relative path such as "auth/jwt/login".
type Request struct {
	// Method is the HTTP method.
	Method string

	// URI is the resolved target. Mutually exclusive with URITemplate.
	URI string

	// URITemplate is a target with "{name}" path-variable placeholders,
	// filled positionally from URIVars. Mutually exclusive with URI.
	URITemplate string

	// URIVars are the positional values for URITemplate's placeholders.
	URIVars []string

	// Headers are sent verbatim with the request.
	Headers http.Header

	// Body is marshaled as JSON when non-nil. When nil, the flow executor
	// falls back to the current execution state as the body.
	Body interface{}

	// Response declares how the response body is parsed.
	Response ResponseKind
}

// NewRequest creates a request with a resolved URI.
func NewRequest(method, uri string) *Request {
	return &Request{
		Method:  method,
		URI:     uri,
		Headers: http.Header{},
	}
}

// NewTemplateRequest creates a request whose target is a URI template with
// positional path variables.
func NewTemplateRequest(method, template string, vars ...string) *Request {
	return &Request{
		Method:      method,
		URITemplate: template,
		URIVars:     vars,
		Headers:     http.Header{},
	}
}

// WithHeader returns the request with a header set.
func (r *Request) WithHeader(key, value string) *Request {
	if r.Headers == nil {
		r.Headers = http.Header{}
	}
	r.Headers.Set(key, value)
	return r
}

// WithBody returns the request with an explicit body. A request without an
// explicit body uses the current execution state instead.
func (r *Request) WithBody(body interface{}) *Request {
	r.Body = body
	return r
}

// Expecting returns the request with its response kind set.
func (r *Request) Expecting(kind ResponseKind) *Request {
	r.Response = kind
	return r
}

// Clone returns a copy of the request whose headers and path variables are
// independent of the original. The flow executor clones request steps before
// applying the body fallback so repeated runs never observe each other.
func (r *Request) Clone() *Request {
	clone := *r
	if r.Headers != nil {
		clone.Headers = r.Headers.Clone()
	}
	if r.URIVars != nil {
		clone.URIVars = append([]string(nil), r.URIVars...)
	}
	return &clone
}

// Validate checks the request configuration. Declaring both a resolved URI
// and a URI template, or neither, is a usage error raised at construction
// time, never deferred to execution.
func (r *Request) Validate() error {
	if r.Method == "" {
		return autherrors.NewUsageError("request declares no HTTP method")
	}
	if r.URI != "" && r.URITemplate != "" {
		return autherrors.NewUsageError("request declares both uri %q and template %q", r.URI, r.URITemplate)
	}
	if r.URI == "" && r.URITemplate == "" {
		return autherrors.NewUsageError("request declares neither uri nor template")
	}
	if r.URITemplate != "" {
		if _, err := ExpandTemplate(r.URITemplate, r.URIVars...); err != nil {
			return err
		}
	}
	return nil
}

// ResolveURI returns the request target with any template expanded.
func (r *Request) ResolveURI() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if r.URITemplate != "" {
		return ExpandTemplate(r.URITemplate, r.URIVars...)
	}
	return r.URI, nil
}

// IsAbsolute reports whether a resolved target is a full URL rather than a
// backend-relative path.
func IsAbsolute(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

// ExpandTemplate fills "{name}" placeholders in a URI template with the
// given values, in order. Values are path-escaped. A mismatch between
// placeholder and value counts is a usage error.
func ExpandTemplate(template string, vars ...string) (string, error) {
	var b strings.Builder
	used := 0
	rest := template

	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", autherrors.NewUsageError("unterminated path variable in template %q", template)
		}
		if used >= len(vars) {
			return "", autherrors.NewUsageError(
				"template %q references more path variables than the %d provided", template, len(vars))
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(vars[used]))
		used++
		rest = rest[open+end+1:]
	}

	if used != len(vars) {
		return "", autherrors.NewUsageError(
			"template %q consumed %d of %d path variables", template, used, len(vars))
	}
	return b.String(), nil
}
