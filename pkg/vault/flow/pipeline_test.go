package flow

import (
	"context"
	"net/http"
	"testing"

	"github.com/panteparak/vault-authkit/pkg/vault"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

func TestPipelineConstruction(t *testing.T) {
	tests := []struct {
		name     string
		pipeline *Pipeline
		wantLen  int
		wantErr  bool
	}{
		{
			name:     "supplier then map then login",
			pipeline: FromSupplier(StaticSupplier("jwt")).Map(identity).Login("auth/jwt/login"),
			wantLen:  3,
		},
		{
			name:     "from value",
			pipeline: FromValue(map[string]string{"role": "my-role"}).Login("auth/{mount}/login", "approle"),
			wantLen:  2,
		},
		{
			name:     "from request",
			pipeline: FromRequest(vault.NewRequest(http.MethodGet, "https://metadata.example/identity")),
			wantLen:  1,
		},
		{
			name:     "nil supplier is a construction error",
			pipeline: FromSupplier(nil),
			wantErr:  true,
		},
		{
			name:     "nil map function is a construction error",
			pipeline: FromValue("v").Map(nil),
			wantErr:  true,
		},
		{
			name:     "nil observer is a construction error",
			pipeline: FromValue("v").OnNext(nil),
			wantErr:  true,
		},
		{
			name:     "nil request is a construction error",
			pipeline: FromValue("v").Request(nil),
			wantErr:  true,
		},
		{
			name:     "template arity error surfaces at construction",
			pipeline: FromValue("v").Login("auth/{mount}/login"),
			wantErr:  true,
		},
		{
			name: "invalid login request surfaces at construction",
			pipeline: FromValue("v").LoginRequest(&vault.Request{
				Method:      http.MethodPost,
				URI:         "auth/jwt/login",
				URITemplate: "auth/{mount}/login",
				URIVars:     []string{"jwt"},
			}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pipeline.Err()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Err() = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !autherrors.IsUsageError(err) {
					t.Errorf("expected UsageError, got %T: %v", err, err)
				}
				return
			}
			if tt.pipeline.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", tt.pipeline.Len(), tt.wantLen)
			}
		})
	}
}

func TestPipelineConstructionErrorSticks(t *testing.T) {
	p := FromValue("v").Map(nil)
	extended := p.OnNext(func(interface{}) error { return nil }).Login("auth/jwt/login")

	if extended.Err() == nil {
		t.Fatal("construction error must survive further chaining")
	}
	if !autherrors.IsUsageError(extended.Err()) {
		t.Errorf("expected UsageError, got %v", extended.Err())
	}
}

func TestPipelineImmutability(t *testing.T) {
	base := FromSupplier(StaticSupplier("jwt")).Map(identity)

	branchA := base.Login("auth/jwt/login")
	branchB := base.Login("auth/{mount}/login", "custom-jwt")

	if base.Len() != 2 {
		t.Errorf("base pipeline grew to %d steps", base.Len())
	}
	if branchA.Len() != 3 || branchB.Len() != 3 {
		t.Fatalf("branch lengths = %d, %d, want 3, 3", branchA.Len(), branchB.Len())
	}

	// Branching from a shared prefix must not let one branch overwrite the
	// other's appended step.
	uriA, err := branchA.steps[2].req.ResolveURI()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	uriB, err := branchB.steps[2].req.ResolveURI()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if uriA != "auth/jwt/login" {
		t.Errorf("branch A login path = %q", uriA)
	}
	if uriB != "auth/custom-jwt/login" {
		t.Errorf("branch B login path = %q", uriB)
	}
}

func identity(in interface{}) (interface{}, error) { return in, nil }

func TestMapStartsWithNilInput(t *testing.T) {
	var got interface{} = "sentinel"
	p := Map(func(in interface{}) (interface{}, error) {
		got = in
		return "mapped", nil
	})

	exec := NewExecutor(respondWith("ignored", nil), p, ExecutorOptions{Method: "test"})
	_, err := exec.Login(context.Background())
	if err == nil {
		t.Fatal("expected terminal state error for non-token state")
	}
	if got != nil {
		t.Errorf("map input = %v, want nil for undefined state", got)
	}
}
