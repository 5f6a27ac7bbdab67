/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// TestE2E exercises complete login flows against an in-process fake Vault
// server: client, pipeline, auth method, and session guard working together
// over real HTTP.
func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "e2e suite")
}

// fakeVault is an httptest-backed stand-in for a Vault server. It serves
// the JWT login endpoint, accepts exactly one role/JWT pair, and records
// how many login attempts it has seen.
type fakeVault struct {
	server *httptest.Server

	// acceptedRole and acceptedJWT define the only credential pair the
	// fake will issue a token for. Everything else gets a 400 with a
	// Vault-shaped error body.
	acceptedRole string
	acceptedJWT  string

	issuedToken   string
	leaseDuration int

	mu     sync.Mutex
	logins int
}

func newFakeVault() *fakeVault {
	fv := &fakeVault{
		acceptedRole:  "ci-deployer",
		acceptedJWT:   "header.payload.signature",
		issuedToken:   "s.fake00000000000000000123",
		leaseDuration: 3600,
	}
	fv.server = httptest.NewServer(http.HandlerFunc(fv.handle))
	return fv
}

func (fv *fakeVault) URL() string {
	return fv.server.URL
}

func (fv *fakeVault) Close() {
	fv.server.Close()
}

func (fv *fakeVault) loginCount() int {
	fv.mu.Lock()
	defer fv.mu.Unlock()
	return fv.logins
}

func (fv *fakeVault) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/auth/jwt/login" || r.Method != http.MethodPost {
		writeErrors(w, http.StatusNotFound, fmt.Sprintf("no handler for the requested path %q", r.URL.Path))
		return
	}

	fv.mu.Lock()
	fv.logins++
	fv.mu.Unlock()

	var payload struct {
		Role string `json:"role"`
		JWT  string `json:"jwt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeErrors(w, http.StatusBadRequest, "failed to parse JSON input")
		return
	}

	if payload.Role != fv.acceptedRole {
		writeErrors(w, http.StatusBadRequest, "invalid role")
		return
	}
	if payload.JWT != fv.acceptedJWT {
		writeErrors(w, http.StatusForbidden, "permission denied")
		return
	}

	response := map[string]interface{}{
		"auth": map[string]interface{}{
			"client_token":   fv.issuedToken,
			"accessor":       "accessor-1",
			"renewable":      true,
			"lease_duration": fv.leaseDuration,
			"policies":       []string{"default", "deployer"},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func writeErrors(w http.ResponseWriter, status int, messages ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"errors": messages})
}
