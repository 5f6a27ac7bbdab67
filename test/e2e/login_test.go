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
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/auth"
	autherrors "github.com/panteparak/vault-authkit/shared/errors"
)

var _ = Describe("JWT login pipeline", func() {
	var (
		ctx    context.Context
		server *fakeVault
		client *vault.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = newFakeVault()

		var err error
		client, err = vault.NewClient(vault.ClientConfig{Address: server.URL()})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("acquires a token with a static JWT", func() {
		method, err := auth.NewJWTMethod(client, auth.JWTOptions{
			Role: server.acceptedRole,
			JWT:  server.acceptedJWT,
		})
		Expect(err).NotTo(HaveOccurred())

		tok, err := method.Login(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tok.ClientToken).To(Equal(server.issuedToken))
		Expect(tok.Renewable).To(BeTrue())
		Expect(tok.LeaseDuration).To(Equal(time.Duration(server.leaseDuration) * time.Second))
		Expect(server.loginCount()).To(Equal(1))
	})

	It("acquires the same token through the deferred driver", func() {
		method, err := auth.NewJWTMethod(client, auth.JWTOptions{
			Role: server.acceptedRole,
			JWT:  server.acceptedJWT,
		})
		Expect(err).NotTo(HaveOccurred())

		deferred := method.Deferred()
		Expect(server.loginCount()).To(BeZero(), "building the deferred driver must not log in")

		tok, err := deferred.Await(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(tok.ClientToken).To(Equal(server.issuedToken))

		// Each subscription runs the whole pipeline again.
		_, err = deferred.Await(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(server.loginCount()).To(Equal(2))
	})

	It("surfaces the backend's error strings on a rejected login", func() {
		method, err := auth.NewJWTMethod(client, auth.JWTOptions{
			Role: "no-such-role",
			JWT:  server.acceptedJWT,
		})
		Expect(err).NotTo(HaveOccurred())

		tok, err := method.Login(ctx)
		Expect(tok).To(BeNil())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("invalid role"))

		var loginErr *autherrors.LoginError
		Expect(errors.As(err, &loginErr)).To(BeTrue())
		Expect(loginErr.Method).To(Equal("jwt"))

		var reqErr *autherrors.RequestError
		Expect(errors.As(err, &reqErr)).To(BeTrue())
		Expect(reqErr.StatusCode).To(Equal(400))
		Expect(reqErr.Errors).To(ConsistOf("invalid role"))
	})
})
