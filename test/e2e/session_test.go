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
	"sync"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/panteparak/vault-authkit/pkg/vault"
	"github.com/panteparak/vault-authkit/pkg/vault/auth"
	"github.com/panteparak/vault-authkit/pkg/vault/session"
	"github.com/panteparak/vault-authkit/shared/events"
)

var _ = Describe("Session guard", func() {
	var (
		ctx     context.Context
		server  *fakeVault
		manager *session.Manager
		bus     *events.EventBus

		mu       sync.Mutex
		acquired []events.TokenAcquired
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = newFakeVault()

		client, err := vault.NewClient(vault.ClientConfig{Address: server.URL()})
		Expect(err).NotTo(HaveOccurred())

		method, err := auth.NewJWTMethod(client, auth.JWTOptions{
			Role: server.acceptedRole,
			JWT:  server.acceptedJWT,
		})
		Expect(err).NotTo(HaveOccurred())

		acquired = nil
		bus = events.NewEventBus(logr.Discard())
		events.Subscribe(bus, func(_ context.Context, event events.TokenAcquired) error {
			mu.Lock()
			defer mu.Unlock()
			acquired = append(acquired, event)
			return nil
		})

		manager = session.NewManager(method, session.ManagerOptions{Bus: bus})
	})

	AfterEach(func() {
		server.Close()
	})

	acquiredCount := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(acquired)
	}

	It("logs in once and serves the cached token afterwards", func() {
		first, err := manager.Token(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.ClientToken).To(Equal(server.issuedToken))

		for i := 0; i < 5; i++ {
			tok, err := manager.Token(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(tok).To(BeIdenticalTo(first))
		}
		Expect(server.loginCount()).To(Equal(1))
	})

	It("logs in again after invalidation and publishes lifecycle events", func() {
		_, err := manager.Token(ctx)
		Expect(err).NotTo(HaveOccurred())

		manager.Invalidate(ctx)
		Expect(manager.HasToken()).To(BeFalse())

		_, err = manager.Token(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(server.loginCount()).To(Equal(2))

		Eventually(acquiredCount, 2*time.Second, 10*time.Millisecond).Should(Equal(2))
		mu.Lock()
		defer mu.Unlock()
		Expect(acquired[0].Method).To(Equal("jwt"))
		Expect(acquired[0].Renewable).To(BeTrue())
		Expect(acquired[0].LeaseDuration).To(Equal(time.Duration(server.leaseDuration) * time.Second))
	})
})
