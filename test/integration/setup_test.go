// Package integration exercises the relay end to end: the HTTP routes, the
// WebSocket hub, the chat registry and the instance pool wired together the
// way cmd/server wires them.
package integration

import (
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/Tyrowin/meetrelay/internal/chat"
	"github.com/Tyrowin/meetrelay/internal/pool"
	"github.com/Tyrowin/meetrelay/internal/server"
	"github.com/Tyrowin/meetrelay/test/testhelpers"
	"github.com/stretchr/testify/require"
)

type stack struct {
	url   string
	wsURL string
	hub   *server.Hub
	pool  *pool.Pool
}

func newConfig() *server.Config {
	cfg := server.NewConfig()
	cfg.AllowedOrigins = []string{testhelpers.TestOrigin}
	cfg.RateLimit = server.RateLimitConfig{Burst: 100, RefillInterval: time.Second}
	return cfg
}

// startStack serves the full relay from an httptest server backed by store,
// which may be nil.
func startStack(t *testing.T, cfg *server.Config, store pool.Store) *stack {
	t.Helper()
	log := slog.New(slog.DiscardHandler)

	instances, err := pool.New(log, store)
	require.NoError(t, err)

	hub := server.NewHub(cfg, chat.NewRegistry(log), log)
	go hub.Run()

	ts := testhelpers.CreateTestServer(server.NewRouter(server.NewHandlers(cfg, hub, instances, log)))
	t.Cleanup(func() {
		ts.Close()
		_ = hub.Shutdown(2 * time.Second)
	})

	return &stack{
		url:   ts.URL,
		wsURL: testhelpers.WebSocketURL(ts.URL),
		hub:   hub,
		pool:  instances,
	}
}

func (s *stack) connect(t *testing.T, identity string) *testhelpers.Client {
	t.Helper()
	before := s.hub.Registry().ConnectionCount(identity)
	c := testhelpers.MustConnect(t, s.wsURL, identity)
	require.Eventually(t, func() bool {
		return s.hub.Registry().ConnectionCount(identity) == before+1
	}, 2*time.Second, 5*time.Millisecond)
	return c
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func waitForServer(t *testing.T, url string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
}

