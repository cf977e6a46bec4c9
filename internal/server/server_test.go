package server

import (
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tyrowin/meetrelay/internal/chat"
	"github.com/Tyrowin/meetrelay/internal/pool"
	"github.com/Tyrowin/meetrelay/test/testhelpers"
	"github.com/stretchr/testify/require"
)

type testRelay struct {
	server *httptest.Server
	hub    *Hub
	pool   *pool.Pool
	wsURL  string
}

func newTestRelay(t *testing.T, customize func(cfg *Config)) *testRelay {
	t.Helper()
	log := slog.New(slog.DiscardHandler)

	cfg := NewConfig()
	cfg.AllowedOrigins = []string{testhelpers.TestOrigin}
	if customize != nil {
		customize(cfg)
	}

	instances, err := pool.New(log, nil)
	require.NoError(t, err)

	hub := NewHub(cfg, chat.NewRegistry(log), log)
	go hub.Run()

	srv := httptest.NewServer(NewRouter(NewHandlers(cfg, hub, instances, log)))
	t.Cleanup(func() {
		srv.Close()
		_ = hub.Shutdown(2 * time.Second)
	})

	return &testRelay{
		server: srv,
		hub:    hub,
		pool:   instances,
		wsURL:  testhelpers.WebSocketURL(srv.URL),
	}
}

// connect dials as identity and waits until the hub has joined the
// connection to its session.
func (r *testRelay) connect(t *testing.T, identity string) *testhelpers.Client {
	t.Helper()
	before := r.hub.Registry().ConnectionCount(identity)
	c := testhelpers.MustConnect(t, r.wsURL, identity)
	require.Eventually(t, func() bool {
		return r.hub.Registry().ConnectionCount(identity) == before+1
	}, 2*time.Second, 5*time.Millisecond)
	return c
}
