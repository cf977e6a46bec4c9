// Package server coordinates client registration, inbound dispatch, and
// connection cleanup for the relay's WebSocket side via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/meetrelay/internal/chat"
)

// Hub owns the set of live WebSocket clients. Its Run loop serializes
// registration, unregistration, and inbound messages, handing session
// semantics to the chat registry and command interpreter.
type Hub struct {
	registry    *chat.Registry
	interpreter *chat.Interpreter
	cfg         Config
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	inbound     chan inboundFrame
	mutex       sync.RWMutex
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	log         *slog.Logger
}

// NewHub creates a Hub dispatching into registry. A nil cfg uses defaults.
func NewHub(cfg *Config, registry *chat.Registry, log *slog.Logger) *Hub {
	if cfg == nil {
		cfg = NewConfig()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:    registry,
		interpreter: chat.NewInterpreter(registry),
		cfg:         *cfg,
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		inbound:     make(chan inboundFrame),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		log:         log,
	}
}

// Registry returns the session registry the hub dispatches into.
func (h *Hub) Registry() *chat.Registry {
	return h.registry
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Register hands client to the Run loop, which starts its pumps and joins
// it to its session. It reports false once the hub is shutting down.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.ctx.Done():
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

func (h *Hub) dispatch(client *Client, text string) bool {
	select {
	case h.inbound <- inboundFrame{client: client, text: text}:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Run starts the hub's main event loop. It returns after Shutdown is called
// and should run in its own goroutine.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case frame := <-h.inbound:
			h.handleInbound(frame)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mutex.Unlock()
	client.log.Info("Client registered", "clients", clientCount)

	h.registry.Join(client.identity, client)

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleUnregister(client *Client) {
	h.mutex.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	h.registry.Leave(client.identity, client)
	client.closeSend()
	client.log.Info("Client unregistered", "clients", clientCount)
}

func (h *Hub) handleInbound(frame inboundFrame) {
	h.mutex.RLock()
	_, registered := h.clients[frame.client]
	h.mutex.RUnlock()
	if !registered {
		return
	}

	if err := h.interpreter.Dispatch(frame.client.identity, frame.text); err != nil {
		frame.client.log.Debug("Command rejected", "error", err)
	}
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.mutex.Unlock()

	for _, client := range clients {
		h.registry.Leave(client.identity, client)
		client.closeSend()
		client.Close()
	}

	h.log.Info("Closed client connections", "clients", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
