// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, session binding, and the built-in test page.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Tyrowin/meetrelay/internal/pool"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const healthMessage = "Meeting relay is running!"

// Handlers serves every HTTP route of the relay.
type Handlers struct {
	hub      *Hub
	pool     *pool.Pool
	cfg      Config
	upgrader websocket.Upgrader
	validate *validator.Validate
	log      *slog.Logger
}

// NewHandlers wires the hub and the instance pool behind the HTTP routes.
func NewHandlers(cfg *Config, hub *Hub, instances *pool.Pool, log *slog.Logger) *Handlers {
	if cfg == nil {
		cfg = NewConfig()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	origins := newOriginPolicy(cfg.AllowedOrigins, log)
	return &Handlers{
		hub:  hub,
		pool: instances,
		cfg:  *cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// WebSocket upgrades the request and hands the connection to the hub under
// the request's session identity.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var responseHeader http.Header
	identity, ok := identityFromCookie(r)
	if !ok {
		// The upgrade writes its own response, so a fresh session cookie
		// has to travel in the upgrade headers.
		identity, _ = SessionIdentity(r)
		responseHeader = http.Header{}
		responseHeader.Add("Set-Cookie", sessionCookie(identity).String())
	}
	if identity == "" {
		http.Error(w, "No session", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(conn, h.hub, identity, r.RemoteAddr)
	if !h.hub.Register(client) {
		h.log.Warn("Hub is shutting down; rejecting connection", "addr", r.RemoteAddr)
		client.Close()
	}
}

// Health provides a simple health check endpoint that returns server status.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain")
	if h.cfg.MainServerURL != "" {
		_, _ = fmt.Fprintf(w, "%s Main server: %s", healthMessage, h.cfg.MainServerURL)
		return
	}
	_, _ = fmt.Fprint(w, healthMessage)
}

// ClientStart binds the caller's session to the id query parameter and sends
// it to the chat page, so an automated meeting client joins under a known
// identity.
func (h *Handlers) ClientStart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "ID not found", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, sessionCookie(id))
	h.log.Info("Session bound to client id", "id", id, "addr", r.RemoteAddr)
	http.Redirect(w, r, "/static/index.html", http.StatusFound)
}

// TestPage serves the embedded chat page.
func (h *Handlers) TestPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		h.log.Error("Error reading embedded page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(page); err != nil {
		h.log.Warn("Error writing HTML response", "error", err)
	}
}
