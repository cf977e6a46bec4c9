// Package server wires HTTP handlers into an httprouter.Router for the relay
// via routing helpers.
package server

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

//go:embed static
var staticFiles embed.FS

// NewRouter configures every application route behind the session
// middleware.
func NewRouter(h *Handlers) http.Handler {
	router := httprouter.New()

	router.GET("/", h.Health)
	router.GET("/ws", h.WebSocket)
	router.GET("/test", h.TestPage)
	router.GET("/client/start", h.ClientStart)

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	router.ServeFiles("/static/*filepath", http.FS(static))

	router.GET("/admin/instances/list", withCORS(h.ListInstances))
	router.GET("/admin/instances/stats", withCORS(h.InstanceStats))
	router.GET("/admin/new_meeting", withCORS(h.NewMeeting))
	router.GET("/admin/instances/done", withCORS(h.InstanceDone))
	router.GET("/admin/intances/done", withCORS(h.InstanceDone))
	router.POST("/admin/instances/add", withCORS(h.AddInstance))

	router.GlobalOPTIONS = http.HandlerFunc(preflight)

	return withSession(router)
}
