// Package server exposes the instance pool to operators and meeting callers
// over the /admin routes.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/Tyrowin/meetrelay/internal/pool"
	"github.com/julienschmidt/httprouter"
)

const maxDescriptorBodyBytes = 64 << 10

// meetingResponse answers a meeting request.
type meetingResponse struct {
	IsAvailable bool             `json:"isAvailable"`
	Client      *pool.Descriptor `json:"client"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListInstances returns every registered instance in registration order.
func (h *Handlers) ListInstances(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	h.writeJSON(w, http.StatusOK, h.pool.List())
}

// InstanceStats returns pool occupancy.
func (h *Handlers) InstanceStats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	h.writeJSON(w, http.StatusOK, h.pool.Stats())
}

// NewMeeting claims an idle instance. Running out of capacity is reported in
// the body, not as an error status.
func (h *Handlers) NewMeeting(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	resp := meetingResponse{}
	if d, ok := h.pool.Allocate(); ok {
		resp.IsAvailable = true
		resp.Client = &d
	} else {
		h.log.Info("Meeting requested with no idle instance", "addr", r.RemoteAddr)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// InstanceDone releases the instance named by the id query parameter.
func (h *Handlers) InstanceDone(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.pool.Release(r.URL.Query().Get("id"))
	writeText(w, http.StatusOK, "Done!")
}

// AddInstance registers the instance described by the JSON body.
func (h *Handlers) AddInstance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var d pool.Descriptor
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDescriptorBodyBytes))
	if err := decoder.Decode(&d); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid instance payload: " + err.Error()})
		return
	}
	if err := h.validate.Struct(d); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	h.pool.Add(d)
	writeText(w, http.StatusOK, "Done")
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn("Error writing JSON response", "error", err)
	}
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
