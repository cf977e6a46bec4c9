// Package server implements the HTTP and WebSocket transport of the meeting
// relay.
//
// The Hub accepts WebSocket clients and feeds their text frames to the chat
// command interpreter; the admin handlers expose the meeting host pool. The
// implementation is organized into specialized files for configuration, hub
// management, clients, routing, and HTTP handlers.
package server
