// Package server defines the inbound payload decoding and utility helpers
// that are reused across client and hub logic.
package server

import (
	"bytes"
	"encoding/json"
	"strings"
)

// inboundMessage is the optional JSON envelope clients may wrap text in.
type inboundMessage struct {
	Content *string `json:"content"`
}

// inboundFrame is one decoded text payload queued for the hub loop.
type inboundFrame struct {
	client *Client
	text   string
}

// decodeInbound unwraps a {"content": "..."} envelope. Any other payload is
// taken verbatim as text.
func decodeInbound(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var msg inboundMessage
		if err := json.Unmarshal(trimmed, &msg); err == nil && msg.Content != nil {
			return *msg.Content
		}
	}
	return string(raw)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
