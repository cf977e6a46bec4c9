// Package testhelpers provides common utilities and helper functions for testing the relay.
//
// This package contains reusable test utilities that are shared across package and integration tests.
// It provides functions for creating test servers, making HTTP requests, dialing WebSocket clients
// under a chosen session identity, and reading the relay's newline-delimited JSON frames.
package testhelpers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/meetrelay/internal/chat"
	"github.com/gorilla/websocket"
)

// TestOrigin is the Origin header sent by ConnectWebSocket.
const TestOrigin = "http://localhost:8080"

// SessionCookieName mirrors the relay's session cookie.
const SessionCookieName = "USERSESSION"

// ErrNoMessage is returned by Client.Next when nothing arrived in time.
var ErrNoMessage = errors.New("no message received")

// CreateTestServer creates a test HTTP server with the given handler.
// It returns a running httptest.Server that should be closed after use.
func CreateTestServer(handler http.Handler) *httptest.Server {
	return httptest.NewServer(handler)
}

// WebSocketURL converts an httptest server URL into the relay's WebSocket endpoint.
func WebSocketURL(serverURL string) string {
	return "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
}

// AssertStatusCode checks if the HTTP response has the expected status code.
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertContentType checks if the HTTP response has the expected Content-Type header.
func AssertContentType(t *testing.T, resp *http.Response, expected string) {
	t.Helper()
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, expected) {
		t.Errorf("Expected content type %s, got %s", expected, contentType)
	}
}

// MakeRequest creates and executes an HTTP request, returning the response.
// Redirects are not followed so callers can assert on them.
func MakeRequest(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()

	client := &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

// DecodeJSON decodes the response body into out.
func DecodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

// Client is a WebSocket connection whose frames are read in the background
// and split into chat messages.
type Client struct {
	Conn     *websocket.Conn
	messages chan chat.Message
}

// ConnectWebSocket dials url with a fresh session. The server assigns the identity.
func ConnectWebSocket(url string) (*Client, error) {
	return ConnectWebSocketAs(url, "")
}

// ConnectWebSocketAs dials url presenting identity as the session cookie.
// An empty identity lets the server assign one.
func ConnectWebSocketAs(url, identity string) (*Client, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}

	headers := http.Header{}
	headers.Set("Origin", TestOrigin)
	if identity != "" {
		headers.Set("Cookie", (&http.Cookie{Name: SessionCookieName, Value: identity}).String())
	}

	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	c := &Client{Conn: conn, messages: make(chan chat.Message, 256)}
	go c.readLoop()
	return c, nil
}

// MustConnect dials url as identity and closes the connection when the test ends.
func MustConnect(t *testing.T, url, identity string) *Client {
	t.Helper()
	c, err := ConnectWebSocketAs(url, identity)
	if err != nil {
		t.Fatalf("Failed to connect as %q: %v", identity, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func (c *Client) readLoop() {
	defer close(c.messages)
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var msg chat.Message
			if err := json.Unmarshal(line, &msg); err != nil {
				continue
			}
			c.messages <- msg
		}
	}
}

// Send writes text as a single text frame.
func (c *Client) Send(text string) error {
	return c.Conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// SendJSON writes text wrapped in a {"content": ...} envelope.
func (c *Client) SendJSON(text string) error {
	return c.Conn.WriteJSON(map[string]string{"content": text})
}

// Next returns the next message or ErrNoMessage after timeout.
func (c *Client) Next(timeout time.Duration) (chat.Message, error) {
	select {
	case msg, ok := <-c.messages:
		if !ok {
			return chat.Message{}, io.EOF
		}
		return msg, nil
	case <-time.After(timeout):
		return chat.Message{}, ErrNoMessage
	}
}

// Expect fails the test unless the next message equals want.
func (c *Client) Expect(t *testing.T, want chat.Message) {
	t.Helper()
	got, err := c.Next(2 * time.Second)
	if err != nil {
		t.Fatalf("Expected %+v, got error: %v", want, err)
	}
	if got != want {
		t.Fatalf("Expected %+v, got %+v", want, got)
	}
}

// ExpectNone fails the test if any message arrives within timeout.
func (c *Client) ExpectNone(t *testing.T, timeout time.Duration) {
	t.Helper()
	if msg, err := c.Next(timeout); err == nil {
		t.Fatalf("Expected no message, got %+v", msg)
	}
}

// Drain discards messages until none arrives within timeout.
func (c *Client) Drain(timeout time.Duration) {
	for {
		if _, err := c.Next(timeout); err != nil {
			return
		}
	}
}

// Close sends a normal close frame and closes the connection.
func (c *Client) Close() error {
	_ = c.Conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.Conn.Close()
}
