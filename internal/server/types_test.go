package server

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain text", raw: "hello", want: "hello"},
		{name: "envelope", raw: `{"content":"/who"}`, want: "/who"},
		{name: "envelope with spaces", raw: `  {"content": "hi there"} `, want: "hi there"},
		{name: "envelope without content", raw: `{"text":"hi"}`, want: `{"text":"hi"}`},
		{name: "broken json", raw: `{"content":`, want: `{"content":`},
		{name: "empty content", raw: `{"content":""}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, decodeInbound([]byte(tt.raw)))
		})
	}
}

func TestIsExpectedCloseError(t *testing.T) {
	req := require.New(t)

	req.True(isExpectedCloseError(nil))
	req.True(isExpectedCloseError(errors.New("write tcp: use of closed network connection")))
	req.True(isExpectedCloseError(errors.New("websocket: close sent")))
	req.False(isExpectedCloseError(errors.New("unexpected EOF")))
}
