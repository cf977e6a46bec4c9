package server

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginPolicy(t *testing.T) {
	log := slog.New(slog.DiscardHandler)

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "exact match", allowed: []string{"http://localhost:8080"}, origin: "http://localhost:8080", want: true},
		{name: "case insensitive", allowed: []string{"http://localhost:8080"}, origin: "HTTP://LOCALHOST:8080", want: true},
		{name: "different port", allowed: []string{"http://localhost:8080"}, origin: "http://localhost:9090", want: false},
		{name: "different scheme", allowed: []string{"http://localhost:8080"}, origin: "https://localhost:8080", want: false},
		{name: "missing origin", allowed: []string{"http://localhost:8080"}, origin: "", want: false},
		{name: "malformed origin", allowed: []string{"http://localhost:8080"}, origin: "localhost", want: false},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://anywhere.example.com", want: true},
		{name: "wildcard still needs an origin", allowed: []string{"*"}, origin: "", want: false},
		{name: "invalid config entry ignored", allowed: []string{"not-an-origin", "https://ok.example.com"}, origin: "https://ok.example.com", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := newOriginPolicy(tt.allowed, log)
			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			require.Equal(t, tt.want, policy.checkOrigin(r))
		})
	}
}
