package api

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWsCheckOrigin(t *testing.T) {
	cases := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no origin header", origin: "", want: true},
		{name: "same host without allow list", origin: "http://example.com", want: true},
		{name: "cross host without allow list", origin: "http://evil.test", want: false},
		{name: "listed origin", allowed: []string{"http://app.test"}, origin: "http://app.test", want: true},
		{name: "unlisted origin", allowed: []string{"http://app.test"}, origin: "http://example.com", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewWsHandler(nil, slog.Default(), tc.allowed)
			req := httptest.NewRequest("GET", "http://example.com/api/ws/u1", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			assert.Equal(t, tc.want, h.checkOrigin(req))
		})
	}
}
