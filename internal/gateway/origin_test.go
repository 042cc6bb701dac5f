package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func originRequest(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

func TestOriginCheckerAllowList(t *testing.T) {
	oc := newOriginChecker([]string{"https://app.example.com", " http://localhost:3000 "})

	tests := []struct {
		origin string
		want   bool
	}{
		{"https://app.example.com", true},
		{"HTTPS://APP.EXAMPLE.COM", true},
		{"http://localhost:3000", true},
		{"https://evil.example.com", false},
		{"http://app.example.com", false}, // scheme matters
		{"not a url", false},
		{"", true}, // non-browser clients
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, oc.check(originRequest(tt.origin)), "origin %q", tt.origin)
	}
}

func TestOriginCheckerWildcard(t *testing.T) {
	oc := newOriginChecker([]string{"*"})
	assert.True(t, oc.check(originRequest("https://anywhere.example.com")))
}

func TestOriginCheckerEmptyListRejectsBrowsers(t *testing.T) {
	oc := newOriginChecker(nil)
	assert.False(t, oc.check(originRequest("https://app.example.com")))
	assert.True(t, oc.check(originRequest("")))
}
