package ratelimit_test

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/authkit/pkg/ratelimit"
)

func constKey(v string) ratelimit.KeyFunc {
	return func(*http.Request) string { return v }
}

func TestComposite(t *testing.T) {
	t.Parallel()

	hashed := func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:16])
	}

	tests := []struct {
		name     string
		keyFuncs []ratelimit.KeyFunc
		expected string
	}{
		{name: "no key functions", expected: ""},
		{name: "single key", keyFuncs: []ratelimit.KeyFunc{constKey("203.0.113.7")}, expected: "203.0.113.7"},
		{
			name:     "joins parts and skips empty ones",
			keyFuncs: []ratelimit.KeyFunc{constKey("203.0.113.7"), constKey(""), constKey("/api/roles")},
			expected: "203.0.113.7:/api/roles",
		},
		{name: "all empty", keyFuncs: []ratelimit.KeyFunc{constKey(""), constKey("")}, expected: ""},
		{
			name:     "exactly 64 chars kept",
			keyFuncs: []ratelimit.KeyFunc{constKey(strings.Repeat("x", 64))},
			expected: strings.Repeat("x", 64),
		},
		{
			name:     "long single key hashed",
			keyFuncs: []ratelimit.KeyFunc{constKey(strings.Repeat("a", 70))},
			expected: hashed(strings.Repeat("a", 70)),
		},
		{
			name:     "long combined key hashed",
			keyFuncs: []ratelimit.KeyFunc{constKey(strings.Repeat("a", 40)), constKey(strings.Repeat("b", 40))},
			expected: hashed(strings.Repeat("a", 40) + ":" + strings.Repeat("b", 40)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodPost, "/api/roles", nil)
			assert.Equal(t, tt.expected, ratelimit.Composite(tt.keyFuncs...)(req))
		})
	}
}

func TestComposite_OrderMatters(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	a := ratelimit.Composite(constKey(strings.Repeat("a", 50)), constKey(strings.Repeat("b", 50)))(req)
	b := ratelimit.Composite(constKey(strings.Repeat("b", 50)), constKey(strings.Repeat("a", 50)))(req)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 32)
}

func TestPrefixed(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", nil)

	assert.Equal(t, "csrf:203.0.113.7", ratelimit.Prefixed("csrf", constKey("203.0.113.7"))(req))
	assert.Equal(t, "", ratelimit.Prefixed("csrf", constKey(""))(req))
	assert.Equal(t, "203.0.113.7", ratelimit.Prefixed("", constKey("203.0.113.7"))(req))
}
