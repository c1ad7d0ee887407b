package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// IdentityHasher derives a stable anonymized origin token from a
// connection's network origin. The token is what reconnection matching and
// profile attribution key on; the raw address is never stored.
type IdentityHasher struct {
	secret []byte
}

func NewIdentityHasher(secret string) *IdentityHasher {
	return &IdentityHasher{secret: []byte(secret)}
}

// OriginToken returns the anonymized token for a request's client address.
// Returns an empty token when no address can be determined.
func (h *IdentityHasher) OriginToken(r *http.Request) string {
	addr := clientAddr(r)
	if addr == "" {
		return ""
	}
	return h.hash(addr)
}

func (h *IdentityHasher) hash(addr string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(addr))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

func clientAddr(r *http.Request) string {
	// Behind a proxy the first X-Forwarded-For hop is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
