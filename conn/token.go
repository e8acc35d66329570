// ABOUTME: Bearer token staleness inspection for reconnect attempts.
// ABOUTME: Parses JWT expiry without verification; issuance is the server's concern.

package conn

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiryMargin treats tokens expiring within this window as stale, so a
// dial does not race the expiry.
const tokenExpiryMargin = 30 * time.Second

// tokenStale reports whether a bearer token is expired or about to expire.
// Opaque (non-JWT) tokens and JWTs without an exp claim are never stale;
// only the server can judge those. The signature is deliberately not
// verified; the client holds no keys and only reads the expiry.
func tokenStale(token string, now time.Time) bool {
	if token == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Add(tokenExpiryMargin).After(exp.Time)
}
