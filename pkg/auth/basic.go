package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// DefaultRealm is the realm announced in the Basic challenge.
const DefaultRealm = "Admin Area"

// Credentials is the single operator identity accepted by RequireBasic.
type Credentials struct {
	User string
	Pass string
}

// Match reports whether user and pass equal c exactly. Both fields are always
// compared, in constant time, so a mismatch reveals nothing about which field
// was wrong. Empty configured credentials never match.
func (c Credentials) Match(user, pass string) bool {
	if c.User == "" || c.Pass == "" {
		return false
	}
	userOK := equal(user, c.User)
	passOK := equal(pass, c.Pass)
	return userOK&passOK == 1
}

// equal hashes both sides first so the comparison time does not depend on
// the length of the expected value.
func equal(got, want string) int {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:])
}

// RequireBasic is middleware that admits only requests carrying creds in a
// Basic Authorization header. Everything else gets 401 with a
// WWW-Authenticate challenge for realm and a plain-text body.
func RequireBasic(creds Credentials, realm string) func(http.Handler) http.Handler {
	challenge := `Basic realm="` + realm + `"`
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !creds.Match(user, pass) {
				w.Header().Set("WWW-Authenticate", challenge)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
