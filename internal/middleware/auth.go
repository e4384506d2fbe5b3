package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

// AuthCookie is the cookie issued by the login endpoint.
const AuthCookie = "authenticated"

// CookieValue derives the cookie value from the password so the password
// itself never leaves the server.
func CookieValue(password string) string {
	sum := sha256.Sum256([]byte("facecam:" + password))
	return hex.EncodeToString(sum[:])
}

// AuthMiddleware sprawdza cookie albo parametr ?password=.
// An empty password disables the check.
func AuthMiddleware(password string, next http.Handler) http.Handler {
	if password == "" {
		return next
	}
	expected := CookieValue(password)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Logowanie zawsze dostępne
		if r.URL.Path == "/auth/login" {
			next.ServeHTTP(w, r)
			return
		}

		if q := r.URL.Query().Get("password"); q != "" && equal(q, password) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(AuthCookie)
		if err != nil || !equal(cookie.Value, expected) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
