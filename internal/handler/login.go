package handler

import (
	"facecam/internal/middleware"
	"net/http"
)

// LoginHandler handles POST /auth/login by validating password and issuing an auth cookie.
func LoginHandler(password string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if r.FormValue("password") != password {
			http.Error(w, "Invalid password", http.StatusUnauthorized)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     middleware.AuthCookie,
			Value:    middleware.CookieValue(password),
			Path:     "/",
			MaxAge:   2592000, // 30 days
			HttpOnly: true,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// LogoutHandler clears the authentication cookie.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   middleware.AuthCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1, // usuwa cookie
	})
	w.WriteHeader(http.StatusNoContent)
}
