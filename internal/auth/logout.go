package auth

import (
	"net/http"

	"github.com/hivel/calendar-service/internal/config"
)

// Logout expires the operator cookie read by Middleware. Bearer tokens are
// unaffected and stay valid until they expire.
func Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	config.JSON(w, http.StatusOK, map[string]string{
		"message": "logout successful",
	})
}
