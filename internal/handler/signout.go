package handler

import (
	"net/http"

	"github.com/BlackMission/fedisub/internal/carrier"
)

// SignOut handles GET /sign-out by expiring every carrier cookie.
func SignOut() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		carrier.Clear(w, carrier.AllFields...)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}
