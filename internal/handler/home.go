package handler

import (
	"net/http"

	"github.com/BlackMission/fedisub/internal/carrier"
	"github.com/BlackMission/fedisub/internal/state"
)

// Home handles GET /. It renders the sign-in form.
func Home(views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := homeData{}
		if creds, err := state.FromFields(carrier.FromRequest(r)).Credentials(); err == nil {
			data.SignedIn = true
			data.Domain = creds.Instance.Domain
		}
		views.Render(w, r, http.StatusOK, pageHome, data)
	}
}
