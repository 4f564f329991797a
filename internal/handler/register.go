package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BlackMission/fedisub/internal/broker"
	"github.com/BlackMission/fedisub/internal/carrier"
)

// RegisterApp handles GET /register-app?domain=... and GET /register-app/{domain}.
// It registers an application with the instance, stores the client credentials
// in cookies and sends the browser to the instance's authorization page.
func RegisterApp(b *broker.Broker, views *Views, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := url.PathUnescape(chi.URLParam(r, "domain"))
		if err != nil || raw == "" {
			raw = r.URL.Query().Get("domain")
		}

		reg, err := b.Begin(r.Context(), raw)
		if err != nil {
			writeFailure(w, r, views, err)
			return
		}

		carrier.Write(w, carrier.Fields{
			carrier.FieldClientID:     reg.ClientID,
			carrier.FieldClientSecret: reg.ClientSecret,
			carrier.FieldDomain:       reg.Instance.Domain,
		}, ttl)
		http.Redirect(w, r, reg.AuthorizationURL, http.StatusFound)
	}
}
