package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/BlackMission/fedisub/internal/broker"
	"github.com/BlackMission/fedisub/internal/carrier"
	"github.com/BlackMission/fedisub/internal/domain"
	"github.com/BlackMission/fedisub/internal/state"
)

// Callback handles GET /registration-callback.
// The instance redirects here after the user approves (or denies) access. The
// code is exchanged using the client credentials stored by RegisterApp and the
// resulting tokens are stored alongside them.
func Callback(b *broker.Broker, views *Views, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if reason := q.Get("error"); reason != "" {
			writeFailure(w, r, views, domain.E(domain.KindValidation, "handler.Callback",
				fmt.Errorf("%w: %s", domain.ErrApprovalDenied, reason)))
			return
		}

		st := state.FromFields(carrier.FromRequest(r))
		tokens, err := b.Complete(r.Context(), st, q.Get("code"))
		if err != nil {
			writeFailure(w, r, views, err)
			return
		}

		carrier.Write(w, carrier.Fields{
			carrier.FieldAccessToken:  tokens.AccessToken,
			carrier.FieldRefreshToken: tokens.RefreshToken,
		}, ttl)
		http.Redirect(w, r, "/following-view", http.StatusFound)
	}
}
