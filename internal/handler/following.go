package handler

import (
	"net/http"

	"github.com/BlackMission/fedisub/internal/broker"
	"github.com/BlackMission/fedisub/internal/carrier"
	"github.com/BlackMission/fedisub/internal/state"
)

// FollowingView handles GET /following-view.
func FollowingView(b *broker.Broker, views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := b.Following(r.Context(), state.FromFields(carrier.FromRequest(r)))
		if err != nil {
			writeFailure(w, r, views, err)
			return
		}
		views.Render(w, r, http.StatusOK, pageFollowing, followingData{
			Instance:  view.Instance,
			Me:        view.Me,
			Following: view.Following,
		})
	}
}
