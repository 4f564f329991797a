package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BlackMission/fedisub/internal/broker"
	"github.com/BlackMission/fedisub/internal/carrier"
	"github.com/BlackMission/fedisub/internal/state"
)

// Subscribe handles GET /subscribe/{userID}.
func Subscribe(b *broker.Broker, views *Views) http.HandlerFunc {
	return relationship(views, b.Subscribe)
}

// Unsubscribe handles GET /unsubscribe/{userID}.
func Unsubscribe(b *broker.Broker, views *Views) http.HandlerFunc {
	return relationship(views, b.Unsubscribe)
}

func relationship(views *Views, action func(context.Context, state.State, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := state.FromFields(carrier.FromRequest(r))
		if err := action(r.Context(), st, chi.URLParam(r, "userID")); err != nil {
			writeFailure(w, r, views, err)
			return
		}
		http.Redirect(w, r, "/following-view", http.StatusFound)
	}
}
