package handler

import (
	"encoding/json"
	"net/http"

	"github.com/BlackMission/fedisub/internal/domain"
	"github.com/BlackMission/fedisub/internal/observability/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure reports err to the user with the fixed message for its kind.
// A missing session sends the user back to the sign-in form.
func writeFailure(w http.ResponseWriter, r *http.Request, views *Views, err error) {
	kind := domain.KindOf(err)
	logger.From(r.Context()).Debug("request failed", logger.Kind(kind.String()), logger.Err(err))

	if kind == domain.KindUnauthenticated {
		views.Render(w, r, kind.Status(), pageHome, homeData{Notice: kind.Message()})
		return
	}
	views.Render(w, r, kind.Status(), pageError, errorData{
		Status:  kind.Status(),
		Kind:    kind.String(),
		Message: kind.Message(),
	})
}
