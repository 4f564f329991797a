package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig/v3"

	"github.com/BlackMission/fedisub/internal/domain"
	"github.com/BlackMission/fedisub/internal/observability/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageHome      = "home"
	pageFollowing = "following"
	pageError     = "error"
)

type homeData struct {
	Notice   string
	SignedIn bool
	Domain   string
}

type followingData struct {
	Instance  domain.Instance
	Me        domain.Profile
	Following []domain.Profile
}

type errorData struct {
	Status  int
	Kind    string
	Message string
}

// Views holds one parsed template set per page, each wrapped in the shared layout.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses the embedded page templates.
func NewViews() (*Views, error) {
	base, err := template.New("layout.html").Funcs(sprig.HtmlFuncMap()).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}

	v := &Views{pages: make(map[string]*template.Template)}
	for _, page := range []string{pageHome, pageFollowing, pageError} {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layout for %s: %w", page, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+page+".html"); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", page, err)
		}
		v.pages[page] = t
	}
	return v, nil
}

// MustViews is NewViews for callers that cannot recover from broken templates.
func MustViews() *Views {
	v, err := NewViews()
	if err != nil {
		panic(err)
	}
	return v
}

// Render executes page into a buffer first so a template error never leaves a
// half-written response.
func (v *Views) Render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	t, ok := v.pages[page]
	if !ok {
		writeError(w, http.StatusInternalServerError, "unknown page")
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		logger.From(r.Context()).Error("rendering page", logger.String("page", page), logger.Err(err))
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
