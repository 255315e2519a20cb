// Package inspect serves a computed security configuration over HTTP for
// debugging. It is read-only and performs no enforcement.
package inspect

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chr1sbest/routeauthz/internal/logging"
	"github.com/chr1sbest/routeauthz/internal/model"
)

var logger = logging.GetLogger("routeauthz.inspect")

// NewRouter returns a chi router exposing cfg:
//
//	GET /constraints           all constraints in order
//	GET /constraints/{method}  constraints for one HTTP method
//	GET /match?method=&path=   constraints whose pattern covers a request
//	GET /roles                 declared roles
//	GET /config                the Keycloak adapter document
func NewRouter(cfg *model.Config) http.Handler {
	h := &handler{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/constraints", h.listConstraints)
	r.Get("/constraints/{method}", h.constraintsByMethod)
	r.Get("/match", h.match)
	r.Get("/roles", h.roles)
	r.Get("/config", h.config)
	return r
}

type handler struct {
	cfg *model.Config
}

func (h *handler) listConstraints(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.constraints(func(model.SecurityConstraint) bool { return true }))
}

func (h *handler) constraintsByMethod(w http.ResponseWriter, r *http.Request) {
	method := strings.ToUpper(chi.URLParam(r, "method"))
	writeJSON(w, http.StatusOK, h.constraints(func(c model.SecurityConstraint) bool {
		return c.Method == method
	}))
}

func (h *handler) match(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("method")
	path := r.URL.Query().Get("path")
	if method == "" || path == "" {
		http.Error(w, "method and path are required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.constraints(func(c model.SecurityConstraint) bool {
		return c.Matches(method, path)
	}))
}

func (h *handler) roles(w http.ResponseWriter, _ *http.Request) {
	roles := h.cfg.DeclaredRoles
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, roles)
}

func (h *handler) config(w http.ResponseWriter, _ *http.Request) {
	doc := h.cfg.KeycloakJSON
	if doc == "" {
		doc = "{}"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

func (h *handler) constraints(keep func(model.SecurityConstraint) bool) []model.SecurityConstraint {
	out := make([]model.SecurityConstraint, 0, len(h.cfg.Constraints))
	for _, c := range h.cfg.Constraints {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("encode response: %v", err)
	}
}
