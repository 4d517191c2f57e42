// Package httpapi assembles the chi router for all HTTP endpoints.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"credchain/pkg/domain"
	"credchain/pkg/platform/httputil"
	authmw "credchain/pkg/platform/middleware/auth"
	"credchain/pkg/platform/middleware/logging"
	"credchain/pkg/platform/middleware/metadata"
	"credchain/pkg/platform/middleware/request"
	"credchain/pkg/platform/middleware/requesttime"
)

type AuthRoutes interface {
	Register(r chi.Router)
}

type CertificateRoutes interface {
	RegisterInstitution(r chi.Router)
	RegisterHolder(r chi.Router)
	RegisterPublic(r chi.Router)
}

type TokenRoutes interface {
	Register(r chi.Router)
}

type AdminRoutes interface {
	Register(r chi.Router)
}

// Deps are the handlers and collaborators the router mounts.
type Deps struct {
	Auth         AuthRoutes
	Certificates CertificateRoutes
	Tokens       TokenRoutes
	Admin        AdminRoutes
	Roles        authmw.RoleChecker
	Metrics      http.Handler
	Logger       *slog.Logger
}

// NewRouter wires every endpoint behind the common middleware chain. Role
// checks happen here so handlers only deal with the identity they receive.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(logging.AccessLog(d.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "credchain"})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	d.Auth.Register(r)
	d.Certificates.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(d.Roles, d.Logger, domain.InstitutionRoles...))
		d.Certificates.RegisterInstitution(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(d.Roles, d.Logger, append([]domain.Role{domain.RoleStudent}, domain.InstitutionRoles...)...))
		d.Certificates.RegisterHolder(r)
		d.Tokens.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireRole(d.Roles, d.Logger, domain.RoleGovAdmin))
		d.Admin.Register(r)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	})
	return r
}
