package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credchain/internal/auth/models"
	"credchain/pkg/platform/httputil"
	"credchain/pkg/requestcontext"
)

type Service interface {
	Login(ctx context.Context, creds models.Credentials, audience models.Audience) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AccessGrant, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Handler exposes the session endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the session endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/institution/login", h.login(models.AudienceInstitution))
	r.Post("/auth/student/login", h.login(models.AudienceStudent))
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/logout", h.HandleLogout)
}

func (h *Handler) login(audience models.Audience) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		req, ok := httputil.DecodeAndPrepare[LoginRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}

		pair, err := h.service.Login(ctx, req.Credentials(), audience)
		if err != nil {
			h.logger.WarnContext(ctx, "login failed",
				"audience", audience,
				"error", err,
				"request_id", requestID,
			)
			httputil.WriteError(w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, LoginResponse{
			Access:    pair.AccessToken,
			Refresh:   pair.RefreshToken,
			ExpiresIn: int(pair.ExpiresIn.Seconds()),
		})
	}
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	grant, err := h.service.Refresh(ctx, req.Token)
	if err != nil {
		h.logger.WarnContext(ctx, "token refresh failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, RefreshResponse{
		Access:    grant.AccessToken,
		ExpiresIn: int(grant.ExpiresIn.Seconds()),
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[TokenRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.Logout(ctx, req.Token); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OKResponse{OK: true})
}
