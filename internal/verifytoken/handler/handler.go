package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credchain/internal/verifytoken/models"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/platform/httputil"
	"credchain/pkg/requestcontext"
)

type Service interface {
	Generate(ctx context.Context, actor domain.Identity, certificateID string) (*models.VerificationToken, error)
}

// Handler serves verification token creation for certificate holders.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the token endpoint. The router must authenticate students
// and institution staff before it.
func (h *Handler) Register(r chi.Router) {
	r.Post("/student/certificates/{id}/generate-verification-token", h.HandleGenerate)
}

type GenerateResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, ok := requestcontext.Identity(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	certificateID := chi.URLParam(r, "id")
	vt, err := h.service.Generate(ctx, identity, certificateID)
	if err != nil {
		h.logger.WarnContext(ctx, "verification token not generated",
			"certificate_id", certificateID,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, GenerateResponse{Token: vt.Token, ExpiresAt: vt.ExpiresAt})
}
