package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credchain/internal/chain"
	"credchain/internal/institution/models"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/platform/httputil"
	"credchain/pkg/requestcontext"
)

type Service interface {
	List(ctx context.Context) ([]*models.Institution, error)
	Approve(ctx context.Context, actor domain.Identity, id domain.InstitutionID) (*models.Institution, error)
	Suspend(ctx context.Context, actor domain.Identity, id domain.InstitutionID) (*models.Institution, error)
	SetIssuerAuthorization(ctx context.Context, actor domain.Identity, id domain.InstitutionID, wallet string, allowed bool) (*models.Institution, *chain.Receipt, error)
}

// Handler serves institution administration for government admins.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin routes. The router restricts them to GOV_ADMIN.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/institutions", h.HandleList)
	r.Post("/admin/institutions/approve", h.HandleApprove)
	r.Post("/admin/institutions/suspend", h.HandleSuspend)
	r.Post("/admin/institutions/whitelist-wallet", h.HandleWhitelistWallet)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	insts, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list institutions",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if insts == nil {
		insts = []*models.Institution{}
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{Institutions: insts})
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleStatus(w, r, "approve", h.service.Approve)
}

func (h *Handler) HandleSuspend(w http.ResponseWriter, r *http.Request) {
	h.handleStatus(w, r, "suspend", h.service.Suspend)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, action string,
	apply func(context.Context, domain.Identity, domain.InstitutionID) (*models.Institution, error),
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[StatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inst, err := apply(ctx, identity, req.id)
	if err != nil {
		h.logger.WarnContext(ctx, "institution status not changed",
			"action", action,
			"institution_id", req.InstitutionID,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, InstitutionResponse{OK: true, Institution: inst})
}

func (h *Handler) HandleWhitelistWallet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[WhitelistRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inst, receipt, err := h.service.SetIssuerAuthorization(ctx, identity, req.id, req.Wallet, *req.Allowed)
	if err != nil {
		h.logger.WarnContext(ctx, "issuer authorization not changed",
			"institution_id", req.InstitutionID,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, WhitelistResponse{
		OK:          true,
		Result:      TxResult{TxHash: receipt.Reference, BlockNumber: receipt.BlockNumber},
		Institution: inst,
	})
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := requestcontext.Identity(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.Identity{}, false
	}
	return identity, true
}
