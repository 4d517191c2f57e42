package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credchain/internal/certificate/models"
	"credchain/internal/certificate/service"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/platform/httputil"
	"credchain/pkg/requestcontext"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

type Issuer interface {
	Issue(ctx context.Context, actor domain.Identity, req service.IssueRequest) (*models.Certificate, error)
}

type Registry interface {
	ListForHolder(ctx context.Context, identity domain.Identity) ([]*models.Certificate, error)
	SearchStudents(ctx context.Context, identity domain.Identity, query string) ([]*models.Student, error)
}

type Verifier interface {
	VerifyByCertificateID(ctx context.Context, certificateID string) (*models.VerificationResult, error)
	VerifyByToken(ctx context.Context, token string) (*models.VerificationResult, error)
}

// Handler serves certificate upload, listing and public verification.
type Handler struct {
	issuer         Issuer
	registry       Registry
	verifier       Verifier
	maxUploadBytes int64
	logger         *slog.Logger
}

func New(issuer Issuer, registry Registry, verifier Verifier, maxUploadBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		issuer:         issuer,
		registry:       registry,
		verifier:       verifier,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterInstitution mounts the routes for institution staff.
func (h *Handler) RegisterInstitution(r chi.Router) {
	r.Post("/institution/certificates/upload", h.HandleUpload)
	r.Get("/institution/certificates", h.HandleListCertificates)
	r.Get("/institution/students", h.HandleSearchStudents)
}

// RegisterHolder mounts the routes for students and institution staff.
func (h *Handler) RegisterHolder(r chi.Router) {
	r.Get("/student/certificates", h.HandleListCertificates)
}

// RegisterPublic mounts the unauthenticated verification routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/certificate/{certificateId}", h.HandleVerifyCertificate)
	r.Get("/verify/token/{token}", h.HandleVerifyToken)
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	req, err := h.readUpload(w, r)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		h.logger.WarnContext(ctx, "invalid certificate upload",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	cert, err := h.issuer.Issue(ctx, identity, req.IssueRequest())
	if err != nil {
		h.logger.WarnContext(ctx, "certificate not issued",
			"certificate_id", req.CertificateID,
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "certificate issued",
		"certificate_id", cert.ID,
		"filename", req.Filename,
		"request_id", requestID,
	)
	httputil.WriteJSON(w, http.StatusOK, UploadResponse{OK: true, Cert: cert})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*UploadRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodeValidation, "upload exceeds the maximum size")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "request must be multipart/form-data")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	req := &UploadRequest{
		StudentID:     r.FormValue("studentId"),
		Type:          r.FormValue("type"),
		CertificateID: r.FormValue("certificateId"),
		Meta:          r.FormValue("meta"),
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read file")
	}
	defer file.Close()

	req.Document, err = io.ReadAll(file)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read file")
	}
	req.Filename = header.Filename
	return req, nil
}

func (h *Handler) HandleListCertificates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	certs, err := h.registry.ListForHolder(ctx, identity)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list certificates",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if certs == nil {
		certs = []*models.Certificate{}
	}
	httputil.WriteJSON(w, http.StatusOK, certs)
}

func (h *Handler) HandleSearchStudents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	students, err := h.registry.SearchStudents(ctx, identity, r.URL.Query().Get("q"))
	if err != nil {
		h.logger.WarnContext(ctx, "student search failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	if students == nil {
		students = []*models.Student{}
	}
	httputil.WriteJSON(w, http.StatusOK, StudentsResponse{Students: students})
}

func (h *Handler) HandleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.verifier.VerifyByCertificateID(ctx, chi.URLParam(r, "certificateId"))
	if err != nil {
		h.writeVerifyError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyCertificateResponse{
		Certificate: result.Certificate,
		Verified:    result.Verified,
		Chain: ChainResponse{
			TxHash:  result.ChainReference,
			Network: result.ChainNetwork,
		},
	})
}

func (h *Handler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.verifier.VerifyByToken(ctx, chi.URLParam(r, "token"))
	if err != nil {
		h.writeVerifyError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyTokenResponse{
		Certificate: result.Certificate,
		Verified:    result.Verified,
	})
}

func (h *Handler) writeVerifyError(ctx context.Context, w http.ResponseWriter, err error) {
	level := slog.LevelInfo
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeChainUnavailable {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "verification failed",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	identity, ok := requestcontext.Identity(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return domain.Identity{}, false
	}
	return identity, true
}
