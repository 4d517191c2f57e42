package handler

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"credchain/internal/canonical"
	"credchain/internal/certificate/models"
	"credchain/internal/certificate/service"
	dErrors "credchain/pkg/domain-errors"
)

const maxMetadataBytes = 64 << 10

// UploadRequest is the form part of a certificate upload. Document holds the
// bytes of the "file" part.
type UploadRequest struct {
	StudentID     string
	Type          string
	CertificateID string
	Meta          string
	Document      []byte
	Filename      string

	metadata canonical.Value
}

// Validate normalises the form fields and parses the metadata. A missing meta
// field is treated as an empty object.
func (r *UploadRequest) Validate() error {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.Type = strings.TrimSpace(r.Type)
	r.CertificateID = strings.TrimSpace(r.CertificateID)

	if len(r.Document) == 0 {
		return dErrors.New(dErrors.CodeValidation, "file is required")
	}
	if !govalidator.StringLength(r.StudentID, "1", "128") {
		return dErrors.New(dErrors.CodeValidation, "studentId is required")
	}
	if r.CertificateID != "" {
		if err := models.ValidateCertificateID(r.CertificateID); err != nil {
			return err
		}
	}

	meta := strings.TrimSpace(r.Meta)
	if meta == "" {
		meta = "{}"
	}
	if len(meta) > maxMetadataBytes {
		return dErrors.New(dErrors.CodeValidation, "meta must be at most 64 KiB")
	}
	if !govalidator.IsJSON(meta) {
		return dErrors.New(dErrors.CodeValidation, "meta must be valid JSON")
	}
	v, err := canonical.Parse([]byte(meta))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "meta must be valid JSON")
	}
	r.metadata = v
	return nil
}

func (r *UploadRequest) IssueRequest() service.IssueRequest {
	return service.IssueRequest{
		StudentRef:    r.StudentID,
		Type:          r.Type,
		Document:      r.Document,
		Metadata:      r.metadata,
		CertificateID: r.CertificateID,
	}
}

type UploadResponse struct {
	OK   bool                `json:"ok"`
	Cert *models.Certificate `json:"cert"`
}

type StudentsResponse struct {
	Students []*models.Student `json:"students"`
}

type ChainResponse struct {
	TxHash  string `json:"txHash"`
	Network string `json:"network"`
}

type VerifyCertificateResponse struct {
	Certificate *models.Certificate `json:"certificate"`
	Verified    bool                `json:"verified"`
	Chain       ChainResponse       `json:"chain"`
}

type VerifyTokenResponse struct {
	Certificate *models.Certificate `json:"certificate"`
	Verified    bool                `json:"verified"`
}
