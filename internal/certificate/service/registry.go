package service

import (
	"context"
	"errors"

	"credchain/internal/certificate/models"
	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
)

const maxStudentResults = 20

// Registry answers read-only listing queries for signed-in users.
type Registry struct {
	certificates CertificateStore
	students     StudentStore
	*serviceConfig
}

func NewRegistry(certificates CertificateStore, students StudentStore, opts ...Option) (*Registry, error) {
	if certificates == nil || students == nil {
		return nil, errors.New("registry: certificate and student stores are required")
	}
	return &Registry{
		certificates:  certificates,
		students:      students,
		serviceConfig: newConfig(opts),
	}, nil
}

// ListForHolder returns certificates visible to identity: a student's own
// certificates, or those an institution issued.
func (s *Registry) ListForHolder(ctx context.Context, identity domain.Identity) ([]*models.Certificate, error) {
	var (
		certs []*models.Certificate
		err   error
	)
	switch {
	case identity.Role == domain.RoleStudent:
		certs, err = s.certificates.ListByStudent(ctx, identity.StudentID())
	case identity.Role.IsInstitution():
		certs, err = s.certificates.ListByInstitution(ctx, identity.InstitutionID())
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "role cannot hold certificates")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list certificates")
	}
	return certs, nil
}

// SearchStudents finds students by name or SEID for institution staff.
func (s *Registry) SearchStudents(ctx context.Context, identity domain.Identity, query string) ([]*models.Student, error) {
	if !identity.Role.IsInstitution() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only institution staff may search students")
	}
	if len(query) > 128 {
		return nil, dErrors.New(dErrors.CodeValidation, "query must be at most 128 characters")
	}
	students, err := s.students.Search(ctx, query, maxStudentResults)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search students")
	}
	return students, nil
}
