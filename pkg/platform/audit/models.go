package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal or regulatory significance,
	// such as issuing a certificate or changing who may issue.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring:
	// failed logins and suspensions.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// ActorID is the account that performed the action, or the attempted
	// login email for failed logins.
	ActorID   string
	ActorRole string
	// Subject is the primary resource acted upon (certificate id, institution id).
	Subject   string
	Reason    string
	IP        string
	UserAgent string
	RequestID string
	Metadata  map[string]string
}

type AuditEvent string

const (
	// Session events
	EventLoginSucceeded AuditEvent = "login_succeeded"
	EventLoginFailed    AuditEvent = "login_failed"
	EventTokenRefreshed AuditEvent = "token_refreshed"
	EventLoggedOut      AuditEvent = "logged_out"

	// Certificate events
	EventCertificateIssued        AuditEvent = "certificate_issued"
	EventCertificateIssueFailed   AuditEvent = "certificate_issue_failed"
	EventVerificationTokenCreated AuditEvent = "verification_token_created"

	// Institution administration
	EventInstitutionApproved        AuditEvent = "institution_approved"
	EventInstitutionSuspended       AuditEvent = "institution_suspended"
	EventIssuerAuthorizationChanged AuditEvent = "issuer_authorization_changed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCertificateIssued:          CategoryCompliance,
	EventInstitutionApproved:        CategoryCompliance,
	EventIssuerAuthorizationChanged: CategoryCompliance,

	EventLoginFailed:            CategorySecurity,
	EventInstitutionSuspended:   CategorySecurity,
	EventCertificateIssueFailed: CategorySecurity,

	EventLoginSucceeded:           CategoryOperations,
	EventTokenRefreshed:           CategoryOperations,
	EventLoggedOut:                CategoryOperations,
	EventVerificationTokenCreated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
