package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
	"credchain/pkg/platform/httputil"
	"credchain/pkg/requestcontext"
)

// RoleChecker verifies an access token and its role.
type RoleChecker interface {
	RequireRole(ctx context.Context, accessToken string, roles ...domain.Role) (domain.Identity, error)
}

// BearerToken returns the token from an "Authorization: Bearer" header, or "".
func BearerToken(r *http.Request) string {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireRole rejects requests without a valid access token (401) or whose
// token carries none of roles (403). The verified identity is stored in the
// request context.
func RequireRole(checker RoleChecker, logger *slog.Logger, roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity, err := checker.RequireRole(ctx, BearerToken(r), roles...)
			if err != nil {
				msg := "unauthorized access"
				if dErrors.HasCode(err, dErrors.CodeForbidden) {
					msg = "forbidden access - role not allowed"
				}
				logger.WarnContext(ctx, msg,
					"error", err,
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithIdentity(ctx, identity)))
		})
	}
}
