package intake

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// IdentityService exchanges a bearer token for the caller's username
type IdentityService interface {
	Resolve(ctx context.Context, token string) (string, error)
}

// IdentityResolver authenticates the caller of one request
type IdentityResolver struct {
	service IdentityService
	logger  *slog.Logger
}

func NewIdentityResolver(service IdentityService, logger *slog.Logger) *IdentityResolver {
	return &IdentityResolver{service: service, logger: logger}
}

// BearerToken extracts the credential from the Authorization header.
// It returns "" when the header is absent or carries no token. HTTP parsing
// drops trailing whitespace, so a bare "Bearer" also carries no token.
func BearerToken(headers http.Header) string {
	raw := strings.TrimSpace(headers.Get("Authorization"))
	if raw == strings.TrimSpace(bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
}

// Resolve returns the caller identity. The local credential check runs before any
// call to the identity service.
func (r *IdentityResolver) Resolve(ctx context.Context, headers http.Header) (string, error) {
	token := BearerToken(headers)
	if token == "" {
		return "", &Error{Kind: MissingCredential}
	}

	username, err := r.service.Resolve(ctx, token)
	if err != nil {
		r.logger.Warn("Identity service rejected token",
			slog.String("error", err.Error()),
		)
		return "", &Error{Kind: InvalidCredential, Err: err}
	}

	username = strings.TrimSpace(username)
	if username == "" {
		r.logger.Warn("Identity service returned an empty username")
		return "", &Error{Kind: InvalidCredential}
	}

	return username, nil
}
