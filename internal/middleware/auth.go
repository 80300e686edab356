package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/squeak-be/internal/auth"
	"github.com/hongminglow/squeak-be/internal/http/respond"
	"github.com/hongminglow/squeak-be/internal/service"
)

// PrincipalResolver turns a bearer token into the caller's identity.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (auth.Principal, error)
}

// Authenticate attaches the Principal for a valid bearer token. Requests
// without an Authorization header pass through anonymously; a header that
// does not verify is rejected with 401.
func Authenticate(resolver PrincipalResolver, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				respond.Error(w, http.StatusUnauthorized, "malformed authorization header")
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), strings.TrimSpace(token))
			if err != nil {
				if service.KindOf(err) == service.KindInternal {
					log.WithError(err).WithField("request_id", RequestIDFrom(r.Context())).Error("failed to resolve principal")
					respond.Error(w, http.StatusInternalServerError, service.MessageOf(err))
					return
				}
				respond.Error(w, http.StatusUnauthorized, service.MessageOf(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
