package middleware

import (
	"context"
	"net/http"
	"strings"

	"profitlens/internal/domain/auth"
	"profitlens/internal/platform/logger"
	"profitlens/internal/requestctx"
)

// Auth attaches the caller identity from a valid bearer token. Requests
// without one pass through anonymous and are rejected by RequirePermission.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				logger.FromContext(r.Context()).Debug().Err(err).Msg("bearer token rejected")
				next.ServeHTTP(w, r)
				return
			}

			user := claims.User()
			ctx := requestctx.WithUser(r.Context(), user)
			l := logger.FromContext(ctx).With().Str("company_id", user.CompanyID).Str("user_id", user.UserID).Logger()
			ctx = logger.WithContext(ctx, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	return requestctx.GetUser(ctx)
}
