package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"classservice/internal/ctxdata"
	"classservice/internal/errdefs"
	"classservice/internal/identity"
	"classservice/internal/logging"
)

func NewAuthMiddleware(provider identity.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			header := r.Header.Get("Authorization")
			if header == "" {
				if logger, ok := logging.GetFromContext(ctx); ok {
					logger.Info(ctx, "no authorization header", zap.String("path", r.URL.Path))
				}
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			principal, err := provider.Authenticate(ctx, header)
			if err != nil {
				if errors.Is(err, errdefs.ErrPermissionDenied) {
					if logger, ok := logging.GetFromContext(ctx); ok {
						logger.Info(ctx, "authentication rejected", zap.String("path", r.URL.Path))
					}
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				if logger, ok := logging.GetFromContext(ctx); ok {
					logger.Error(ctx, "identity provider failure",
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
						zap.Error(err),
					)
				}
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			ctx = ctxdata.WithUserID(ctx, principal.ID)
			ctx = ctxdata.WithUserRole(ctx, string(principal.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
