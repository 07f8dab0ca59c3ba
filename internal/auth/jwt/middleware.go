package jwt

import (
	"net/http"
	"strings"

	"github.com/wareflow/wareflow-backend/pkg/errors"
	"github.com/wareflow/wareflow-backend/pkg/httputil"
	"github.com/wareflow/wareflow-backend/pkg/logger"
)

// Middleware validates the bearer token and adds the caller to the request
// context. The raw token is kept so it can be forwarded to the warehouse API.
func Middleware(m *Manager, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.Error(w, errors.Unauthorized("missing authorization header"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				httputil.Error(w, errors.Unauthorized("invalid authorization header format"))
				return
			}

			claims, err := m.ValidateAccessToken(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("token validation failed")
				httputil.Error(w, err)
				return
			}

			userID := claims.Principal()
			ctx := httputil.WithUserContext(r.Context(), userID, claims.Role, claims.WarehouseID, parts[1])
			httputil.SetUserID(w, userID)
			log.WithUserID(userID).Debug().Str("role", claims.Role).Str("warehouse_id", claims.WarehouseID).Msg("request authenticated")

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
