package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/warimas/backoffice/internal/auth"
	"github.com/warimas/backoffice/internal/logger"
	"github.com/warimas/backoffice/internal/utils"
)

const (
	ServiceAuthHeader = "X-Service-Auth"
	TeamHeader        = "X-Team-ID"
)

// Auth rejects requests without a valid access token and stores the member
// and team on the context. Trusted services may instead send the internal
// key together with an explicit X-Team-ID.
func Auth(secret, internalKey string) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromCtx(r.Context()).With(zap.String("layer", "middleware"))

			if internalKey != "" && r.Header.Get(ServiceAuthHeader) == internalKey {
				teamID, ok := utils.ParseID(r.Header.Get(TeamHeader))
				if !ok {
					utils.WriteError(w, http.StatusBadRequest, "invalid_input", "X-Team-ID is required for service calls")
					return
				}
				ctx := utils.WithInternalRequest(r.Context())
				ctx = utils.SetUserContext(ctx, 0, teamID, "", "service")
				ctx = logger.WithTeam(ctx, teamID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			tokenStr := auth.ExtractAccessToken(r)
			if tokenStr == "" {
				utils.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing access token")
				return
			}

			claims, err := auth.ParseToken(key, tokenStr)
			if err != nil {
				log.Warn("rejected token", zap.Error(err))
				utils.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}
			if claims.TeamID <= 0 {
				utils.WriteError(w, http.StatusForbidden, "forbidden", "token is not bound to a team")
				return
			}

			ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.TeamID, claims.Email, claims.Role)
			ctx = logger.WithTeam(ctx, claims.TeamID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
