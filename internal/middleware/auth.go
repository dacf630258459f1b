package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logpkg "github.com/balubo/insight-api/internal/logger"
	"github.com/balubo/insight-api/internal/models"
	"github.com/balubo/insight-api/internal/request"
	"github.com/balubo/insight-api/internal/services/auth"
)

// Auth creates authentication middleware that validates bearer JWT tokens
// and attaches the authenticated principal to the request context.
func Auth(verifier *auth.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, http.StatusUnauthorized, "Missing Authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
				return
			}

			ctx := r.Context()
			claims, err := verifier.Verify(ctx, parts[1])
			if err != nil {
				logger.Warn("token_verification_failed", zap.String("error", logpkg.SanitizeError(err)))
				respondError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			// Tokens carry the platform user ID in sub
			userID, err := uuid.Parse(claims.Sub)
			if err != nil {
				logger.Warn("token_subject_not_uuid", zap.String("sub", logpkg.SanitizeUserID(claims.Sub)))
				respondError(w, http.StatusUnauthorized, "Invalid token subject")
				return
			}

			principal := &models.Principal{
				ID:    userID,
				Email: claims.Email,
				Role:  claims.Role,
			}

			ctx = request.WithPrincipal(ctx, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	// Best effort, headers are already written
	_ = json.NewEncoder(w).Encode(response)
}
