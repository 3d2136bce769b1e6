package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cradlehealth/cradle/internal/auth"
	"github.com/cradlehealth/cradle/internal/store"
	"github.com/cradlehealth/cradle/internal/token"
)

// RequireAuth validates the Bearer access token and populates AuthContext.
// The user must still exist; a deleted account's token stops working even
// before it expires.
func RequireAuth(tokens *token.Service, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || raw == "" {
				unauthorized(w, "Access denied. No token provided.")
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				unauthorized(w, "Invalid or expired token.")
				return
			}

			user, err := userStore.GetByID(claims.UserID)
			if err != nil || user == nil {
				unauthorized(w, "Invalid token. User not found.")
				return
			}

			ac := auth.AuthContext{
				UserID: user.ID,
				Email:  user.Email,
				Role:   user.Role,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"message": "Access denied. Insufficient permissions."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
