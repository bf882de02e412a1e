package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cgvrzon/arynstal/internal/audit"
	"github.com/cgvrzon/arynstal/internal/staff"
)

type contextKey string

const actorKey contextKey = "actor"

// StaffDirectory resolves JWT subjects to staff members.
type StaffDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*staff.Member, error)
}

// AdminJWT enforces an HMAC-signed JWT for admin endpoints. The token subject
// is the staff member's id; the resolved member becomes the audit actor for
// everything the request does.
func AdminJWT(secret string, directory StaffDirectory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			staffID, err := uuid.Parse(claims.Subject)
			if err != nil {
				http.Error(w, "invalid token subject", http.StatusUnauthorized)
				return
			}

			member, err := directory.GetByID(r.Context(), staffID)
			if err != nil {
				http.Error(w, "unknown staff member", http.StatusUnauthorized)
				return
			}
			if !member.Active {
				http.Error(w, "staff member deactivated", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), actorKey, member.Actor())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the authenticated staff actor, or nil when the
// request is anonymous.
func ActorFromContext(ctx context.Context) *audit.Actor {
	actor, _ := ctx.Value(actorKey).(*audit.Actor)
	return actor
}

// WithActor attaches an actor to the context. Used by handler tests and by
// internal callers acting on behalf of a staff member.
func WithActor(ctx context.Context, actor *audit.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
