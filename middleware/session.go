package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/keepsake/utils"
)

const (
	// ContextIdentityKey stores the authenticated identity inside Gin context.
	ContextIdentityKey = "identity"
	// ContextSessionKey stores the parsed session claims inside Gin context.
	ContextSessionKey = "session"
)

// IdentityCheck reports whether an identity is still provisioned.
type IdentityCheck func(ctx context.Context, identity string) (bool, error)

// SessionRequired ensures the request carries a valid, unrevoked session for
// an identity that still exists. The cookie is preferred; an Authorization
// bearer token is accepted for non-browser clients. A nil exists skips the
// provisioning lookup.
func SessionRequired(cookieName string, signer *utils.SessionSigner, blacklist *utils.TokenBlacklist, exists IdentityCheck) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, ok := ReadSession(ctx, cookieName, signer, blacklist)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40101, "not_logged_in")
			ctx.Abort()
			return
		}
		if exists != nil {
			found, err := exists(ctx.Request.Context(), claims.Identity)
			if err != nil {
				utils.Logger.Error("session identity lookup failed", zap.Error(err), zap.String("identity", claims.Identity))
				utils.Error(ctx, http.StatusInternalServerError, 50001, "server_error")
				ctx.Abort()
				return
			}
			if !found {
				utils.Error(ctx, http.StatusUnauthorized, 40101, "not_logged_in")
				ctx.Abort()
				return
			}
		}
		ctx.Set(ContextIdentityKey, claims.Identity)
		ctx.Set(ContextSessionKey, claims)
		ctx.Next()
	}
}

// ReadSession extracts and validates the session credential without aborting.
func ReadSession(ctx *gin.Context, cookieName string, signer *utils.SessionSigner, blacklist *utils.TokenBlacklist) (*utils.SessionClaims, bool) {
	token := bearerToken(ctx)
	if token == "" {
		if c, err := ctx.Cookie(cookieName); err == nil {
			token = strings.TrimSpace(c)
		}
	}
	if token == "" {
		return nil, false
	}
	claims, err := signer.Parse(token)
	if err != nil {
		return nil, false
	}
	if blacklist != nil && blacklist.IsRevoked(ctx.Request.Context(), claims.ID) {
		return nil, false
	}
	return claims, true
}

func bearerToken(ctx *gin.Context) string {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Identity returns the identity stored by SessionRequired.
func Identity(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(ContextIdentityKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
