package auth

import (
	"context"
	"strings"

	"topicslog/internal/errors"

	"github.com/gin-gonic/gin"
)

// ContextUID is the gin context key holding the authenticated account uid.
const ContextUID = "uid"

type TokenVersionSource interface {
	TokenVersion(ctx context.Context, uid string) (uint64, error)
}

// AuthMiddleWare accepts a bearer token, or a token query parameter for
// websocket upgrades where browsers can't set headers.
func AuthMiddleWare(issuer *TokenIssuer, versions TokenVersionSource) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var token string
		if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if tokenQuery := ctx.Query("token"); tokenQuery != "" {
			token = tokenQuery
		} else {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		uid, tokenVersion, err := issuer.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		current, err := versions.TokenVersion(ctx.Request.Context(), uid)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid User ID!", err))
			ctx.Abort()
			return
		}

		// Check token version
		if current != tokenVersion {
			ctx.Error(errors.Unauthorized("Invalid token version!", nil))
			ctx.Abort()
			return
		}

		ctx.Set(ContextUID, uid)
		ctx.Next()
	}
}

// UID returns the authenticated uid set by AuthMiddleWare.
func UID(ctx *gin.Context) string {
	return ctx.GetString(ContextUID)
}
