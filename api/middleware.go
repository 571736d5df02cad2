package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/service/security"
	"github.com/uxpromo/limboquest-api/util"
)

// Context key under which AuthMiddleware stores the authenticated user
const authorizedUserKey = "authorized_user"

// CORS middleware
func (server *Server) CORSMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Header("Access-Control-Allow-Origin", "*")
		ctx.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		ctx.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		// Handle preflight and return immediately so Gin doesn't respond 404 for OPTIONS
		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusOK)
			return
		}

		ctx.Next()
	}
}

// Auth middleware. Verifies the bearer access token, loads the account and
// enforces that it is an active administrator whose token generation still
// matches the stored token_version (a password change retires older tokens).
func (server *Server) AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		// Get the token from the Authorization header
		header := ctx.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Missing bearer token"})
			return
		}

		// Verify signature, expiration and issuer
		claims, err := server.jwtService.VerifyToken(token)
		if err != nil {
			util.LOGGER.Warn("auth middleware: failed to verify token", "error", err)
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Invalid token"})
			return
		}

		// Only access tokens open the admin surface
		if claims.TokenType != security.AccessToken {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Invalid token"})
			return
		}

		// Load the account behind the token
		user, err := server.queries.GetUserByID(ctx, claims.ID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Invalid token"})
				return
			}
			util.LOGGER.Error("auth middleware: failed to load user", "id", claims.ID, "error", err)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
			return
		}

		// Deactivated accounts and tokens issued before the last password
		// change are both rejected
		if !user.IsActive || claims.Version != user.TokenVersion {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{"Invalid token"})
			return
		}

		if !user.IsAdmin {
			ctx.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{"Admin access required"})
			return
		}

		ctx.Set(authorizedUserKey, user)
		ctx.Next()
	}
}

// Helper to fetch the user AuthMiddleware stored in the request context
func (server *Server) authorizedUser(ctx *gin.Context) *db.User {
	user, _ := ctx.MustGet(authorizedUserKey).(*db.User)
	return user
}
