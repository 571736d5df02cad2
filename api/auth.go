package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/uxpromo/limboquest-api/db"
	"github.com/uxpromo/limboquest-api/service/security"
	"github.com/uxpromo/limboquest-api/service/worker"
	"github.com/uxpromo/limboquest-api/util"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	ID           string `json:"id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Expires      int    `json:"expires"`
}

// Login godoc
// @Summary      Administrator login
// @Description  Authenticates a back office administrator and returns an access token and refresh token.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Administrator login credentials"
// @Success      200 {object} LoginResponse "Login successful"
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      403 {object} ErrorResponse "Incorrect login credentials"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/auth/login [post]
func (server *Server) Login(ctx *gin.Context) {
	// Get request body and validate
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/auth/login: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	// Look the account up by email. A wrong email and a wrong password get
	// the same answer, so the endpoint doesn't leak which emails exist
	user, err := server.queries.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusForbidden, ErrorResponse{"Incorrect login credentials"})
			return
		}
		util.LOGGER.Error("POST /api/v1/admin/auth/login: failed to get user by email", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if !security.BcryptCompare(user.Password, req.Password) || !user.IsActive {
		ctx.JSON(http.StatusForbidden, ErrorResponse{"Incorrect login credentials"})
		return
	}

	// Issue the token pair
	accessToken, err := server.jwtService.CreateToken(user.ID, user.IsAdmin, security.AccessToken, user.TokenVersion)
	if err != nil {
		util.LOGGER.Error("POST /api/v1/admin/auth/login: failed to create access token", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}
	refreshToken, err := server.jwtService.CreateToken(user.ID, user.IsAdmin, security.RefreshToken, user.TokenVersion)
	if err != nil {
		util.LOGGER.Error("POST /api/v1/admin/auth/login: failed to create refresh token", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Record the login time. Not worth failing the login over
	if err := server.queries.TouchLastLogin(ctx, user.ID); err != nil {
		util.LOGGER.Error("POST /api/v1/admin/auth/login: failed to record last login", "id", user.ID, "error", err)
	}

	ctx.JSON(http.StatusOK, LoginResponse{
		ID:           user.ID.String(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expires:      int(server.config.TokenExpiration.Seconds()),
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken godoc
// @Summary      Refresh the token pair
// @Description  Exchanges a valid refresh token for a fresh access/refresh pair.
// @Description  Fails if the account was deactivated or the password changed since the token was issued.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshTokenRequest true "Refresh token"
// @Success      200 {object} LoginResponse "Token refresh success"
// @Failure      400 {object} ErrorResponse "Invalid request body"
// @Failure      401 {object} ErrorResponse "Invalid token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/auth/refresh [post]
func (server *Server) RefreshToken(ctx *gin.Context) {
	// Get request body
	var req RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/auth/refresh: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	claims, err := server.jwtService.VerifyToken(req.RefreshToken)
	if err != nil || claims.TokenType != security.RefreshToken {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid token"})
		return
	}

	// The account must still be in good standing, under the same token
	// generation
	user, err := server.queries.GetUserByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid token"})
			return
		}
		util.LOGGER.Error("POST /api/v1/admin/auth/refresh: failed to load user", "id", claims.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}
	if !user.IsActive || claims.Version != user.TokenVersion {
		ctx.JSON(http.StatusUnauthorized, ErrorResponse{"Invalid token"})
		return
	}

	accessToken, err := server.jwtService.CreateToken(user.ID, user.IsAdmin, security.AccessToken, user.TokenVersion)
	if err != nil {
		util.LOGGER.Error("POST /api/v1/admin/auth/refresh: failed to create access token", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}
	refreshToken, err := server.jwtService.CreateToken(user.ID, user.IsAdmin, security.RefreshToken, user.TokenVersion)
	if err != nil {
		util.LOGGER.Error("POST /api/v1/admin/auth/refresh: failed to create refresh token", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, LoginResponse{
		ID:           user.ID.String(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expires:      int(server.config.TokenExpiration.Seconds()),
	})
}

// SendResetPasswordRequest godoc
// @Summary      Send password reset request
// @Description  Emails a reset link to the given address if an account exists.
// @Description  The response does not reveal whether the account exists.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        email  query     string  true  "Account email address"
// @Success      200  {object}  SuccessMessage  "Email sent if the account exists"
// @Failure      400  {object}  ErrorResponse   "Email cannot be empty"
// @Failure      500  {object}  ErrorResponse   "Internal server error"
// @Router       /api/v1/admin/auth/password_request [post]
func (server *Server) SendResetPasswordRequest(ctx *gin.Context) {
	// Get email from query parameter and validate
	email := ctx.Query("email")
	if email = strings.TrimSpace(email); email == "" {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Email cannot be empty"})
		return
	}

	user, err := server.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			// Same answer as success so the endpoint can't be used to probe
			// for admin emails
			ctx.JSON(http.StatusOK, SuccessMessage{"Email sent if the account exists"})
			return
		}
		util.LOGGER.Error("POST /api/v1/admin/auth/password_request: failed to get user by email", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// Create background task: send reset password email
	err = server.distributor.DistributeTask(ctx, worker.SendResetPassword, worker.SendResetPasswordPayload{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.FullName(),
	}, asynq.Queue(worker.MEDIUM_IMPACT), asynq.MaxRetry(5))

	if err != nil {
		util.LOGGER.Error("POST /api/v1/admin/auth/password_request: failed to distribute task", "task", worker.SendResetPassword, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, SuccessMessage{"Email sent if the account exists"})
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ResetPassword godoc
// @Summary      Reset password with an emailed token
// @Description  Consumes the one-shot reset token from the email link and sets a new password.
// @Description  Changing the password bumps the token version, so every previously issued JWT stops working.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        token    path  string                true  "Reset token from the email link"
// @Param        request  body  ResetPasswordRequest  true  "New password"
// @Success      200 {object} SuccessMessage "Password changed successfully"
// @Failure      400 {object} ErrorResponse "Invalid request body | Token expired or invalid"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /api/v1/admin/auth/password_reset/{token} [post]
func (server *Server) ResetPassword(ctx *gin.Context) {
	token := ctx.Param("token")

	var req ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.LOGGER.Warn("POST /api/v1/admin/auth/password_reset: failed to bind request body", "error", err)
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	// Look the token up in cache; the worker stored the user id under it
	idCached, err := server.queries.GetCache(ctx, worker.ResetTokenPrefix+token)
	if err != nil && !server.queries.IsCacheMiss(err) {
		util.LOGGER.Error("POST /api/v1/admin/auth/password_reset: failed to get reset token from cache", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if idCached == "" {
		// Never stored, already used, or expired: from the client side these
		// are all the same, the link has to be requested again
		ctx.JSON(http.StatusBadRequest, ErrorResponse{"Token expired or invalid"})
		return
	}

	id, err := uuid.Parse(idCached)
	if err != nil {
		util.LOGGER.Error("POST /api/v1/admin/auth/password_reset: malformed user id in cache", "value", idCached, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	hashed, err := security.BcryptHash(req.NewPassword)
	if err != nil {
		util.LOGGER.Error("POST /api/v1/admin/auth/password_reset: failed to hash password", "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	if err := server.queries.UpdateUserPassword(ctx, id, hashed); err != nil {
		util.LOGGER.Error("POST /api/v1/admin/auth/password_reset: failed to update password", "id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
		return
	}

	// One-shot: the token must not be replayable after a successful reset
	server.queries.DeleteCache(ctx, worker.ResetTokenPrefix+token)

	ctx.JSON(http.StatusOK, SuccessMessage{"Password changed successfully"})
}

type AuthUserResponse struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	IsAdmin     bool       `json:"is_admin"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// GetAuthUser godoc
// @Summary      Current authenticated administrator
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} AuthUserResponse "Authenticated account"
// @Failure      401 {object} ErrorResponse "Invalid token"
// @Router       /api/v1/admin/auth/user [get]
func (server *Server) GetAuthUser(ctx *gin.Context) {
	user := server.authorizedUser(ctx)

	ctx.JSON(http.StatusOK, AuthUserResponse{
		ID:          user.ID.String(),
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		IsAdmin:     user.IsAdmin,
		LastLoginAt: user.LastLoginAt,
	})
}
