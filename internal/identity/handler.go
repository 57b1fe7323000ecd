package identity

import (
	"net/http"

	"topicslog/auth"
	"topicslog/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for accounts
type Handler struct {
	service Service
	issuer  *auth.TokenIssuer
	logger  *zap.SugaredLogger
}

// NewHandler creates a new account handler
func NewHandler(service Service, issuer *auth.TokenIssuer, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: service, issuer: issuer, logger: logger}
}

// FormCredentials is the body of both sign-up and login.
type FormCredentials struct {
	Handle   string `json:"user_id" binding:"required,handle"`
	Password string `json:"password" binding:"required"`
}

// Register handles sign-up
func (h *Handler) Register(c *gin.Context) {
	var form FormCredentials
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	account, err := h.service.SignUp(c.Request.Context(), form.Handle, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":    account,
		"message": "Account created. Now login.",
	})
}

// Login handles sign-in
func (h *Handler) Login(c *gin.Context) {
	var form FormCredentials
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	account, tokenVersion, err := h.service.SignIn(c.Request.Context(), form.Handle, form.Password)
	if err != nil {
		c.Error(err)
		return
	}

	accessToken, err := h.issuer.GenerateAccessToken(account.UID, tokenVersion)
	if err != nil {
		c.Error(errors.Unknown(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"user":         account,
	})
}

// Logout invalidates the caller's tokens. The client must not treat its
// tokens as revoked unless this succeeds.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.SignOut(c.Request.Context(), auth.UID(c)); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProfile returns the current account
func (h *Handler) GetProfile(c *gin.Context) {
	account, err := h.service.Profile(c.Request.Context(), auth.UID(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, account)
}
