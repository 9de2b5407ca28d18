// Package httpapi exposes the account lifecycle over HTTP. It owns no
// business logic: requests are bound, handed to the accounts service, and
// the service's outcomes mapped onto status codes.
package httpapi

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/solward/accountd/internal/common"
	"github.com/solward/accountd/internal/logging"
	"github.com/solward/accountd/internal/server/accounts"
)

type Handler struct {
	svc        *accounts.Service
	appBaseURL string
	log        logging.Logger
}

func NewHandler(svc *accounts.Service, appBaseURL string, log logging.Logger) *Handler {
	return &Handler{svc: svc, appBaseURL: appBaseURL, log: log}
}

type signUpRequest struct {
	Email        string `json:"email" binding:"required,email"`
	FirstName    string `json:"fname" binding:"required"`
	LastName     string `json:"lname" binding:"required"`
	Password     string `json:"pwd" binding:"required,min=8"`
	Organization string `json:"company" binding:"required"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"pwd" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"pwd" binding:"required,min=8"`
}

func (h *Handler) SignUp(ctx *gin.Context) {
	var req signUpRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	status, err := h.svc.SignUp(ctx.Request.Context(), req.Email, req.FirstName, req.LastName, req.Password, req.Organization)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	switch status {
	case accounts.StatusAlreadyRegistered:
		ctx.JSON(http.StatusOK, gin.H{"status": "Email Present"})
	default:
		ctx.JSON(http.StatusOK, gin.H{"status": "Email Sent"})
	}
}

// VerifyEmail redeems the signup token from the mailed link and bounces the
// browser to the app's login page with the confirmed credentials.
func (h *Handler) VerifyEmail(ctx *gin.Context) {
	tok := ctx.Query("token")
	if tok == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	creds, err := h.svc.ConfirmSignUp(ctx.Request.Context(), tok)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	q := url.Values{}
	q.Set("email", creds.Email)
	q.Set("password", creds.Password)
	ctx.Redirect(http.StatusFound, h.appBaseURL+"/emaillogin?"+q.Encode())
}

func (h *Handler) SignIn(ctx *gin.Context) {
	var req signInRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	role, err := h.svc.SignIn(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "Valid", "role": string(role)})
}

func (h *Handler) ForgotPassword(ctx *gin.Context) {
	var req forgotPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := h.svc.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "Email Sent"})
}

func (h *Handler) ResetPassword(ctx *gin.Context) {
	var req resetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := h.svc.ConfirmPasswordReset(ctx.Request.Context(), req.Token, req.Password); err != nil {
		h.respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "Password Updated"})
}

func (h *Handler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "account service is running"})
}

func respondBadRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "reason": err.Error()})
}

// respondError maps service errors onto transport outcomes. Expired and
// invalid tokens stay distinguishable so a client can re-request a fresh
// one; credential failures share one body.
func (h *Handler) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
	case errors.Is(err, common.ErrTokenInvalid), errors.Is(err, common.ErrTokenWrongPurpose):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	case errors.Is(err, common.ErrInvalidCredentials):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, common.ErrUserNotFound):
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, common.ErrConcurrentModification):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "directory busy, please retry"})
	case errors.Is(err, common.ErrStorageUnavailable):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": "storage unavailable"})
	default:
		h.log.Error(ctx.Request.Context(), "unhandled service error", "error", err.Error())
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
