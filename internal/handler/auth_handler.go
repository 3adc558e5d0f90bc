package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fwforge/fwportal/internal/pkg/response"
	"github.com/fwforge/fwportal/internal/service"
)

type AuthHandler struct {
	verify *service.VerificationService
	tokens *service.TokenService
}

func NewAuthHandler(verify *service.VerificationService, tokens *service.TokenService) *AuthHandler {
	return &AuthHandler{verify: verify, tokens: tokens}
}

type sendCodeRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *AuthHandler) SendCode(c *gin.Context) {
	var req sendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.verify.SendCode(c.Request.Context(), req.Email, req.Role); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c)
}

func (h *AuthHandler) SendAdminCode(c *gin.Context) {
	var req sendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.verify.SendAdminCode(c.Request.Context(), req.Email); err != nil {
		handleError(c, err)
		return
	}
	response.OK(c)
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" || req.Code == "" {
		response.Error(c, http.StatusBadRequest, "email and code are required")
		return
	}
	token, role, email, err := h.verify.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"ok":    true,
		"token": token,
		"role":  role,
		"email": email,
	})
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req verifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		response.Error(c, http.StatusBadRequest, "token is required")
		return
	}
	email, role, err := h.tokens.Validate(req.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false, "error": "invalid or expired token"})
		return
	}
	response.Success(c, gin.H{"valid": true, "email": email, "role": role})
}
