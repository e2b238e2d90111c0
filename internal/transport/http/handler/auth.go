package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blog-backend/internal/app"
	"blog-backend/internal/pkg/jwtutil"
	"blog-backend/internal/transport/http/middleware"
	"blog-backend/internal/transport/http/response"
)

type CookieSettings struct {
	AccessName  string
	RefreshName string
	Secure      bool
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

type AuthHandler struct {
	authService *app.AuthService
	cookies     CookieSettings
	log         *zap.Logger
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,max=100"`
	FullName string `json:"full_name" binding:"required,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

type VerifyRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OTPCode string `json:"otp_code" binding:"required"`
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func NewAuthHandler(authService *app.AuthService, cookies CookieSettings, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, log: log}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), app.SignupInput{
		Email:    req.Email,
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.log, err, "signup failed")
		return
	}

	response.Created(c, gin.H{
		"message": "User registered successfully. Please check your email for verification code.",
		"user_id": user.ID,
	})
}

func (h *AuthHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.VerifyEmail(c.Request.Context(), req.Email, req.OTPCode)
	if err != nil {
		writeError(c, h.log, err, "verify failed")
		return
	}
	h.startSession(c, result)
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	if err := h.authService.ResendOTP(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.log, err, "resend otp failed")
		return
	}
	response.OK(c, gin.H{
		"message": "If the account exists and is not verified, a new code has been sent.",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err, "login failed")
		return
	}
	h.startSession(c, result)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(h.cookies.RefreshName)
	if err != nil || token == "" {
		var req RefreshRequest
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}

	accessToken, expiresAt, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, h.log, err, "refresh failed")
		return
	}

	h.setCookie(c, h.cookies.AccessName, accessToken, h.cookies.AccessTTL)
	response.OK(c, gin.H{
		"access_token": accessToken,
		"expires_at":   expiresAt,
		"token_type":   "cookie",
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, h.cookies.AccessName, "", -1)
	h.setCookie(c, h.cookies.RefreshName, "", -1)
	response.OK(c, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found in context")
		return
	}
	response.OK(c, user)
}

func (h *AuthHandler) startSession(c *gin.Context, result *app.AuthResult) {
	h.setTokenCookies(c, result.Tokens)
	response.OK(c, gin.H{
		"access_token":  result.Tokens.AccessToken,
		"refresh_token": result.Tokens.RefreshToken,
		"token_type":    "cookie",
		"user":          result.User,
	})
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, pair *jwtutil.TokenPair) {
	h.setCookie(c, h.cookies.AccessName, pair.AccessToken, h.cookies.AccessTTL)
	h.setCookie(c, h.cookies.RefreshName, pair.RefreshToken, h.cookies.RefreshTTL)
}

// setCookie writes an httpOnly, SameSite=Lax cookie. A negative ttl deletes it.
func (h *AuthHandler) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.cookies.Secure, true)
}
