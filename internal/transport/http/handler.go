package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/domain"
	"github.com/waste3d/courseplatform-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth        *usecase.AuthUseCase
	sessions    *middleware.SessionStore
	frontendURL string
}

func NewAuthHandler(auth *usecase.AuthUseCase, sessions *middleware.SessionStore, frontendURL string) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, frontendURL: frontendURL}
}

type signUpReq struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type signInReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type forgotPasswordReq struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordReq struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

func sessionMeta(c *gin.Context) usecase.SessionMeta {
	return usecase.SessionMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// POST /api/auth/sign-up/email
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, session, err := h.auth.SignUp(c.Request.Context(), req.Name, req.Email, req.Password, sessionMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.startSession(c, user, session)
}

// POST /api/auth/sign-in/email
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, session, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password, sessionMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	h.startSession(c, user, session)
}

func (h *AuthHandler) startSession(c *gin.Context, user *domain.User, session *domain.Session) {
	if err := h.sessions.Save(c.Writer, c.Request, session.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": session.Token, "user": user})
}

// POST /api/auth/sign-out
func (h *AuthHandler) SignOut(c *gin.Context) {
	if token := h.sessions.Token(c.Request); token != "" {
		if err := h.auth.SignOut(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
	}
	if err := h.sessions.Clear(c.Writer, c.Request); err != nil {
		log.Printf("clear session cookie: %v", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /api/auth/get-session
func (h *AuthHandler) GetSession(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": middleware.CurrentSession(c), "user": user})
}

// GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := h.auth.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true})
}

// POST /api/auth/send-verification-email
func (h *AuthHandler) SendVerification(c *gin.Context) {
	if err := h.auth.SendVerification(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true})
}

// POST /api/auth/forget-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true})
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": true})
}

// GET /api/auth/sign-in/google
func (h *AuthHandler) GoogleSignIn(c *gin.Context) {
	url, state, err := h.auth.GoogleAuthURL(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.sessions.SaveOAuthState(c.Writer, c.Request, state); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// GET /api/auth/callback/google
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	if state == "" || state != h.sessions.OAuthState(c.Writer, c.Request) {
		respondError(c, domain.ErrInvalidToken)
		return
	}

	_, session, err := h.auth.GoogleCallback(c.Request.Context(), state, c.Query("code"), sessionMeta(c))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			respondError(c, err)
			return
		}
		log.Printf("google sign-in failed: %v", err)
		c.Redirect(http.StatusFound, h.frontendURL+"/sign-in?error=google")
		return
	}
	if err := h.sessions.Save(c.Writer, c.Request, session.Token); err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/")
}
