package handlers

import (
	"time"

	"github.com/waste3d/courseplatform-api/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Auth    *AuthHandler
	Course  *CourseHandler
	Video   *VideoHandler
	User    *UserHandler
	Payment *PaymentHandler
	Upload  *UploadHandler
	Health  *HealthHandler
}

func NewRouter(h Handlers, auth middleware.Authenticator, sessions *middleware.SessionStore, limiter *middleware.RateLimiter, origins []string) *gin.Engine {
	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = origins
	config.AllowCredentials = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Range"}
	config.AllowMethods = []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	config.ExposeHeaders = []string{"Content-Range", "Content-Length", "Accept-Ranges"}
	r.Use(cors.New(config))

	requireAuth := middleware.AuthMiddleware(auth, sessions)
	optionalAuth := middleware.OptionalAuthMiddleware(auth, sessions)
	adminOnly := middleware.AdminOnly()

	r.GET("/healthz", h.Health.Health)

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/sign-up/email", limiter.Limit("sign_up", 10, time.Hour), h.Auth.SignUp)
		authGroup.POST("/sign-in/email", limiter.Limit("login", 5, time.Minute), h.Auth.SignIn)
		authGroup.POST("/sign-out", h.Auth.SignOut)
		authGroup.GET("/get-session", optionalAuth, h.Auth.GetSession)
		authGroup.GET("/verify-email", h.Auth.VerifyEmail)
		authGroup.POST("/send-verification-email", requireAuth, limiter.Limit("verify_email", 3, 10*time.Minute), h.Auth.SendVerification)
		authGroup.POST("/forget-password", limiter.Limit("forgot_pass", 3, 15*time.Minute), h.Auth.ForgotPassword)
		authGroup.POST("/reset-password", limiter.Limit("reset_pass", 10, 15*time.Minute), h.Auth.ResetPassword)
		authGroup.GET("/sign-in/google", h.Auth.GoogleSignIn)
		authGroup.GET("/callback/google", h.Auth.GoogleCallback)
	}

	courses := r.Group("/courses")
	{
		courses.GET("", optionalAuth, h.Course.List)
		courses.GET("/:id", optionalAuth, h.Course.GetOne)
		courses.POST("", requireAuth, adminOnly, h.Course.Create)
		courses.PUT("/:id", requireAuth, adminOnly, h.Course.Update)
		courses.DELETE("/:id", requireAuth, adminOnly, h.Course.Delete)
		courses.POST("/:id/enroll", requireAuth, h.Course.Enroll)
	}

	videos := r.Group("/videos")
	{
		videos.GET("", optionalAuth, h.Video.List)
		videos.GET("/stream/*key", requireAuth, h.Video.Stream)
		videos.HEAD("/stream/*key", requireAuth, h.Video.Stream)
		videos.POST("/like", requireAuth, h.Video.Like)
		videos.GET("/:id", optionalAuth, h.Video.GetOne)
		videos.POST("", requireAuth, adminOnly, h.Video.Create)
		videos.PUT("/:id", requireAuth, adminOnly, h.Video.Update)
		videos.DELETE("/:id", requireAuth, adminOnly, h.Video.Delete)
		videos.POST("/:id/progress", requireAuth, h.Video.SaveProgress)
		videos.GET("/:id/progress", requireAuth, h.Video.GetProgress)
	}

	users := r.Group("/users/me")
	users.Use(requireAuth)
	{
		users.GET("", h.User.GetProfile)
		users.GET("/progress", h.User.GetProgress)
	}

	payments := r.Group("/payments")
	{
		payments.GET("/plans", h.Payment.Plans)
		payments.POST("/initialize", requireAuth, h.Payment.Initialize)
		payments.GET("/verify/:reference", requireAuth, h.Payment.Verify)
		payments.GET("/history", requireAuth, h.Payment.History)
	}
	r.POST("/webhook/paystack", h.Payment.Webhook)

	r.POST("/upload", requireAuth, adminOnly, h.Upload.Upload)

	return r
}
