package httpapi

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/solward/accountd/internal/logging"
)

// NewRouter assembles the gin engine with the lifecycle routes.
func NewRouter(h *Handler, log logging.Logger) *gin.Engine {
	if os.Getenv("APP_ENV") != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(log))

	r.GET("/", h.Health)

	auth := r.Group("/auth")
	{
		auth.POST("/signUp", h.SignUp)
		auth.GET("/verifyEmail", h.VerifyEmail)
		auth.POST("/signIn", h.SignIn)
		auth.POST("/forgotPassword", h.ForgotPassword)
		auth.POST("/resetPassword", h.ResetPassword)
	}

	return r
}
