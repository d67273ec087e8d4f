package api

import (
	"net/http"

	"practice-journal-api/internal/billing"
	"practice-journal-api/internal/config"
	"practice-journal-api/internal/database"
	"practice-journal-api/internal/middleware"
	"practice-journal-api/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Config       *config.Config
	Users        *database.UserStore
	Practice     *database.PracticeStore
	Goals        *database.GoalStore
	Diary        *database.DiaryStore
	Recordings   *database.RecordingStore
	Tokens       *services.TokenService
	Passwords    *services.PasswordService
	EmailTokens  *services.TokenStore
	Email        *services.EmailService
	Storage      services.ObjectStore
	Achievements *services.AchievementService
	Verifier     *billing.Verifier
	Reconciler   *billing.Reconciler
	Processor    billing.Processor
}

// Handler serves the HTTP API.
type Handler struct {
	Deps
}

func NewHandler(deps Deps) *Handler {
	return &Handler{Deps: deps}
}

// SetupRoutes sets up all routes
func (h *Handler) SetupRoutes(r *gin.Engine) {
	auth := middleware.JWTAuth(h.Tokens)

	api := r.Group("/api")
	{
		// Account routes (no authentication)
		api.POST("/register/", h.Register)
		api.POST("/token/", h.ObtainToken)
		api.POST("/token/refresh/", h.RefreshToken)
		api.GET("/check-username/", h.CheckUsername)
		api.POST("/confirm-email/", h.ConfirmEmail)
		api.POST("/password-reset/", h.RequestPasswordReset)
		api.POST("/password-reset/confirm/", h.ConfirmPasswordReset)

		authed := api.Group("")
		authed.Use(auth)
		{
			authed.GET("/protected/", h.Protected)
			authed.POST("/resend-confirmation/", h.ResendConfirmation)
			authed.GET("/user/me/", h.CurrentUser)
			authed.DELETE("/user/delete-account/", h.DeleteAccount)

			authed.GET("/users/", h.ListUsers)
			authed.GET("/users/:id/", h.GetUser)
			authed.PUT("/users/:id/", h.UpdateUser)
			authed.PATCH("/users/:id/", h.UpdateUser)

			practice := authed.Group("/practice-items")
			{
				practice.GET("/", h.ListPracticeItems)
				practice.POST("/", h.CreatePracticeItem)
				practice.GET("/:id/", h.GetPracticeItem)
				practice.PUT("/:id/", h.UpdatePracticeItem)
				practice.PATCH("/:id/", h.UpdatePracticeItem)
				practice.DELETE("/:id/", h.DeletePracticeItem)
			}

			goals := authed.Group("/goals")
			{
				goals.GET("/", h.ListGoals)
				goals.POST("/", h.CreateGoal)
				goals.GET("/assigned/", h.ListAssignedGoals)
				goals.GET("/:id/", h.GetGoal)
				goals.PUT("/:id/", h.UpdateGoal)
				goals.PATCH("/:id/", h.UpdateGoal)
				goals.DELETE("/:id/", h.DeleteGoal)
			}

			diary := authed.Group("/diary-entries")
			{
				diary.GET("/", h.ListDiaryEntries)
				diary.POST("/", h.CreateDiaryEntry)
				diary.GET("/:id/", h.GetDiaryEntry)
				diary.PUT("/:id/", h.UpdateDiaryEntry)
				diary.PATCH("/:id/", h.UpdateDiaryEntry)
				diary.DELETE("/:id/", h.DeleteDiaryEntry)
			}

			recordings := authed.Group("/recordings")
			{
				recordings.GET("/", h.ListRecordings)
				recordings.POST("/upload-url/", h.CreateUploadURL)
				recordings.POST("/save-recording/", h.SaveRecording)
				recordings.DELETE("/:id/", h.DeleteRecording)
			}
		}
	}

	payments := r.Group("/payments")
	{
		// Stripe calls this; the signature is the authentication
		payments.POST("/stripe/webhook/", h.StripeWebhook)

		payments.POST("/create-checkout-session/", auth, h.CreateCheckoutSession)
		payments.POST("/confirm-subscription/", auth, h.ConfirmSubscription)
		payments.POST("/create-portal-session/", auth, h.CreatePortalSession)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "practice-journal-api",
		})
	})
}
