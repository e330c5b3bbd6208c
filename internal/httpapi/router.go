package httpapi

import (
	"net/http"

	"github.com/docbridge/docbridge/internal/events"
	"github.com/docbridge/docbridge/internal/identity"
	"github.com/docbridge/docbridge/internal/predictor"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// API bundles the dependencies the handlers need.
type API struct {
	DB        *gorm.DB
	Bus       *events.Bus
	Directory identity.Directory
	Predictor *predictor.Client
	Secret    string
	Logger    *zap.Logger
}

// NewRouter builds the Gin router with all routes registered.
func NewRouter(api *API) *gin.Engine {
	if api.Logger == nil {
		api.Logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(api.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1", RequireAuth(api.Secret))

	v1.GET("/doctors", api.handleListDoctors)
	v1.GET("/doctors/:id/ratings", api.handleListDoctorRatings)

	profile := v1.Group("/profile", RequireRole(identity.RoleDoctor))
	profile.GET("/doctor", api.handleGetProfile)
	profile.PUT("/doctor", api.handleUpsertProfile)

	v1.POST("/predict", RequireRole(identity.RolePatient), api.handlePredict)
	v1.GET("/artifacts", RequireRole(identity.RolePatient), api.handleListArtifacts)
	v1.GET("/artifacts/:id", api.handleGetArtifact)
	v1.GET("/artifacts/:id/pdf", api.handleArtifactPDF)

	v1.POST("/consultations", RequireRole(identity.RolePatient), api.handleCreateConsultation)
	v1.GET("/consultations", api.handleListConsultations)
	v1.GET("/consultations/:id", api.handleGetConsultation)
	v1.PATCH("/consultations/:id/status", RequireRole(identity.RoleDoctor), api.handleTransition)

	v1.GET("/consultations/:id/messages", api.handleListMessages)
	v1.POST("/consultations/:id/messages", api.handleSendMessage)

	v1.POST("/consultations/:id/rating", RequireRole(identity.RolePatient), api.handleSubmitRating)

	return router
}
