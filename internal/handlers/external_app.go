package handlers

import (
	"errors"
	"net/http"

	"github.com/evalforge-dev/evalforge/db"
	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/types"
	"github.com/evalforge-dev/evalforge/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateAppRequest struct {
	Name            string `json:"name" binding:"required"`
	ServiceName     string `json:"service_name"`
	BaseURL         string `json:"base_url" binding:"required"`
	Description     string `json:"description"`
	HealthEndpoint  string `json:"health_endpoint"`
	Timeout         int    `json:"timeout"`
	SSLCheckEnabled bool   `json:"ssl_check_enabled"`
}

func (h *Handler) ListApps(ctx *gin.Context) {
	var apps []models.ExternalApp

	if err := db.DB.Find(&apps).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve apps"})
		return
	}

	ctx.JSON(http.StatusOK, apps)
}

func (h *Handler) CreateApp(ctx *gin.Context) {
	var req CreateAppRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	app := models.ExternalApp{
		Name:            req.Name,
		ServiceName:     req.ServiceName,
		BaseURL:         req.BaseURL,
		Description:     req.Description,
		AuthType:        types.AuthTypeNone,
		HealthEndpoint:  req.HealthEndpoint,
		Timeout:         req.Timeout,
		SSLCheckEnabled: req.SSLCheckEnabled,
		IsActive:        true,
	}

	if app.HealthEndpoint == "" {
		app.HealthEndpoint = "/health"
	}

	if app.Timeout == 0 {
		app.Timeout = 30
	}

	if err := db.DB.Create(&app).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create app"})
		return
	}

	ctx.JSON(http.StatusCreated, app)
}

func (h *Handler) DeleteApp(ctx *gin.Context) {
	appID, err := utils.IDParam(ctx, "app_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var app models.ExternalApp

	if err := db.DB.First(&app, appID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve app"})
		}
		return
	}

	if err := db.DB.Delete(&app).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete app"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// AppHealth probes the app's health endpoint as a one-off uptime check
// without persisting anything.
func (h *Handler) AppHealth(ctx *gin.Context) {
	appID, err := utils.IDParam(ctx, "app_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var app models.ExternalApp

	if err := db.DB.First(&app, appID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "App not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve app"})
		}
		return
	}

	probe := models.SyntheticTest{
		Name:            app.Name,
		TestType:        string(types.TestTypeUptime),
		URL:             app.BaseURL + app.HealthEndpoint,
		Timeout:         app.Timeout,
		SSLCheckEnabled: app.SSLCheckEnabled,
	}

	outcome := h.executor.Execute(ctx.Request.Context(), probe)

	ctx.JSON(http.StatusOK, gin.H{
		"app_id":        app.ID,
		"status":        outcome.Status,
		"response_time": outcome.ResponseTime,
		"status_code":   outcome.StatusCode,
		"error_message": outcome.ErrorMessage,
	})
}
