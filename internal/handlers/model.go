package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/evalforge-dev/evalforge/db"
	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateModelRequest struct {
	Name      string `json:"name" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Endpoint  string `json:"endpoint" binding:"required"`
	ModelName string `json:"model_name" binding:"required"`
}

func (h *Handler) ListModels(ctx *gin.Context) {
	var list []models.Model

	if err := db.DB.Find(&list).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve models"})
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (h *Handler) CreateModel(ctx *gin.Context) {
	var req CreateModelRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := models.Model{
		Name:      req.Name,
		Type:      req.Type,
		Endpoint:  req.Endpoint,
		ModelName: req.ModelName,
		Status:    "unknown",
	}

	if err := db.DB.Create(&model).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create model"})
		return
	}

	ctx.JSON(http.StatusCreated, model)
}

func (h *Handler) DeleteModel(ctx *gin.Context) {
	modelID, err := utils.IDParam(ctx, "model_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var model models.Model

	if err := db.DB.First(&model, modelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve model"})
		}
		return
	}

	if err := db.DB.Delete(&model).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete model"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// TestModelConnection probes the model endpoint's tag list and records
// whether the configured model is being served.
func (h *Handler) TestModelConnection(ctx *gin.Context) {
	modelID, err := utils.IDParam(ctx, "model_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var model models.Model

	if err := db.DB.First(&model, modelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve model"})
		}
		return
	}

	model.Status = "testing"

	if err := db.DB.Save(&model).Error; err != nil {
		log.Printf("Failed to record testing status for model %d: %v", model.ID, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	status := "error"

	if model.Type == "ollama" {
		if found, err := h.ollama.CheckModel(probeCtx, model.Endpoint, model.ModelName); err == nil && found {
			status = "connected"
		}
	}

	model.Status = status

	if err := db.DB.Save(&model).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update model"})
		return
	}

	ctx.JSON(http.StatusOK, model)
}
