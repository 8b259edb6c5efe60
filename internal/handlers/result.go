package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/evalforge-dev/evalforge/db"
	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ResultsListEntry struct {
	ID             uint       `json:"id"`
	EvaluationID   uint       `json:"evaluation_id"`
	EvaluationName string     `json:"evaluation_name"`
	ModelName      string     `json:"model_name"`
	CompletedAt    *time.Time `json:"completed_at"`
	Accuracy       *float64   `json:"accuracy"`
	TotalQuestions int        `json:"total_questions"`
}

func (h *Handler) ListResults(ctx *gin.Context) {
	var evaluations []models.Evaluation

	err := db.DB.Preload("Model").
		Where("status = ?", models.EvaluationStatusCompleted).
		Find(&evaluations).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve results"})
		return
	}

	entries := make([]ResultsListEntry, 0, len(evaluations))
	for _, evaluation := range evaluations {
		entries = append(entries, ResultsListEntry{
			ID:             evaluation.ID,
			EvaluationID:   evaluation.ID,
			EvaluationName: evaluation.Name,
			ModelName:      evaluation.Model.Name,
			CompletedAt:    evaluation.CompletedAt,
			Accuracy:       evaluation.Accuracy,
			TotalQuestions: evaluation.TotalQuestions,
		})
	}

	ctx.JSON(http.StatusOK, entries)
}

func (h *Handler) GetEvaluationResults(ctx *gin.Context) {
	evaluationID, err := utils.IDParam(ctx, "evaluation_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var evaluation models.Evaluation

	if err := db.DB.Preload("Model").First(&evaluation, evaluationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve evaluation"})
		}
		return
	}

	results, err := h.store.Results(evaluationID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve results"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"evaluation_name":   evaluation.Name,
		"model_name":        evaluation.Model.Name,
		"status":            evaluation.Status,
		"accuracy":          evaluation.Accuracy,
		"correct_answers":   evaluation.CorrectAnswers,
		"incorrect_answers": evaluation.IncorrectAnswers,
		"total_questions":   evaluation.TotalQuestions,
		"questions":         results,
	})
}

func (h *Handler) DeleteEvaluationResults(ctx *gin.Context) {
	evaluationID, err := utils.IDParam(ctx, "evaluation_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var evaluation models.Evaluation

	if err := db.DB.First(&evaluation, evaluationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve evaluation"})
		}
		return
	}

	if err := db.DB.Where("evaluation_id = ?", evaluationID).Delete(&models.Result{}).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete results"})
		return
	}

	if err := db.DB.Where("evaluation_id = ?", evaluationID).Delete(&models.Question{}).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete questions"})
		return
	}

	if err := db.DB.Delete(&evaluation).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete evaluation"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Evaluation and results deleted"})
}
