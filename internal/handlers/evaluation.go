package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/evalforge-dev/evalforge/db"
	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/questionbank"
	"github.com/evalforge-dev/evalforge/internal/store"
	"github.com/evalforge-dev/evalforge/internal/utils"
	"github.com/gin-gonic/gin"
)

type EvaluationSummary struct {
	models.Evaluation
	ModelName string `json:"model_name"`
}

func (h *Handler) ListEvaluations(ctx *gin.Context) {
	var evaluations []models.Evaluation

	if err := db.DB.Preload("Model").Find(&evaluations).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve evaluations"})
		return
	}

	summaries := make([]EvaluationSummary, 0, len(evaluations))
	for _, evaluation := range evaluations {
		summaries = append(summaries, EvaluationSummary{
			Evaluation: evaluation,
			ModelName:  evaluation.Model.Name,
		})
	}

	ctx.JSON(http.StatusOK, summaries)
}

// CreateEvaluation accepts a multipart form: name, model_id, sampling
// parameters, and either use_sample=true or an uploaded CSV dataset with
// question/answer columns. Questions are created with the evaluation and are
// immutable afterwards.
func (h *Handler) CreateEvaluation(ctx *gin.Context) {
	name := ctx.PostForm("name")

	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	modelID, err := strconv.ParseUint(ctx.PostForm("model_id"), 10, 32)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid model_id"})
		return
	}

	model, err := h.store.Model(uint(modelID))

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve model"})
		}
		return
	}

	evaluation := models.Evaluation{
		Name:        name,
		ModelID:     model.ID,
		Status:      models.EvaluationStatusDraft,
		Temperature: formFloat(ctx, "temperature", 0.7),
		MaxTokens:   formInt(ctx, "max_tokens", 512),
		TopP:        formFloat(ctx, "top_p", 0.9),
	}

	var questions []questionbank.QA

	if ctx.PostForm("use_sample") == "true" {
		questions = sampleQuestions()
	} else if file, err := ctx.FormFile("dataset_file"); err == nil {
		opened, err := file.Open()

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read dataset file"})
			return
		}

		defer opened.Close()

		questions, err = questionbank.ParseCSV(opened)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	evaluation.TotalQuestions = len(questions)

	if err := db.DB.Create(&evaluation).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create evaluation"})
		return
	}

	for _, qa := range questions {
		question := models.Question{
			EvaluationID:   evaluation.ID,
			Question:       qa.Question,
			ExpectedAnswer: qa.Answer,
		}

		if err := db.DB.Create(&question).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store questions"})
			return
		}
	}

	ctx.JSON(http.StatusCreated, EvaluationSummary{Evaluation: evaluation, ModelName: model.Name})
}

// RunEvaluation drives one evaluation to completion. Per-question failures
// are folded into results; only an aggregation failure surfaces here.
func (h *Handler) RunEvaluation(ctx *gin.Context) {
	evaluationID, err := utils.IDParam(ctx, "evaluation_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evaluation, err := h.runner.Run(ctx.Request.Context(), evaluationID)

	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Evaluation not found"})
			return
		}
		log.Printf("Evaluation %d run failed: %v", evaluationID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	BroadcastRefresh()

	ctx.JSON(http.StatusOK, evaluation)
}

// sampleQuestions draws a random subset from the configured question bank
// directory when it holds any questions, falling back to the built-in
// sample set.
func sampleQuestions() []questionbank.QA {
	if bank := questionbank.LoadDir(questionBankDir()); len(bank) > 0 {
		return questionbank.RandomSample(bank, len(questionbank.Sample))
	}
	return questionbank.Sample
}

func questionBankDir() string {
	if dir := os.Getenv("QUESTION_BANK_DIR"); dir != "" {
		return dir
	}
	return "question_bank"
}

func formFloat(ctx *gin.Context, key string, fallback float64) float64 {
	if raw := ctx.PostForm(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

func formInt(ctx *gin.Context, key string, fallback int) int {
	if raw := ctx.PostForm(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
