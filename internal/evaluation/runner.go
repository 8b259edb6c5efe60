package evaluation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/ollama"
	"github.com/evalforge-dev/evalforge/internal/scorer"
	"github.com/evalforge-dev/evalforge/internal/types"
)

// Store is the durable state the runner reads questions from and writes
// results to. Each call is one short-lived transaction.
type Store interface {
	Evaluation(id uint) (*models.Evaluation, error)
	SaveEvaluation(evaluation *models.Evaluation) error
	Model(id uint) (*models.Model, error)
	Questions(evaluationID uint) ([]models.Question, error)
	CreateResult(result *models.Result) error
	Results(evaluationID uint) ([]models.Result, error)
}

// ModelClient issues one generation request against a model endpoint.
type ModelClient interface {
	Generate(ctx context.Context, req ollama.GenerateRequest) (string, error)
}

// Runner drives one evaluation to completion: draft -> running -> completed,
// or failed when the loop-and-aggregate sequence itself breaks. A failed
// evaluation is never resumed; it must be recreated.
type Runner struct {
	store  Store
	client ModelClient
	scorer scorer.Scorer
}

func NewRunner(store Store, client ModelClient, sc scorer.Scorer) *Runner {
	return &Runner{
		store:  store,
		client: client,
		scorer: sc,
	}
}

// Run executes the evaluation's questions in order and aggregates the
// results. A single question's failure is recorded as a result row and never
// aborts the batch; only a failure of the persist-and-aggregate phase flips
// the evaluation to failed and surfaces to the caller.
func (r *Runner) Run(ctx context.Context, evaluationID uint) (*models.Evaluation, error) {
	evaluation, err := r.store.Evaluation(evaluationID)

	if err != nil {
		return nil, err
	}

	model, err := r.store.Model(evaluation.ModelID)

	if err != nil {
		return nil, err
	}

	now := time.Now()
	evaluation.Status = models.EvaluationStatusRunning
	evaluation.StartedAt = &now

	if err := r.store.SaveEvaluation(evaluation); err != nil {
		return nil, err
	}

	questions, err := r.store.Questions(evaluationID)

	if err != nil {
		return nil, r.fail(evaluation, err)
	}

	// Ordered per-item outcomes; the loop itself cannot fail.
	results := make([]models.Result, 0, len(questions))
	for _, question := range questions {
		results = append(results, r.runQuestion(ctx, model, evaluation, question))
	}

	if err := r.finalize(evaluation, results); err != nil {
		return nil, r.fail(evaluation, err)
	}

	return evaluation, nil
}

// runQuestion produces exactly one result value. Any failure of the model
// call is folded into the result as an error response with null metrics.
func (r *Runner) runQuestion(ctx context.Context, model *models.Model, evaluation *models.Evaluation, question models.Question) models.Result {
	start := time.Now()

	genCtx, cancel := context.WithTimeout(ctx, types.GenerateTimeout*time.Second)
	defer cancel()

	response, err := r.client.Generate(genCtx, ollama.GenerateRequest{
		Endpoint:    model.Endpoint,
		Model:       model.ModelName,
		Prompt:      question.Question,
		Temperature: evaluation.Temperature,
		MaxTokens:   evaluation.MaxTokens,
		TopP:        evaluation.TopP,
	})

	elapsed := int(time.Since(start).Milliseconds())

	result := models.Result{
		EvaluationID:   evaluation.ID,
		Question:       question.Question,
		ExpectedAnswer: question.ExpectedAnswer,
		ResponseTime:   elapsed,
	}

	if err != nil {
		log.Printf("Evaluation %d: question %d failed: %v", evaluation.ID, question.ID, err)
		result.ModelResponse = fmt.Sprintf("Error: %v", err)
		result.IsCorrect = false
		return result
	}

	trimmed := strings.TrimSpace(response)
	result.ModelResponse = trimmed
	result.IsCorrect = strings.Contains(strings.ToLower(trimmed), strings.ToLower(question.ExpectedAnswer))

	scores := r.scorer.Score(question.ExpectedAnswer, trimmed)
	result.BleuScore = scores.Bleu
	result.Rouge1Score = scores.Rouge1
	result.Rouge2Score = scores.Rouge2
	result.RougeLScore = scores.RougeL
	result.SemanticSimilarity = scores.SemanticSimilarity

	return result
}

// finalize persists the ordered results and recomputes every aggregate from
// the full stored result set. Any error here is an aggregation failure.
func (r *Runner) finalize(evaluation *models.Evaluation, results []models.Result) error {
	for i := range results {
		if err := r.store.CreateResult(&results[i]); err != nil {
			return fmt.Errorf("persisting result %d: %w", i, err)
		}
	}

	stored, err := r.store.Results(evaluation.ID)

	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}

	aggregate(evaluation, stored)

	now := time.Now()
	evaluation.Status = models.EvaluationStatusCompleted
	evaluation.CompletedAt = &now

	if err := r.store.SaveEvaluation(evaluation); err != nil {
		return fmt.Errorf("saving evaluation: %w", err)
	}

	return nil
}

func (r *Runner) fail(evaluation *models.Evaluation, cause error) error {
	now := time.Now()
	evaluation.Status = models.EvaluationStatusFailed
	evaluation.CompletedAt = &now

	if err := r.store.SaveEvaluation(evaluation); err != nil {
		log.Printf("Evaluation %d: failed to record failure: %v", evaluation.ID, err)
	}

	return fmt.Errorf("evaluation %d failed: %w", evaluation.ID, cause)
}
