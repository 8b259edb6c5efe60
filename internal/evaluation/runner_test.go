package evaluation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/ollama"
	"github.com/evalforge-dev/evalforge/internal/scorer"
	"github.com/evalforge-dev/evalforge/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvalStore struct {
	evaluations map[uint]*models.Evaluation
	evalModels  map[uint]*models.Model
	questions   map[uint][]models.Question
	results     map[uint][]models.Result

	createResultErr error
	resultsErr      error
}

func newFakeEvalStore() *fakeEvalStore {
	return &fakeEvalStore{
		evaluations: make(map[uint]*models.Evaluation),
		evalModels:  make(map[uint]*models.Model),
		questions:   make(map[uint][]models.Question),
		results:     make(map[uint][]models.Result),
	}
}

func (s *fakeEvalStore) Evaluation(id uint) (*models.Evaluation, error) {
	evaluation, ok := s.evaluations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return evaluation, nil
}

func (s *fakeEvalStore) SaveEvaluation(evaluation *models.Evaluation) error {
	s.evaluations[evaluation.ID] = evaluation
	return nil
}

func (s *fakeEvalStore) Model(id uint) (*models.Model, error) {
	model, ok := s.evalModels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return model, nil
}

func (s *fakeEvalStore) Questions(evaluationID uint) ([]models.Question, error) {
	return s.questions[evaluationID], nil
}

func (s *fakeEvalStore) CreateResult(result *models.Result) error {
	if s.createResultErr != nil {
		return s.createResultErr
	}
	s.results[result.EvaluationID] = append(s.results[result.EvaluationID], *result)
	return nil
}

func (s *fakeEvalStore) Results(evaluationID uint) ([]models.Result, error) {
	if s.resultsErr != nil {
		return nil, s.resultsErr
	}
	return s.results[evaluationID], nil
}

type fakeModelClient struct {
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func (c *fakeModelClient) Generate(ctx context.Context, req ollama.GenerateRequest) (string, error) {
	c.calls = append(c.calls, req.Prompt)

	if err, ok := c.errors[req.Prompt]; ok {
		return "", err
	}
	return c.responses[req.Prompt], nil
}

func seedEvaluation(st *fakeEvalStore, questions ...models.Question) *models.Evaluation {
	model := &models.Model{Name: "local llama", Type: "ollama", Endpoint: "http://localhost:11434", ModelName: "llama3"}
	model.ID = 1
	st.evalModels[1] = model

	evaluation := &models.Evaluation{
		Name:        "smoke",
		ModelID:     1,
		Status:      models.EvaluationStatusDraft,
		Temperature: 0.7,
		MaxTokens:   512,
		TopP:        0.9,
	}
	evaluation.ID = 10
	st.evaluations[10] = evaluation

	for i := range questions {
		questions[i].EvaluationID = 10
	}
	st.questions[10] = questions

	return evaluation
}

func question(id uint, q, a string) models.Question {
	question := models.Question{Question: q, ExpectedAnswer: a}
	question.ID = id
	return question
}

func TestRunCompletesAndAggregates(t *testing.T) {
	st := newFakeEvalStore()
	seedEvaluation(st,
		question(1, "What is the capital of France?", "Paris"),
		question(2, "What is 2+2?", "4"),
	)

	client := &fakeModelClient{responses: map[string]string{
		"What is the capital of France?": "  The capital of France is Paris. ",
		"What is 2+2?":                   "I believe it is five.",
	}}

	runner := NewRunner(st, client, scorer.Noop{})

	evaluation, err := runner.Run(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, models.EvaluationStatusCompleted, evaluation.Status)
	assert.NotNil(t, evaluation.StartedAt)
	assert.NotNil(t, evaluation.CompletedAt)

	assert.Equal(t, 2, evaluation.TotalQuestions)
	assert.Equal(t, 1, evaluation.CorrectAnswers)
	assert.Equal(t, 1, evaluation.IncorrectAnswers)
	require.NotNil(t, evaluation.Accuracy)
	assert.Equal(t, 0.5, *evaluation.Accuracy)

	results := st.results[10]
	require.Len(t, results, 2)
	assert.Equal(t, "The capital of France is Paris.", results[0].ModelResponse)
	assert.True(t, results[0].IsCorrect)
	assert.False(t, results[1].IsCorrect)
}

func TestRunQuestionOrderPreserved(t *testing.T) {
	st := newFakeEvalStore()
	seedEvaluation(st,
		question(1, "first", "a"),
		question(2, "second", "b"),
		question(3, "third", "c"),
	)

	client := &fakeModelClient{responses: map[string]string{}}
	runner := NewRunner(st, client, scorer.Noop{})

	_, err := runner.Run(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, client.calls)

	results := st.results[10]
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Question)
	assert.Equal(t, "third", results[2].Question)
}

func TestRunSingleQuestionFailureDoesNotAbort(t *testing.T) {
	st := newFakeEvalStore()
	seedEvaluation(st,
		question(1, "good", "yes"),
		question(2, "bad", "yes"),
	)

	client := &fakeModelClient{
		responses: map[string]string{"good": "yes"},
		errors:    map[string]error{"bad": errors.New("connection refused")},
	}

	runner := NewRunner(st, client, scorer.Noop{})

	evaluation, err := runner.Run(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, models.EvaluationStatusCompleted, evaluation.Status)

	results := st.results[10]
	require.Len(t, results, 2)
	assert.True(t, results[0].IsCorrect)
	assert.False(t, results[1].IsCorrect)
	assert.Equal(t, "Error: connection refused", results[1].ModelResponse)
	assert.Nil(t, results[1].BleuScore)
}

func TestRunZeroQuestions(t *testing.T) {
	st := newFakeEvalStore()
	seedEvaluation(st)

	runner := NewRunner(st, &fakeModelClient{}, scorer.Noop{})

	evaluation, err := runner.Run(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, models.EvaluationStatusCompleted, evaluation.Status)
	assert.Equal(t, 0, evaluation.TotalQuestions)
	require.NotNil(t, evaluation.Accuracy)
	assert.Equal(t, 0.0, *evaluation.Accuracy)
	assert.Nil(t, evaluation.AvgBleuScore)
	assert.Nil(t, evaluation.AvgResponseTime)
}

func TestRunUnknownEvaluation(t *testing.T) {
	runner := NewRunner(newFakeEvalStore(), &fakeModelClient{}, scorer.Noop{})

	_, err := runner.Run(context.Background(), 99)

	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunPersistFailureMarksEvaluationFailed(t *testing.T) {
	st := newFakeEvalStore()
	seedEvaluation(st, question(1, "q", "a"))
	st.createResultErr = errors.New("disk full")

	runner := NewRunner(st, &fakeModelClient{responses: map[string]string{"q": "a"}}, scorer.Noop{})

	_, err := runner.Run(context.Background(), 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluation 10 failed")
	assert.Equal(t, models.EvaluationStatusFailed, st.evaluations[10].Status)
	assert.NotNil(t, st.evaluations[10].CompletedAt)
}

func TestRunCaseInsensitiveMatching(t *testing.T) {
	st := newFakeEvalStore()
	seedEvaluation(st, question(1, "capital?", "Paris"))

	client := &fakeModelClient{responses: map[string]string{"capital?": "it must be PARIS"}}
	runner := NewRunner(st, client, scorer.Noop{})

	_, err := runner.Run(context.Background(), 10)

	require.NoError(t, err)
	assert.True(t, st.results[10][0].IsCorrect)
}

type stubScorer struct {
	scores map[string]scorer.Scores
}

func (s stubScorer) Score(reference, candidate string) scorer.Scores {
	return s.scores[candidate]
}

func floatPtr(v float64) *float64 { return &v }

func TestRunAggregatesScorerMetrics(t *testing.T) {
	st := newFakeEvalStore()
	seedEvaluation(st,
		question(1, "q1", "a"),
		question(2, "q2", "a"),
		question(3, "q3", "a"),
	)

	client := &fakeModelClient{responses: map[string]string{
		"q1": "r1", "q2": "r2", "q3": "r3",
	}}

	sc := stubScorer{scores: map[string]scorer.Scores{
		"r1": {Bleu: floatPtr(0.10)},
		"r2": {Bleu: floatPtr(0.30)},
		"r3": {}, // scorer produced nothing for this item
	}}

	runner := NewRunner(st, client, sc)

	evaluation, err := runner.Run(context.Background(), 10)

	require.NoError(t, err)
	require.NotNil(t, evaluation.AvgBleuScore)
	assert.InDelta(t, 0.20, *evaluation.AvgBleuScore, 1e-9)
	assert.Nil(t, evaluation.AvgRouge1Score)
}

func TestAggregateAllNullMetric(t *testing.T) {
	evaluation := &models.Evaluation{}

	aggregate(evaluation, []models.Result{
		{IsCorrect: true, ResponseTime: 100},
		{IsCorrect: false, ResponseTime: 300},
	})

	assert.Equal(t, 2, evaluation.TotalQuestions)
	assert.Equal(t, 1, evaluation.CorrectAnswers)
	require.NotNil(t, evaluation.Accuracy)
	assert.Equal(t, 0.5, *evaluation.Accuracy)
	assert.Nil(t, evaluation.AvgBleuScore)
	require.NotNil(t, evaluation.AvgResponseTime)
	assert.Equal(t, 200.0, *evaluation.AvgResponseTime)
}

func TestMeanOfEmpty(t *testing.T) {
	mean := meanOf(nil, func(r models.Result) *float64 { return r.BleuScore })
	assert.Nil(t, mean)
}

func TestFailWrapsCause(t *testing.T) {
	st := newFakeEvalStore()
	evaluation := seedEvaluation(st)

	runner := NewRunner(st, &fakeModelClient{}, scorer.Noop{})

	err := runner.fail(evaluation, fmt.Errorf("boom"))

	assert.EqualError(t, err, "evaluation 10 failed: boom")
	assert.Equal(t, models.EvaluationStatusFailed, evaluation.Status)
}
