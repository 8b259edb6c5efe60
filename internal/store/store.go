package store

import (
	"errors"

	"github.com/evalforge-dev/evalforge/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the durable-state handle the scheduler and evaluation runner are
// constructed with. Every method is a single short-lived statement.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Store) ActiveTests() ([]models.SyntheticTest, error) {
	var tests []models.SyntheticTest
	if err := s.db.Where("is_active = ?", true).Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (s *Store) Test(id uint) (*models.SyntheticTest, error) {
	var test models.SyntheticTest
	if err := s.db.First(&test, id).Error; err != nil {
		return nil, translate(err)
	}
	return &test, nil
}

func (s *Store) CreateExecution(execution *models.SyntheticExecution) error {
	return s.db.Create(execution).Error
}

func (s *Store) RecentExecutions(testID uint, limit int) ([]models.SyntheticExecution, error) {
	var executions []models.SyntheticExecution
	err := s.db.Where("test_id = ?", testID).
		Order("executed_at DESC").
		Limit(limit).
		Find(&executions).Error
	if err != nil {
		return nil, err
	}
	return executions, nil
}

func (s *Store) Model(id uint) (*models.Model, error) {
	var model models.Model
	if err := s.db.First(&model, id).Error; err != nil {
		return nil, translate(err)
	}
	return &model, nil
}

func (s *Store) SaveModel(model *models.Model) error {
	return s.db.Save(model).Error
}

func (s *Store) Evaluation(id uint) (*models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := s.db.First(&evaluation, id).Error; err != nil {
		return nil, translate(err)
	}
	return &evaluation, nil
}

func (s *Store) SaveEvaluation(evaluation *models.Evaluation) error {
	return s.db.Save(evaluation).Error
}

// Questions returns the evaluation's questions in creation order.
func (s *Store) Questions(evaluationID uint) ([]models.Question, error) {
	var questions []models.Question
	err := s.db.Where("evaluation_id = ?", evaluationID).
		Order("id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (s *Store) CreateResult(result *models.Result) error {
	return s.db.Create(result).Error
}

// Results returns the full result set for an evaluation in creation order.
// Aggregates are always recomputed from this set, never incrementally mutated.
func (s *Store) Results(evaluationID uint) ([]models.Result, error) {
	var results []models.Result
	err := s.db.Where("evaluation_id = ?", evaluationID).
		Order("id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
