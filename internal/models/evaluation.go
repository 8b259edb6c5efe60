package models

import (
	"time"
)

const (
	EvaluationStatusDraft     = "draft"
	EvaluationStatusRunning   = "running"
	EvaluationStatusCompleted = "completed"
	EvaluationStatusFailed    = "failed"
)

type Evaluation struct {
	BaseModel

	Name        string  `gorm:"not null;index" json:"name"`
	ModelID     uint    `gorm:"not null;index" json:"model_id"`
	Status      string  `gorm:"not null;default:draft" json:"status"` // draft, running, completed, failed
	Temperature float64 `gorm:"not null;default:0.7" json:"temperature"`
	MaxTokens   int     `gorm:"not null;default:512" json:"max_tokens"`
	TopP        float64 `gorm:"not null;default:0.9" json:"top_p"`

	TotalQuestions   int      `gorm:"not null;default:0" json:"total_questions"`
	CorrectAnswers   int      `gorm:"not null;default:0" json:"correct_answers"`
	IncorrectAnswers int      `gorm:"not null;default:0" json:"incorrect_answers"`
	Accuracy         *float64 `json:"accuracy"`

	// Aggregate metrics, null until computed and null when no item produced a value
	AvgBleuScore          *float64 `json:"avg_bleu_score"`
	AvgRouge1Score        *float64 `json:"avg_rouge_1_score"`
	AvgRouge2Score        *float64 `json:"avg_rouge_2_score"`
	AvgRougeLScore        *float64 `json:"avg_rouge_l_score"`
	AvgSemanticSimilarity *float64 `json:"avg_semantic_similarity"`
	AvgResponseTime       *float64 `json:"avg_response_time"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Relationships
	Model     Model      `gorm:"foreignKey:ModelID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Questions []Question `gorm:"foreignKey:EvaluationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
	Results   []Result   `gorm:"foreignKey:EvaluationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
