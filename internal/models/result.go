package models

type Result struct {
	BaseModel

	EvaluationID   uint   `gorm:"not null;index" json:"evaluation_id"`
	Question       string `gorm:"type:text;not null" json:"question"`
	ExpectedAnswer string `gorm:"type:text;not null" json:"expected_answer"`
	ModelResponse  string `gorm:"type:text" json:"model_response"`
	IsCorrect      bool   `gorm:"not null" json:"is_correct"`
	ResponseTime   int    `gorm:"not null" json:"response_time"` // milliseconds

	// Per-item metric scores, null when the scorer could not produce a value
	BleuScore          *float64 `json:"bleu_score"`
	Rouge1Score        *float64 `json:"rouge_1_score"`
	Rouge2Score        *float64 `json:"rouge_2_score"`
	RougeLScore        *float64 `json:"rouge_l_score"`
	SemanticSimilarity *float64 `json:"semantic_similarity"`

	// Relationships
	Evaluation Evaluation `gorm:"foreignKey:EvaluationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
