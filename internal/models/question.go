package models

type Question struct {
	BaseModel

	EvaluationID   uint   `gorm:"not null;index" json:"evaluation_id"`
	Question       string `gorm:"type:text;not null" json:"question"`
	ExpectedAnswer string `gorm:"type:text;not null" json:"expected_answer"`

	// Relationships
	Evaluation Evaluation `gorm:"foreignKey:EvaluationID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
