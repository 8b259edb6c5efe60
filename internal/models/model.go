package models

type Model struct {
	BaseModel

	Name      string `gorm:"not null;index" json:"name"`
	Type      string `gorm:"not null" json:"type"` // "ollama" for now
	Endpoint  string `gorm:"not null" json:"endpoint"`
	ModelName string `gorm:"not null" json:"model_name"`
	Status    string `gorm:"not null;default:unknown" json:"status"` // "unknown", "connected", "error", "testing"

	// Relationships
	Evaluations []Evaluation `gorm:"foreignKey:ModelID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
