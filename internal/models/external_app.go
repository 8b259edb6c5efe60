package models

import (
	"gorm.io/datatypes"
)

type ExternalApp struct {
	BaseModel

	Name        string `gorm:"not null;index" json:"name"`
	ServiceName string `json:"service_name"`
	BaseURL     string `gorm:"not null" json:"base_url"`
	Description string `gorm:"type:text" json:"description"`

	AuthType        string         `gorm:"not null;default:none" json:"auth_type"`
	AuthCredentials datatypes.JSON `gorm:"type:jsonb" json:"-"`

	HealthEndpoint  string `gorm:"not null;default:/health" json:"health_endpoint"`
	Timeout         int    `gorm:"not null;default:30" json:"timeout"`
	SSLCheckEnabled bool   `gorm:"not null;default:false" json:"ssl_check_enabled"`
	IsActive        bool   `gorm:"not null;default:true" json:"is_active"`
}
