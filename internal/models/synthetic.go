package models

import (
	"gorm.io/datatypes"
)

type SyntheticTest struct {
	BaseModel

	Name        string `gorm:"not null;index" json:"name"`
	ServiceName string `gorm:"index" json:"service_name"`
	TestType    string `gorm:"not null" json:"test_type"` // "api", "uptime", "browser"
	URL         string `gorm:"not null" json:"url"`
	Method      string `gorm:"not null;default:GET" json:"method"`

	Headers datatypes.JSON `gorm:"type:jsonb" json:"headers"`
	Body    datatypes.JSON `gorm:"type:jsonb" json:"body"`

	ExpectedStatus           int    `gorm:"not null;default:200" json:"expected_status"`
	ExpectedResponseContains string `json:"expected_response_contains"`

	Timeout  int  `gorm:"not null;default:30" json:"timeout"`   // seconds
	Interval int  `gorm:"not null;default:300" json:"interval"` // seconds
	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	// Authentication
	AuthType        string         `gorm:"not null;default:none" json:"auth_type"` // "none", "api_key", "bearer_token"
	AuthCredentials datatypes.JSON `gorm:"type:jsonb" json:"-"`

	// SSL and alerting
	SSLCheckEnabled bool           `gorm:"not null;default:false" json:"ssl_check_enabled"`
	AlertConfig     datatypes.JSON `gorm:"type:jsonb" json:"alert_config"`

	// Relationships
	Executions []SyntheticExecution `gorm:"foreignKey:TestID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
