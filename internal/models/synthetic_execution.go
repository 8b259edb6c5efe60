package models

import (
	"time"
)

const (
	ExecutionStatusSuccess = "success"
	ExecutionStatusFailure = "failure"
	ExecutionStatusTimeout = "timeout"
	ExecutionStatusError   = "error"
)

// SyntheticExecution is one recorded outcome of running a SyntheticTest.
// Rows are append-only and never mutated after creation.
type SyntheticExecution struct {
	BaseModel

	TestID       uint    `gorm:"not null;index" json:"test_id"`
	Status       string  `gorm:"not null" json:"status"`         // success, failure, timeout, error
	ResponseTime int     `gorm:"not null" json:"response_time"`  // milliseconds, set on every branch
	StatusCode   *int    `json:"status_code"`
	ResponseBody string  `gorm:"type:text" json:"response_body"`
	ErrorMessage *string `json:"error_message"`

	// Fine-grained timings in milliseconds, null when not observed
	DNSTime       *int `json:"dns_time"`
	ConnectTime   *int `json:"connect_time"`
	SSLTime       *int `json:"ssl_time"`
	FirstByteTime *int `json:"first_byte_time"`

	ExecutedAt time.Time `gorm:"not null;index" json:"executed_at"`

	// Relationships
	Test SyntheticTest `gorm:"foreignKey:TestID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
