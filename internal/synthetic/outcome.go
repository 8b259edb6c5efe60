package synthetic

import (
	"github.com/evalforge-dev/evalforge/internal/models"
)

// Outcome is the normalized result of running one synthetic test, regardless
// of test type or failure mode. ResponseTime is populated on every branch.
type Outcome struct {
	Status       string
	ResponseTime int // milliseconds
	StatusCode   *int
	ResponseBody string
	ErrorMessage *string

	// Fine-grained timings in milliseconds, nil when not observed
	DNSTime       *int
	ConnectTime   *int
	SSLTime       *int
	FirstByteTime *int
}

func errorOutcome(responseTime int, message string) Outcome {
	return Outcome{
		Status:       models.ExecutionStatusError,
		ResponseTime: responseTime,
		ErrorMessage: &message,
	}
}

func intPtr(v int) *int {
	return &v
}
