package types

import "fmt"

// TestType is the closed set of synthetic test kinds. Dispatch over it is an
// exhaustive switch; anything else fails at parse time.
type TestType string

const (
	TestTypeAPI     TestType = "api"
	TestTypeUptime  TestType = "uptime"
	TestTypeBrowser TestType = "browser"
)

func ParseTestType(s string) (TestType, error) {
	switch TestType(s) {
	case TestTypeAPI, TestTypeUptime, TestTypeBrowser:
		return TestType(s), nil
	}
	return "", fmt.Errorf("unknown test type: %s", s)
}

const (
	AuthTypeNone        = "none"
	AuthTypeAPIKey      = "api_key"
	AuthTypeBearerToken = "bearer_token"
)

// APIKeyCredentials is the payload stored for auth_type "api_key".
type APIKeyCredentials struct {
	Header string `json:"header"`
	Key    string `json:"key"`
}

// BearerCredentials is the payload stored for auth_type "bearer_token".
type BearerCredentials struct {
	Token string `json:"token"`
}

// AlertConfig is the per-test alerting payload.
type AlertConfig struct {
	DiscordWebhook string `json:"discord_webhook,omitempty"`
	SlackWebhook   string `json:"slack_webhook,omitempty"`
}
