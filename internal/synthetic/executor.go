package synthetic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/evalforge-dev/evalforge/internal/models"
	"github.com/evalforge-dev/evalforge/internal/types"
)

const responseBodyLimit = 1000

// Executor runs one synthetic test and returns a normalized outcome,
// polymorphic over the test type.
type Executor struct {
	certProber CertProber
	transport  http.RoundTripper // nil means http.DefaultTransport
}

func (e *Executor) httpClient(test models.SyntheticTest) *http.Client {
	return &http.Client{
		Timeout:   testTimeout(test),
		Transport: e.transport,
	}
}

func NewExecutor() *Executor {
	return &Executor{certProber: probeCertificate}
}

// NewExecutorWithProber builds an executor with a custom certificate prober.
func NewExecutorWithProber(prober CertProber) *Executor {
	return &Executor{certProber: prober}
}

// Execute dispatches on the test's type. Every branch measures wall-clock
// time and records it even on failure, timeout, and error paths.
func (e *Executor) Execute(ctx context.Context, test models.SyntheticTest) Outcome {
	testType, err := types.ParseTestType(test.TestType)

	if err != nil {
		return errorOutcome(0, err.Error())
	}

	switch testType {
	case types.TestTypeAPI:
		return e.executeAPI(ctx, test)
	case types.TestTypeUptime:
		return e.executeUptime(ctx, test)
	case types.TestTypeBrowser:
		return e.executeBrowser(ctx, test)
	}

	// Unreachable: ParseTestType rejects everything outside the enum.
	return errorOutcome(0, fmt.Sprintf("unknown test type: %s", test.TestType))
}

func testTimeout(test models.SyntheticTest) time.Duration {
	timeout := test.Timeout

	if timeout <= 0 {
		timeout = 30
	}

	return time.Duration(timeout) * time.Second
}

func timeoutOutcome(test models.SyntheticTest) Outcome {
	seconds := int(testTimeout(test).Seconds())
	message := fmt.Sprintf("Request timeout after %d seconds", seconds)

	return Outcome{
		Status:       models.ExecutionStatusTimeout,
		ResponseTime: seconds * 1000,
		ErrorMessage: &message,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateBody(body []byte) string {
	if len(body) > responseBodyLimit {
		return string(body[:responseBodyLimit])
	}
	return string(body)
}

// buildHeaders merges the test's stored headers with headers injected from
// its auth configuration.
func buildHeaders(test models.SyntheticTest) (map[string]string, error) {
	headers := make(map[string]string)

	if len(test.Headers) > 0 {
		if err := json.Unmarshal(test.Headers, &headers); err != nil {
			return nil, fmt.Errorf("invalid headers: %w", err)
		}
	}

	switch test.AuthType {
	case types.AuthTypeAPIKey:
		var creds types.APIKeyCredentials
		if err := json.Unmarshal(test.AuthCredentials, &creds); err != nil {
			return nil, fmt.Errorf("invalid api_key credentials: %w", err)
		}
		header := creds.Header
		if header == "" {
			header = "X-API-Key"
		}
		headers[header] = creds.Key
	case types.AuthTypeBearerToken:
		var creds types.BearerCredentials
		if err := json.Unmarshal(test.AuthCredentials, &creds); err != nil {
			return nil, fmt.Errorf("invalid bearer_token credentials: %w", err)
		}
		headers["Authorization"] = "Bearer " + creds.Token
	}

	return headers, nil
}

func statusCodeOf(resp *http.Response) *int {
	code := resp.StatusCode
	return &code
}
