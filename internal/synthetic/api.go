package synthetic

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/evalforge-dev/evalforge/internal/models"
)

// requestTimings collects the fine-grained phases of one request via
// httptrace. Fields stay nil when a phase was not observed, e.g. DNS on a
// reused connection.
type requestTimings struct {
	start        time.Time
	dnsStart     time.Time
	connectStart time.Time
	tlsStart     time.Time

	dns       *int
	connect   *int
	tlsMS     *int
	firstByte *int
}

func (t *requestTimings) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			t.dnsStart = time.Now()
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			t.dns = intPtr(int(time.Since(t.dnsStart).Milliseconds()))
		},
		ConnectStart: func(string, string) {
			t.connectStart = time.Now()
		},
		ConnectDone: func(string, string, error) {
			t.connect = intPtr(int(time.Since(t.connectStart).Milliseconds()))
		},
		TLSHandshakeStart: func() {
			t.tlsStart = time.Now()
		},
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			t.tlsMS = intPtr(int(time.Since(t.tlsStart).Milliseconds()))
		},
		GotFirstResponseByte: func() {
			t.firstByte = intPtr(int(time.Since(t.start).Milliseconds()))
		},
	}
}

// executeAPI issues the configured method/URL/body and checks the response
// against the expected status code and substring.
func (e *Executor) executeAPI(ctx context.Context, test models.SyntheticTest) Outcome {
	start := time.Now()

	headers, err := buildHeaders(test)

	if err != nil {
		return errorOutcome(int(time.Since(start).Milliseconds()), err.Error())
	}

	var body io.Reader

	if len(test.Body) > 0 {
		body = bytes.NewReader(test.Body)
	}

	timings := &requestTimings{start: start}
	reqCtx := httptrace.WithClientTrace(ctx, timings.trace())

	req, err := http.NewRequestWithContext(reqCtx, test.Method, test.URL, body)

	if err != nil {
		return errorOutcome(int(time.Since(start).Milliseconds()), err.Error())
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	client := e.httpClient(test)

	resp, err := client.Do(req)

	if err != nil {
		if isTimeout(err) {
			return timeoutOutcome(test)
		}
		return errorOutcome(int(time.Since(start).Milliseconds()), err.Error())
	}

	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)

	if err != nil {
		if isTimeout(err) {
			return timeoutOutcome(test)
		}
		return errorOutcome(int(time.Since(start).Milliseconds()), err.Error())
	}

	responseTime := int(time.Since(start).Milliseconds())
	snippet := truncateBody(raw)

	statusOK := resp.StatusCode == test.ExpectedStatus
	contentOK := test.ExpectedResponseContains == "" || bytes.Contains(raw, []byte(test.ExpectedResponseContains))

	outcome := Outcome{
		Status:        models.ExecutionStatusSuccess,
		ResponseTime:  responseTime,
		StatusCode:    statusCodeOf(resp),
		ResponseBody:  snippet,
		DNSTime:       timings.dns,
		ConnectTime:   timings.connect,
		SSLTime:       timings.tlsMS,
		FirstByteTime: timings.firstByte,
	}

	if !statusOK || !contentOK {
		message := fmt.Sprintf("Status: %d, Content check: %t", resp.StatusCode, contentOK)
		outcome.Status = models.ExecutionStatusFailure
		outcome.ErrorMessage = &message
	}

	return outcome
}

func (e *Executor) executeBrowser(ctx context.Context, test models.SyntheticTest) Outcome {
	return errorOutcome(0, "browser automation not available")
}
