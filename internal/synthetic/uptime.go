package synthetic

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/evalforge-dev/evalforge/internal/models"
)

const (
	certProbeTimeout   = 10 * time.Second
	certExpiryDaysWarn = 30
)

// CertProber reports the number of days until a host's leaf certificate
// expires. Injectable so uptime tests can run without a live TLS endpoint.
type CertProber func(host string) (int, error)

func probeCertificate(host string) (int, error) {
	dialer := &net.Dialer{Timeout: certProbeTimeout}

	conn, err := tls.DialWithDialer(dialer, "tcp", host, &tls.Config{ServerName: hostnameOf(host)})

	if err != nil {
		return 0, err
	}

	defer conn.Close()

	certs := conn.ConnectionState().PeerCertificates

	if len(certs) == 0 {
		return 0, fmt.Errorf("no peer certificates presented by %s", host)
	}

	return int(time.Until(certs[0].NotAfter).Hours() / 24), nil
}

func hostnameOf(hostPort string) string {
	if host, _, err := net.SplitHostPort(hostPort); err == nil {
		return host
	}
	return hostPort
}

// executeUptime issues a plain GET and treats any 2xx as up. When SSL
// checking is enabled for an HTTPS target, the certificate is probed
// independently and near expiry forces the check to fail regardless of the
// HTTP status. Probe failures degrade to unknown expiry and never flip the
// result on their own.
func (e *Executor) executeUptime(ctx context.Context, test models.SyntheticTest) Outcome {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, test.URL, nil)

	if err != nil {
		return errorOutcome(int(time.Since(start).Milliseconds()), err.Error())
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

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	responseTime := int(time.Since(start).Milliseconds())
	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	outcome := Outcome{
		Status:       models.ExecutionStatusSuccess,
		ResponseTime: responseTime,
		StatusCode:   statusCodeOf(resp),
		ResponseBody: fmt.Sprintf("HTTP %d", resp.StatusCode),
	}

	if !success {
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		outcome.Status = models.ExecutionStatusFailure
		outcome.ErrorMessage = &message
	}

	if test.SSLCheckEnabled {
		if host, ok := httpsHost(test.URL); ok {
			if days, err := e.certProber(host); err == nil && days < certExpiryDaysWarn {
				message := fmt.Sprintf("SSL certificate expires in %d days", days)
				outcome.Status = models.ExecutionStatusFailure
				outcome.ErrorMessage = &message
			}
		}
	}

	return outcome
}

func httpsHost(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)

	if err != nil || !strings.EqualFold(parsed.Scheme, "https") || parsed.Hostname() == "" {
		return "", false
	}

	port := parsed.Port()

	if port == "" {
		port = "443"
	}

	return net.JoinHostPort(parsed.Hostname(), port), true
}
