// Package probe performs single, bounded HTTP liveness checks.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds a probe when the caller passes a non-positive timeout.
const DefaultTimeout = time.Second

var (
	// ErrProbeTimeout is returned by Check when no response arrived in time.
	ErrProbeTimeout = errors.New("probe timed out")
	// ErrProbeUnreachable is returned by Check when the endpoint refused or failed the connection.
	ErrProbeUnreachable = errors.New("probe unreachable")
)

// StatusError reports a response that arrived with a non-2xx status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("probe returned status %d", e.Code) }

// Prober checks a single endpoint. Implementations must be safe for concurrent use.
type Prober interface {
	Probe(ctx context.Context, endpoint string, timeout time.Duration) bool
	Check(ctx context.Context, endpoint string, timeout time.Duration) error
}

// HTTPProber issues GET requests. The zero value is ready to use.
type HTTPProber struct {
	// Client is used for requests; nil means a client without its own timeout,
	// the per-call timeout is enforced through the request context.
	Client *http.Client
	// OnResult, if set, is called with the classified outcome of every Check.
	OnResult func(endpoint string, err error)
}

// New returns an HTTPProber using a dedicated transport that never keeps idle
// connections, so probes of a restarted endpoint do not reuse dead sockets.
func New() *HTTPProber {
	return &HTTPProber{Client: &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}}
}

// Probe reports whether endpoint answered with a 2xx status within timeout.
func (p *HTTPProber) Probe(ctx context.Context, endpoint string, timeout time.Duration) bool {
	return p.Check(ctx, endpoint, timeout) == nil
}

// Check is Probe with the failure cause: ErrProbeTimeout, ErrProbeUnreachable
// (both wrapped with the underlying error) or *StatusError.
func (p *HTTPProber) Check(ctx context.Context, endpoint string, timeout time.Duration) error {
	err := p.check(ctx, endpoint, timeout)
	if p.OnResult != nil {
		p.OnResult(endpoint, err)
	}
	return err
}

func (p *HTTPProber) check(ctx context.Context, endpoint string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProbeUnreachable, err)
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("%w: %v", ErrProbeTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrProbeUnreachable, err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Reason renders a probe error as a short diagnostic for status details.
func Reason(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProbeTimeout):
		return "health check timed out"
	case errors.As(err, &se):
		return fmt.Sprintf("health check returned HTTP %d", se.Code)
	default:
		return "endpoint unreachable"
	}
}
