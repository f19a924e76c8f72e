package resilience

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Transport adapts the resilient client behavior to http.RoundTripper so it
// can back SDK-managed http.Clients that do not accept a custom Do method.
type Transport struct {
	base           http.RoundTripper
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	config         ClientConfig
}

// NewTransport creates a resilient RoundTripper wrapping base. Pass nil to
// wrap http.DefaultTransport.
func NewTransport(cfg ClientConfig, base http.RoundTripper) *Transport {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 100 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if base == nil {
		base = http.DefaultTransport
	}

	var cb *gobreaker.CircuitBreaker[*http.Response]
	if cfg.CircuitBreaker != nil {
		cb = NewCircuitBreaker[*http.Response](*cfg.CircuitBreaker) //nolint:bodyclose // type param, not response
	} else {
		defaultCB := DefaultCircuitBreakerConfig(cfg.Name)
		cb = NewCircuitBreaker[*http.Response](defaultCB) //nolint:bodyclose // type param, not response
	}

	return &Transport{
		base:           base,
		circuitBreaker: cb,
		config:         cfg,
	}
}

// RoundTrip executes the request with circuit breaker protection and retry
// on transient failures. Requests with a non-nil body and no GetBody are not
// retried, a replay would need a rewindable body.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	retryable := req.Body == nil || req.GetBody != nil

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = t.config.InitialInterval
	bo.MaxInterval = t.config.MaxInterval
	bo.MaxElapsedTime = 0

	maxRetries := t.config.MaxRetries
	if !retryable {
		maxRetries = 0
	}
	backoffWithRetries := backoff.WithMaxRetries(bo, maxRetries)
	backoffWithContext := backoff.WithContext(backoffWithRetries, req.Context())

	var lastResp *http.Response

	operation := func() error {
		resp, err := t.circuitBreaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller is responsible for closing
			attempt := req
			if retryable && req.GetBody != nil {
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return nil, bodyErr
				}
				attempt = req.Clone(req.Context())
				attempt.Body = body
			}

			r, err := t.base.RoundTrip(attempt)
			if err != nil {
				return nil, err
			}

			if r.StatusCode >= 500 {
				return r, &ServerError{StatusCode: r.StatusCode}
			}

			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}

			if resp != nil {
				lastResp = resp
			}
			return err
		}

		lastResp = resp
		return nil
	}

	err := backoff.Retry(operation, backoffWithContext)
	if err != nil {
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	return lastResp, nil
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (t *Transport) CircuitBreakerState() gobreaker.State {
	return t.circuitBreaker.State()
}
