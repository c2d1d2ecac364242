// Package inventoryclient calls the inventory service's reserve and compensate
// endpoints through a retrier and a circuit breaker. Every failure it cannot
// recover from collapses into false.
package inventoryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/ariefcatur/go-order-fulfillment/internal/inventory"
	"github.com/eapache/go-resiliency/breaker"
	"github.com/eapache/go-resiliency/retrier"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	pathReserve    = "/inventory/reserve"
	pathCompensate = "/inventory/compensate"
)

type Config struct {
	BaseURL          string
	Timeout          time.Duration
	RetryAttempts    int // total attempts, including the first
	RetryBackoff     time.Duration
	BreakerErrors    int
	BreakerSuccesses int
	BreakerTimeout   time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *breaker.Breaker
	retrier *retrier.Retrier
	log     *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Client {
	retries := cfg.RetryAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker.New(max(cfg.BreakerErrors, 1), max(cfg.BreakerSuccesses, 1), cfg.BreakerTimeout),
		retrier: retrier.New(retrier.ExponentialBackoff(retries, cfg.RetryBackoff), transientOnly{}),
		log:     log,
	}
}

// Reserve asks inventory to deduct the whole batch. False means refused or
// unreachable.
func (c *Client) Reserve(ctx context.Context, items []inventory.Item) bool {
	return c.call(ctx, "reserve", pathReserve, items)
}

// Compensate returns the batch to stock. False means inventory could not be
// reached.
func (c *Client) Compensate(ctx context.Context, items []inventory.Item) bool {
	return c.call(ctx, "compensate", pathCompensate, items)
}

// errRejected marks answers that retrying cannot change. They are kept out of
// the breaker's error count.
type errRejected struct{ status int }

func (e errRejected) Error() string {
	return fmt.Sprintf("inventory rejected request: status %d", e.status)
}

// errTransient is a failure worth another attempt: inventory either never saw
// the request or rolled it back.
type errTransient struct{ err error }

func (e errTransient) Error() string { return e.err.Error() }
func (e errTransient) Unwrap() error { return e.err }

// errAmbiguous means inventory may have applied the request. Reserve and
// compensate are not idempotent, so it is never retried.
type errAmbiguous struct{ err error }

func (e errAmbiguous) Error() string { return e.err.Error() }
func (e errAmbiguous) Unwrap() error { return e.err }

type transientOnly struct{}

func (transientOnly) Classify(err error) retrier.Action {
	switch {
	case err == nil:
		return retrier.Succeed
	case errors.Is(err, breaker.ErrBreakerOpen):
		return retrier.Fail
	case errors.As(err, new(errAmbiguous)):
		return retrier.Fail
	default:
		return retrier.Retry
	}
}

func (c *Client) call(ctx context.Context, op, path string, items []inventory.Item) bool {
	var (
		inStock  bool
		rejected error
		attempts int
	)
	err := c.retrier.RunCtx(ctx, func(ctx context.Context) error {
		attempts++
		return c.breaker.Run(func() error {
			ok, err := c.post(ctx, path, items)
			var rej errRejected
			if errors.As(err, &rej) {
				rejected = rej
				return nil
			}
			if err != nil {
				return err
			}
			inStock = ok
			return nil
		})
	})

	switch {
	case err != nil:
		calls.WithLabelValues(op, "fallback").Inc()
		c.log.Warn("inventory call failed, using fallback",
			zap.String("op", op),
			zap.Int("attempts", attempts),
			zap.Bool("circuit_open", errors.Is(err, breaker.ErrBreakerOpen)),
			zap.String("request_id", middleware.GetReqID(ctx)),
			zap.Error(err),
		)
		return false
	case rejected != nil:
		calls.WithLabelValues(op, "rejected").Inc()
		c.log.Warn("inventory rejected request", zap.String("op", op), zap.Error(rejected))
		return false
	case !inStock:
		calls.WithLabelValues(op, "refused").Inc()
		return false
	default:
		calls.WithLabelValues(op, "ok").Inc()
		return true
	}
}

type stockAnswer struct {
	InStock bool `json:"inStock"`
}

// post returns (answer, nil) for 200 and 409 and errRejected for other 4xx.
// Refused connections and 5xx answers are errTransient; a timeout or an
// unreadable 200 is errAmbiguous.
func (c *Client) post(ctx context.Context, path string, items []inventory.Item) (bool, error) {
	body, err := json.Marshal(items)
	if err != nil {
		return false, errRejected{status: 0}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return false, errRejected{status: 0}
	}
	req.Header.Set("Content-Type", "application/json")
	if id := middleware.GetReqID(ctx); id != "" {
		req.Header.Set(middleware.RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if notSent(err) {
			return false, errTransient{err: err}
		}
		return false, errAmbiguous{err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var ans stockAnswer
		if err := json.NewDecoder(resp.Body).Decode(&ans); err != nil {
			return false, errAmbiguous{err: fmt.Errorf("decode %s answer: %w", path, err)}
		}
		return ans.InStock, nil
	case resp.StatusCode == http.StatusConflict:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, errRejected{status: resp.StatusCode}
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, errTransient{err: fmt.Errorf("%s: status %d", path, resp.StatusCode)}
	}
}

// notSent reports whether err happened before the request reached inventory.
func notSent(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}
