// Package receipt waits for a bulk order to be fulfilled so its receipt can
// be shown.
package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/upstream"
)

const (
	DefaultInterval = 3 * time.Second
	DefaultDeadline = 2 * time.Minute
)

var (
	// ErrReceiptTimeout means the order was not fulfilled before the deadline.
	ErrReceiptTimeout = errors.New("timed out waiting for the order to be fulfilled")
	// ErrOrderNotFulfilled means the order ended without being fulfilled.
	ErrOrderNotFulfilled = errors.New("order was not fulfilled")
)

// StatusAPI fetches the current status of a bulk order.
type StatusAPI interface {
	B2BOrderStatus(ctx context.Context, hash string) (*models.B2BOrderStatus, error)
}

// Observer is told how every wait ended.
type Observer interface {
	ObserveReceiptPoll(result string, attempts int)
}

// Poller polls the order status on a fixed interval.
type Poller struct {
	api      StatusAPI
	interval time.Duration
	deadline time.Duration
	logger   *slog.Logger
	observer Observer
}

// NewPoller creates a poller. Zero durations fall back to the defaults.
func NewPoller(api StatusAPI, interval, deadline time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Poller{api: api, interval: interval, deadline: deadline, logger: logger}
}

// WithObserver attaches an observer and returns the poller.
func (p *Poller) WithObserver(o Observer) *Poller {
	p.observer = o
	return p
}

// Wait polls until the order is fulfilled and returns its final status. It
// gives up with ErrReceiptTimeout once the deadline passes. Failed polls are
// logged and retried on the next tick; a rejected session ends the wait.
func (p *Poller) Wait(ctx context.Context, hash string) (*models.B2BOrderStatus, error) {
	deadline := time.NewTimer(p.deadline)
	defer deadline.Stop()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		status, err := p.api.B2BOrderStatus(ctx, hash)
		switch {
		case err == nil && status.Status == models.OrderStatusFulfilled:
			p.observe("fulfilled", attempts)
			return status, nil
		case err == nil && status.Done():
			p.observe("not_fulfilled", attempts)
			return status, fmt.Errorf("%w: status %s", ErrOrderNotFulfilled, status.Status)
		case errors.Is(err, upstream.ErrUnauthorized):
			p.observe("error", attempts)
			return nil, err
		case err != nil:
			p.logger.WarnContext(ctx, "receipt poll failed", "hash", hash, "attempt", attempts, "error", err)
		}

		select {
		case <-ctx.Done():
			p.observe("canceled", attempts)
			return nil, ctx.Err()
		case <-deadline.C:
			p.observe("timeout", attempts)
			p.logger.WarnContext(ctx, "gave up waiting for receipt", "hash", hash, "attempts", attempts)
			return nil, ErrReceiptTimeout
		case <-ticker.C:
		}
	}
}

func (p *Poller) observe(result string, attempts int) {
	if p.observer != nil {
		p.observer.ObserveReceiptPoll(result, attempts)
	}
}
