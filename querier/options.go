package querier

import (
	"io"
	"log"
	"time"

	"github.com/netbeacon/beacon/internal/errors"
	"github.com/netbeacon/beacon/internal/transport"
)

// Option is a functional option for configuring a Handle at Init time.
//
// Example:
//
//	h, err := querier.Init(false, ifaceAddr,
//	    querier.WithRateLimitThreshold(50),
//	)
type Option func(*Handle) error

// WithReceiveBufferSize overrides the largest inbound message the engine
// will attempt to parse; larger datagrams are discarded unread. This bounds
// parsing cost, not the underlying socket's OS-level receive buffer, which
// is sized once at transport creation. Default: protocol.MaxMessageSize.
func WithReceiveBufferSize(size int) Option {
	return func(h *Handle) error {
		if size <= 0 {
			return &errors.ValidationError{
				Field:   "receiveBufferSize",
				Value:   size,
				Message: "receive buffer size must be greater than 0",
			}
		}
		h.receiveBufferSize = size
		return nil
	}
}

// WithTransport injects a Transport implementation, bypassing the real
// multicast socket Init would otherwise create. Intended for tests, where a
// MockTransport drives the engine loop deterministically.
func WithTransport(t transport.Transport) Option {
	return func(h *Handle) error {
		if t == nil {
			return &errors.ValidationError{
				Field:   "transport",
				Message: "transport cannot be nil",
			}
		}
		h.transport = t
		return nil
	}
}

// WithLogger sets the logger used for debug tracing when Init's debug flag
// is true. Default: a logger writing to io.Discard.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handle) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "logger cannot be nil",
			}
		}
		h.logger = logger
		return nil
	}
}

// WithRateLimit enables or disables the per-source-IP rate limiter on the
// receive path. Default: enabled.
func WithRateLimit(enabled bool) Option {
	return func(h *Handle) error {
		h.rateLimitEnabled = enabled
		return nil
	}
}

// WithRateLimitThreshold sets the query rate threshold (datagrams per
// second per source IP) before a source is rate-limited. Default: 100.
func WithRateLimitThreshold(threshold int) Option {
	return func(h *Handle) error {
		if threshold <= 0 {
			return &errors.ValidationError{
				Field:   "rateLimitThreshold",
				Value:   threshold,
				Message: "threshold must be greater than 0",
			}
		}
		h.rateLimitThreshold = threshold
		return nil
	}
}

// WithRateLimitCooldown sets how long a source is rate-limited for after
// exceeding the threshold. Default: 60 seconds.
func WithRateLimitCooldown(cooldown time.Duration) Option {
	return func(h *Handle) error {
		if cooldown <= 0 {
			return &errors.ValidationError{
				Field:   "rateLimitCooldown",
				Value:   cooldown,
				Message: "cooldown must be greater than 0",
			}
		}
		h.rateLimitCooldown = cooldown
		return nil
	}
}

// defaultLogger returns a logger that discards everything, used when
// WithLogger is not supplied.
func defaultLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
