package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/infrastructure/resilience"
)

const opPublishProgress = "nats.publish_progress"

// connection states the client recovers from on its own by reconnecting
var transientConnErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrDisconnected,
	nats.ErrConnectionReconnecting,
}

// Progress events are advisory: one retry, and an open breaker drops the event.
var publishPolicy = resilience.Policy{
	Classifier:  classifyPublishError,
	MaxAttempts: 2,
}

func isTransientConn(err error) bool {
	for _, target := range transientConnErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{}
	case isTransientConn(err):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// publishError maps a failed publish onto the domain error kinds.
func publishError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case resilience.IsCircuitOpen(err), isTransientConn(err):
		return domain.WrapError(domain.ErrTemporary, "publish progress", err)
	default:
		return domain.WrapError(domain.ErrTransport, "publish progress", err)
	}
}
