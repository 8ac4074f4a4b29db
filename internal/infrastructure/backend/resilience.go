package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/agreewise/agreewise/internal/core/domain"
	"github.com/agreewise/agreewise/internal/infrastructure/resilience"
)

// HTTPStatusError is a non-2xx response that carried no structured error body.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "backend status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("backend %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("backend %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyBackendError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		return resilience.ErrorClassification{
			Retryable:     isRetryableHTTPStatus(svcErr.StatusCode),
			RecordFailure: svcErr.StatusCode >= http.StatusInternalServerError,
		}
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if isRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		}
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}
	if domain.IsKind(err, domain.ErrMalformedResponse) || domain.IsKind(err, domain.ErrInvalidInput) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

// wrapFailure tags err with the domain kind the core expects. Errors that already
// carry a kind pass through unchanged.
func wrapFailure(operation string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrServiceFailure) ||
		domain.IsKind(err, domain.ErrTransport) ||
		domain.IsKind(err, domain.ErrMalformedResponse) ||
		domain.IsKind(err, domain.ErrInvalidInput) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.WrapError(domain.ErrTransport, operation, err)
	}

	class := classifyBackendError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTransport, operation, domain.WrapError(domain.ErrTemporary, operation, err))
	}
	return domain.WrapError(domain.ErrTransport, operation, err)
}

func isRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
