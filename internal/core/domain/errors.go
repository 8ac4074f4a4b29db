package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("operation already in progress")
	ErrNotFound           = errors.New("not found")
	ErrTransport          = errors.New("transport failure")
	ErrServiceFailure     = errors.New("service failure")
	ErrMalformedResponse  = errors.New("malformed response")
	ErrPlayback           = errors.New("playback failure")
	ErrClipboard          = errors.New("clipboard failure")
	ErrTemporary          = errors.New("temporary failure")
	ErrUnsupportedContent = errors.New("unsupported content")
)

const (
	GenericTransportMessage = "Could not reach the analysis service. Check your connection and try again."
	GenericFailureMessage   = "Something went wrong. Please try again."
	ClipboardFailureMessage = "The message is ready but could not be copied to the clipboard."
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ServiceError is a structured {success:false, error} response from a remote service.
type ServiceError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e == nil {
		return "service error"
	}
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("%s failed (status %d)", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return ErrServiceFailure
}

// UserMessage renders err as text suitable for showing to the end user.
// Service messages pass through verbatim; transport failures get a generic message.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && strings.TrimSpace(svcErr.Message) != "" {
		return svcErr.Message
	}
	switch {
	case IsKind(err, ErrTransport), IsKind(err, ErrTemporary):
		return GenericTransportMessage
	case IsKind(err, ErrClipboard):
		return ClipboardFailureMessage
	case IsKind(err, ErrInvalidInput), IsKind(err, ErrUnsupportedContent), IsKind(err, ErrConflict), IsKind(err, ErrNotFound), IsKind(err, ErrPlayback):
		return rootMessage(err)
	}
	if strings.TrimSpace(fallback) == "" {
		return GenericFailureMessage
	}
	return fallback
}

// rootMessage follows the last wrapped error down to the innermost cause.
func rootMessage(err error) string {
	for {
		switch x := err.(type) {
		case interface{ Unwrap() []error }:
			errs := x.Unwrap()
			if len(errs) == 0 {
				return err.Error()
			}
			err = errs[len(errs)-1]
		case interface{ Unwrap() error }:
			next := x.Unwrap()
			if next == nil {
				return err.Error()
			}
			err = next
		default:
			return err.Error()
		}
	}
}
