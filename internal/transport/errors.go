package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// TransientDeliveryError is a send failure worth retrying (rate limiting,
// timeouts, server errors). RetryAfter is the platform-requested wait, if any.
type TransientDeliveryError struct {
	Err        error
	RetryAfter time.Duration
}

func (e *TransientDeliveryError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("transient delivery error (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return "transient delivery error: " + e.Err.Error()
}

func (e *TransientDeliveryError) Unwrap() error { return e.Err }

// PermanentDeliveryError is a send failure that will not succeed on retry
// (blocked, forbidden, unknown chat, malformed request).
type PermanentDeliveryError struct {
	Err error
}

func (e *PermanentDeliveryError) Error() string { return "permanent delivery error: " + e.Err.Error() }

func (e *PermanentDeliveryError) Unwrap() error { return e.Err }

// Classify returns err as a *TransientDeliveryError or *PermanentDeliveryError.
// Errors already classified by an adapter pass through. Context cancellation
// is permanent for the caller; network timeouts and unknown errors are
// transient. Classify(nil) is nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var te *TransientDeliveryError
	if errors.As(err, &te) {
		return te
	}
	var pe *PermanentDeliveryError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, context.Canceled) {
		return &PermanentDeliveryError{Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransientDeliveryError{Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TransientDeliveryError{Err: err}
	}
	return &TransientDeliveryError{Err: err}
}

// IsPermanent reports whether err classifies as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentDeliveryError
	return errors.As(Classify(err), &pe)
}

// RetryAfter returns the wait requested by a transient error, or 0.
func RetryAfter(err error) time.Duration {
	var te *TransientDeliveryError
	if errors.As(err, &te) {
		return te.RetryAfter
	}
	return 0
}
