package transport

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	t.Parallel()
	base := errors.New("boom")
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{name: "unknown", err: base, permanent: false},
		{name: "timeout", err: timeoutErr{}, permanent: false},
		{name: "deadline", err: context.DeadlineExceeded, permanent: false},
		{name: "canceled", err: fmt.Errorf("send: %w", context.Canceled), permanent: true},
		{name: "already permanent", err: fmt.Errorf("wrapped: %w", &PermanentDeliveryError{Err: base}), permanent: true},
		{name: "already transient", err: &TransientDeliveryError{Err: base, RetryAfter: time.Second}, permanent: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsPermanent(tt.err); got != tt.permanent {
				t.Fatalf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.permanent)
			}
		})
	}
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) != nil")
	}
}

func TestRetryAfterAndUnwrap(t *testing.T) {
	t.Parallel()
	base := errors.New("flood")
	err := fmt.Errorf("send: %w", &TransientDeliveryError{Err: base, RetryAfter: 3 * time.Second})
	if RetryAfter(err) != 3*time.Second {
		t.Fatalf("RetryAfter = %v", RetryAfter(err))
	}
	if !errors.Is(err, base) {
		t.Fatal("cause not reachable through errors.Is")
	}
	if RetryAfter(base) != 0 {
		t.Fatal("unclassified error has RetryAfter")
	}
}
