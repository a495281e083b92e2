package asknews

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// IsTransient reports whether an error is a transient transport failure
// (timeout or connection failure). Only these error kinds are worth a retry;
// API errors and decode errors propagate immediately.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
