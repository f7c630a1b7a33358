package kuasap

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrAuthFailed        = errors.New("kuasap: invalid username or password")
	ErrMalformedResponse = errors.New("kuasap: malformed upstream response")
	ErrInvalidQueryId    = errors.New("kuasap: invalid query id")
)

// TransportError is returned for network failures, timeouts and error
// statuses from the portal.
type TransportError struct {
	Op     string
	Url    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("kuasap: %s %s: unexpected status %d", e.Op, e.Url, e.Status)
	}
	return fmt.Sprintf("kuasap: %s %s: %s", e.Op, e.Url, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Timeout() bool {
	if e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
