package widget

import (
	"errors"
	"fmt"

	"github.com/icodeforyou/spothub-go/types"
)

type State string

const (
	StateIdle   State = "idle"
	StateLoaded State = "loaded"
	StateError  State = "error"
)

// FetchError is a failed fetch as shown to the viewer: the HTTP status when
// the feed answered with one, otherwise the underlying error text.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	if e.Err == nil {
		return "failed to fetch prices"
	}
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func newFetchError(err error) *FetchError {
	fe := &FetchError{Err: err}
	var statusErr *types.StatusError
	if errors.As(err, &statusErr) {
		fe.StatusCode = statusErr.StatusCode
	}
	return fe
}
