package libemit

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrListenerPanic = errors.New("listener panicked")
)

// ListenerPanicError is returned by TryEmit when a listener panics. Index is the
// listener's position in the emission snapshot.
type ListenerPanicError struct {
	Event string
	Index int
	Value any
}

func (e *ListenerPanicError) Error() string {
	return fmt.Sprintf("%s: event %q, listener %d: %v", ErrListenerPanic, e.Event, e.Index, e.Value)
}

func (e *ListenerPanicError) Is(target error) bool { return target == ErrListenerPanic }

// Unwrap returns the panic value when it is an error.
func (e *ListenerPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func newListenerPanicError(event string, index int, value any) *ListenerPanicError {
	return &ListenerPanicError{
		Event: event,
		Index: index,
		Value: value,
	}
}
