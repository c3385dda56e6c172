package libemit

// EventEmitter is the subset of Emitter that consumers publish to and
// subscribe on.
type EventEmitter[K comparable] interface {
	// On registers a new listener for the given event.
	On(event K, listener Listener) Unsubscribe

	// Emit triggers all listeners registered for the given event synchronously.
	Emit(event K, args ...any)
}

var (
	_ EventEmitter[string] = (*Emitter[string])(nil)
	_ EventEmitter[string] = NoopEmitter[string]{}
)

// NoopEmitter drops every registration and emission.
type NoopEmitter[K comparable] struct{}

func (NoopEmitter[K]) On(K, Listener) Unsubscribe { return func() {} }

func (NoopEmitter[K]) Emit(K, ...any) {}
