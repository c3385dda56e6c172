package libemit

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
)

type (
	// Listener is invoked with the arguments handed to Emit. Arity is a convention
	// between emitter and listener, it is not enforced.
	Listener func(args ...any)

	// Unsubscribe removes the registration that returned it. Calling it more than
	// once is a no-op.
	Unsubscribe func()

	registration struct {
		id       uint64
		listener Listener
	}
)

func (r *registration) invoke(args []any) {
	if r.listener == nil {
		return
	}
	r.listener(args...)
}

// Emitter maps events (of type K) to ordered sequences of listeners and
// dispatches to them synchronously.
//
// Each call to On creates a distinct registration, so the same function may be
// registered several times and every registration is removed independently.
//
// A listener that panics aborts the emission: the panic propagates out of Emit
// and the listeners after it are not called. TryEmit reports the same
// situation as an error.
type Emitter[K comparable] struct {
	listeners map[K][]*registration
	lock      sync.RWMutex
	seq       atomic.Uint64
	logger    Logger
}

// NewEmitter creates a new Emitter with no listeners and returns a pointer to it.
func NewEmitter[K comparable](opts ...Option) *Emitter[K] {
	o := newOptions(opts)

	return &Emitter[K]{
		listeners: make(map[K][]*registration),
		logger:    o.logger.WithField("component", "emitter"),
	}
}

// On registers listener at the end of the sequence for the given event and
// returns the function that removes it again.
func (e *Emitter[K]) On(event K, listener Listener) Unsubscribe {
	r := &registration{id: e.seq.Add(1), listener: listener}

	e.lock.Lock()
	e.listeners[event] = append(e.listeners[event], r)
	e.lock.Unlock()

	e.logger.Debugf("registered listener #%d for %v", r.id, event)

	return func() {
		e.remove(event, r)
	}
}

// Once registers a listener which is removed before its first invocation.
// It fires at most once, even when the event is emitted concurrently.
func (e *Emitter[K]) Once(event K, listener Listener) Unsubscribe {
	var (
		once  sync.Once
		unsub Unsubscribe
		ready = make(chan struct{})
	)

	unsub = e.On(event, func(args ...any) {
		once.Do(func() {
			<-ready
			unsub()
			if listener != nil {
				listener(args...)
			}
		})
	})
	close(ready)

	return unsub
}

// Emit invokes, in order, every listener registered for event at the moment of
// the call. Listeners added or removed while the emission runs only affect
// later emissions.
func (e *Emitter[K]) Emit(event K, args ...any) {
	for _, r := range e.snapshot(event) {
		r.invoke(args)
	}
}

// TryEmit behaves like Emit but recovers a panicking listener. The recovered
// value is returned as a *ListenerPanicError and the remaining listeners of the
// emission are skipped.
func (e *Emitter[K]) TryEmit(event K, args ...any) (err error) {
	regs := e.snapshot(event)

	for i, r := range regs {
		if err = e.tryInvoke(event, i, r, args); err != nil {
			e.logger.Errorf("emission of %v aborted after %d/%d listeners: %s", event, i, len(regs), err)
			return err
		}
	}

	return nil
}

func (e *Emitter[K]) tryInvoke(event K, index int, r *registration, args []any) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = newListenerPanicError(fmt.Sprint(event), index, v)
		}
	}()

	r.invoke(args)
	return nil
}

// ListenerCount returns the number of registrations for event.
func (e *Emitter[K]) ListenerCount(event K) int {
	e.lock.RLock()
	defer e.lock.RUnlock()

	return len(e.listeners[event])
}

// EventNames returns the events that have at least one listener, in no
// particular order.
func (e *Emitter[K]) EventNames() []K {
	e.lock.RLock()
	defer e.lock.RUnlock()

	names := make([]K, 0, len(e.listeners))
	for name := range e.listeners {
		names = append(names, name)
	}
	return names
}

// Close removes all listeners. Unsubscribe functions handed out before the call
// become no-ops.
func (e *Emitter[K]) Close() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.listeners = make(map[K][]*registration)
}

func (e *Emitter[K]) snapshot(event K) []*registration {
	e.lock.RLock()
	defer e.lock.RUnlock()

	regs := e.listeners[event]
	if len(regs) == 0 {
		return nil
	}
	return slices.Clone(regs)
}

func (e *Emitter[K]) remove(event K, r *registration) {
	if !e.unregister(event, r) {
		return
	}

	e.logger.Debugf("removed listener #%d from %v", r.id, event)
}

func (e *Emitter[K]) unregister(event K, r *registration) bool {
	e.lock.Lock()
	defer e.lock.Unlock()

	regs := e.listeners[event]
	i := slices.Index(regs, r)
	if i < 0 {
		return false
	}

	regs = slices.Delete(regs, i, i+1)
	if len(regs) == 0 {
		delete(e.listeners, event)
	} else {
		e.listeners[event] = regs
	}
	return true
}
