// Package ws publishes the lifecycle and the frames of a websocket connection
// on a libemit emitter.
package ws

import (
	"github.com/sonirico/libemit"
)

// EventType names the events a Conn emits.
type EventType string

const (
	// EventOpen is emitted without arguments once the handshake succeeded.
	EventOpen EventType = "open"
	// EventMessage carries a data or binary Message.
	EventMessage EventType = "message"
	// EventPing carries the received ping Message.
	EventPing EventType = "ping"
	// EventPong carries the received pong Message.
	EventPong EventType = "pong"
	// EventClose is emitted exactly once with the close reason (an error).
	EventClose EventType = "close"
)

// MessageListener adapts a typed handler to a listener for EventMessage,
// EventPing or EventPong.
func MessageListener(fn func(Message)) libemit.Listener {
	return func(args ...any) {
		if len(args) == 0 {
			return
		}
		if m, ok := args[0].(Message); ok {
			fn(m)
		}
	}
}

// CloseListener adapts a typed handler to a listener for EventClose.
func CloseListener(fn func(reason error)) libemit.Listener {
	return func(args ...any) {
		var reason error
		if len(args) > 0 {
			reason, _ = args[0].(error)
		}
		fn(reason)
	}
}

// ReplyPingWithPong returns a listener for EventPing that answers every ping
// with a pong carrying the same payload.
func ReplyPingWithPong(c *Conn) libemit.Listener {
	return MessageListener(func(m Message) {
		if m.Type().IsPing() {
			_ = c.Send(NewPongMessage(m.Data()))
		}
	})
}
