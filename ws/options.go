package ws

import (
	"time"

	"github.com/fasthttp/websocket"

	"github.com/sonirico/libemit"
)

type (
	Option func(*options)

	options struct {
		logger       libemit.Logger
		dialer       *websocket.Dialer
		pingInterval time.Duration
		pingPayload  func() []byte
		writeTimeout time.Duration
	}
)

func WithLogger(l libemit.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithPingInterval makes the connection send a ping every interval. payload may
// be nil.
func WithPingInterval(interval time.Duration, payload func() []byte) Option {
	return func(o *options) {
		o.pingInterval = interval
		o.pingPayload = payload
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.writeTimeout = d
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:       libemit.NoopLogger(),
		dialer:       websocket.DefaultDialer,
		writeTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
