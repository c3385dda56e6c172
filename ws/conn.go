package ws

import (
	"context"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"

	"github.com/sonirico/libemit"
)

// Conn is a websocket client connection whose frames and lifecycle are
// published on an emitter.
//
// Listeners for EventMessage, EventPing, EventPong and EventClose run on the
// connection's read goroutine, one at a time and in arrival order. A listener
// that blocks stalls the connection.
type Conn struct {
	emitter libemit.EventEmitter[EventType]
	params  OpenParamsGetter
	opts    options
	logger  libemit.Logger

	conn   atomic.Pointer[websocket.Conn]
	opened atomic.Bool
	send   chan Message

	closeC    chan struct{}
	closeOnce sync.Once

	reasonMu    sync.Mutex
	closeReason error
}

func NewConn(
	emitter libemit.EventEmitter[EventType],
	params OpenParamsGetter,
	opts ...Option,
) *Conn {
	o := newOptions(opts)

	return &Conn{
		emitter: emitter,
		params:  params,
		opts:    o,
		logger:  o.logger.WithField("net", "ws_connection"),
		send:    make(chan Message, 32),
		closeC:  make(chan struct{}),
	}
}

// Open dials the server and starts the read and write loops. It returns once
// the handshake finished and EventOpen listeners ran. Cancelling ctx closes the
// connection.
func (c *Conn) Open(ctx context.Context) error {
	if !c.opened.CompareAndSwap(false, true) {
		return ErrAlreadyOpen
	}

	conn, err := c.dial(ctx)
	if err != nil {
		c.opened.Store(false)
		return err
	}

	c.conn.Store(conn)

	select {
	case <-c.closeC:
		_ = conn.Close()
		return ErrConnectionClosed
	default:
	}

	// Control frames are published instead of being answered automatically,
	// see ReplyPingWithPong.
	conn.SetPingHandler(func(appData string) error {
		c.logger.Debugln("<= [PING]")
		c.publish(NewPingMessage([]byte(appData)))
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		c.logger.Debugln("<= [PONG]")
		c.publish(NewPongMessage([]byte(appData)))
		return nil
	})

	go c.write(ctx, conn)

	c.emitter.Emit(EventOpen)

	go c.read(conn)

	return nil
}

// Send queues m to be written by the write loop.
func (c *Conn) Send(m Message) error {
	if c.conn.Load() == nil {
		return ErrNotOpen
	}

	select {
	case <-c.closeC:
		return ErrConnectionClosed
	default:
	}

	select {
	case <-c.closeC:
		return ErrConnectionClosed
	case c.send <- m:
		return nil
	}
}

// Close terminates the connection. It is safe to call more than once.
func (c *Conn) Close() {
	c.setCloseReason(ErrTerminated)
	c.safeClose()
}

// Done is closed as soon as the connection starts shutting down.
func (c *Conn) Done() <-chan struct{} {
	return c.closeC
}

// Err returns the reason the connection was closed, nil while it is alive.
func (c *Conn) Err() error {
	c.reasonMu.Lock()
	defer c.reasonMu.Unlock()

	return c.closeReason
}

func (c *Conn) dial(ctx context.Context) (*websocket.Conn, error) {
	select {
	case <-c.closeC:
		return nil, ErrConnectionClosed
	default:
	}

	p, err := c.params(ctx)
	if err != nil {
		c.logger.Errorf("cannot get connection params due to %s", err)
		return nil, err
	}

	conn, resp, err := c.opts.dialer.DialContext(ctx, p.URL.String(), p.Header)
	if err = handleDialError(resp, err); err != nil {
		c.logger.Errorf("connection err to %s: %s", p.URL.String(), err)
		return nil, err
	}

	c.logger.Debugf("success opening connection to %s", p.URL.String())

	return conn, nil
}

func (c *Conn) read(conn *websocket.Conn) {
	defer func() {
		c.safeClose()
		c.emitter.Emit(EventClose, c.Err())
	}()

	for {
		messageType, bts, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closeC:
				c.setCloseReason(ErrTerminated)
			default:
				c.logger.Errorf("error occurred on websocket read: %s", err)
				c.setCloseReason(errors.Wrap(
					ErrConnectionClosed,
					"error occurred on websocket read: "+err.Error(),
				))
			}
			return
		}

		// message types from ReadMessage are either binary or text
		switch messageType {
		case websocket.BinaryMessage:
			c.logger.Debugln("<= [BIN]")
			c.publish(NewBinaryMessage(bts))
		default:
			c.logger.Debugf("<= [DATA] %s", string(bts))
			c.publish(NewDataMessage(bts))
		}
	}
}

// publish emits m on the event its frame type maps to.
func (c *Conn) publish(m Message) {
	c.emitter.Emit(m.Type().Event(), m)
}

func (c *Conn) write(ctx context.Context, conn *websocket.Conn) {
	defer c.safeClose()

	var pings <-chan time.Time
	if c.opts.pingInterval > 0 {
		ticker := time.NewTicker(c.opts.pingInterval)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case <-c.closeC:
			c.setCloseReason(ErrTerminated)
			return
		case <-ctx.Done():
			c.setCloseReason(ErrTerminated)
			return
		case <-pings:
			var payload []byte
			if c.opts.pingPayload != nil {
				payload = c.opts.pingPayload()
			}
			if err := c.writeMessage(conn, NewPingMessage(payload)); err != nil {
				c.setCloseReason(err)
				return
			}
		case msg := <-c.send:
			if err := c.writeMessage(conn, msg); err != nil {
				c.setCloseReason(err)
				return
			}
		}
	}
}

func (c *Conn) writeMessage(conn *websocket.Conn, msg Message) error {
	deadline := time.Now().Add(c.opts.writeTimeout)

	var err error

	switch msg.Type() {
	case PingMessage:
		c.logger.Debugln("=> [PING]")
		err = conn.WriteControl(websocket.PingMessage, msg.Data(), deadline)
	case PongMessage:
		c.logger.Debugln("=> [PONG]")
		err = conn.WriteControl(websocket.PongMessage, msg.Data(), deadline)
	case BinaryMessage:
		c.logger.Debugln("=> [BIN]")
		_ = conn.SetWriteDeadline(deadline)
		err = conn.WriteMessage(websocket.BinaryMessage, msg.Data())
	default:
		c.logger.Debugf("=> [DATA] %s", msg.Data())
		_ = conn.SetWriteDeadline(deadline)
		err = conn.WriteMessage(websocket.TextMessage, msg.Data())
	}

	if err == nil {
		return nil
	}

	c.logger.Errorf("error occurred on websocket write: %s", err)

	if websocket.IsCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
	) {
		return ErrConnectionClosed
	}
	return errors.Wrap(ErrConnectionClosed, err.Error())
}

func (c *Conn) safeClose() {
	c.closeOnce.Do(c.close)
}

func (c *Conn) close() {
	close(c.closeC)

	conn := c.conn.Load()
	if conn == nil {
		return
	}

	deadline := time.Now().Add(c.opts.writeTimeout)
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)
	_ = conn.Close()
}

func (c *Conn) setCloseReason(err error) {
	c.reasonMu.Lock()
	defer c.reasonMu.Unlock()

	if c.closeReason == nil {
		c.closeReason = err
	}
}

func handleDialError(resp *http.Response, err error) error {
	if err == nil {
		return nil
	}

	// 1. Check HTTP errors first
	var msg string

	if resp != nil {
		if resp.Body != nil {
			bts, readErr := io.ReadAll(resp.Body)
			if readErr == nil {
				msg = string(bts)
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimit, msg)
		}
	}

	// 2. Network errors
	return errors.Wrap(ErrCannotConnect, err.Error())
}
