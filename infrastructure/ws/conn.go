package ws

import (
	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/runtime"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Conn is the transport handle of one websocket client.
// Send only enqueues, the write pump owns every write on the socket.
type Conn struct {
	id      string
	log     *slog.Logger
	socket  *websocket.Conn
	metrics *observability.Metrics
	limiter *rate.Limiter

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(log *slog.Logger, socket *websocket.Conn, metrics *observability.Metrics, opts Options) *Conn {
	socket.SetReadLimit(opts.MaxMessageSize)
	id := uuid.NewString()
	return &Conn{
		id:      id,
		log:     log.With("handle", id),
		socket:  socket,
		metrics: metrics,
		limiter: rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		send:    make(chan []byte, opts.SendBufferSize),
		done:    make(chan struct{}),
	}
}

func (c *Conn) ID() string {
	return c.id
}

// Send never blocks. A closed connection or a full buffer loses the event.
func (c *Conn) Send(evt chat.Event) error {
	frame, err := Encode(evt)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return errors.ErrConnectionClosed
	default:
		return errors.ErrSendBufferFull
	}
}

// close stops the write pump, which says goodbye to the peer and closes the socket.
func (c *Conn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// readPump feeds the session until the peer leaves, the pong deadline passes
// or the session refuses commands. Malformed frames are dropped, the
// connection stays open.
func (c *Conn) readPump(session *runtime.Session) {
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Unexpected websocket close", "error", err)
			} else {
				c.log.Debug("Websocket closed", "error", err)
			}
			return
		}

		if !c.limiter.Allow() {
			c.metrics.RateLimited.Inc()
			c.log.Warn("Rate limit exceeded, frame discarded")
			continue
		}

		cmd, err := Decode(frame)
		if err != nil {
			c.metrics.InvalidEvents.Inc()
			c.log.Warn("Event dropped", "error", err)
			continue
		}
		if err := session.Enqueue(cmd); err != nil {
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("Write failed", "error", err)
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug("Ping failed", "error", err)
				c.close()
				return
			}
		case <-c.done:
			_ = c.socket.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}
