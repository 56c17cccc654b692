package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/VoiceRelay/internal/app/orch"
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	defaultReadLimit  = 32 << 10
	defaultSendBuffer = 32
	writeWait         = 5 * time.Second
)

type Options struct {
	ReadLimit     int64
	SendBuffer    int
	RateMessages  int
	RateInterval  time.Duration
	AllowedOrigin func(r *http.Request) bool
}

type SignalWSController struct {
	Orch *orch.Orchestrator

	limiter  *RateLimiter
	upgrader websocket.Upgrader
	opts     Options
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = defaultReadLimit
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = defaultSendBuffer
	}
	checkOrigin := opts.AllowedOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	ctl := &SignalWSController{
		Orch:     o,
		opts:     opts,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
	if opts.RateMessages > 0 {
		ctl.limiter = NewRateLimiter(opts.RateMessages, opts.RateInterval)
	}
	return ctl
}

// WsSignalConn implements core.SignalConnection over a websocket with a
// bounded outbound queue drained by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	clientToken := c.GetString("client_token")

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("client", clientToken).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.opts.ReadLimit)

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}
	sess := ctl.Orch.Connect(conn)
	log.Info().
		Str("module", "signal").
		Int64("sid", int64(sess.ID())).
		Str("client", clientToken).
		Str("remote", c.ClientIP()).
		Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sess, conn)
}
