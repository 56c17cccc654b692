package signal

import (
	"context"
	"errors"
	"time"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// writePump owns all writes to the socket. Leaving it closes the connection,
// which in turn unblocks readPump.
func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump feeds inbound messages to the orchestrator one at a time and
// runs the disconnect path when the socket goes away.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, sess *core.Session, c *WsSignalConn) {
	sid := sess.ID()
	defer func() {
		cancel()
		c.Close()
		if ctl.limiter != nil {
			ctl.limiter.Forget(sid)
		}
		ctl.Orch.Disconnect(sess)
		log.Info().Str("module", "signal").Int64("sid", int64(sid)).Msg("readPump closing")
	}()

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				log.Warn().Str("module", "signal").Int64("sid", int64(sid)).Msg("message exceeds read limit")
			case websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
				log.Warn().Err(err).Str("module", "signal").Int64("sid", int64(sid)).Msg("readPump read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if msgType != websocket.TextMessage {
			metrics.MessagesDropped.WithLabelValues("binary").Inc()
			continue
		}
		if ctl.throttled(sid, data) {
			metrics.MessagesDropped.WithLabelValues("rate_limited").Inc()
			log.Warn().Str("module", "signal").Int64("sid", int64(sid)).Msg("rate limit exceeded")
			continue
		}
		ctl.Orch.HandleMessage(ctx, sess, data)
	}
}

// throttled reports whether the rate limiter drops data. Pong replies are
// never counted.
func (ctl *SignalWSController) throttled(sid core.SessionID, data []byte) bool {
	if ctl.limiter == nil {
		return false
	}
	if env, err := core.ParseEnvelope(data); err == nil && env.Command == core.CmdPong {
		return false
	}
	return !ctl.limiter.Allow(sid)
}
