package orch

import (
	"context"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

// HandleMessage processes one inbound message to completion.
func (o *Orchestrator) HandleMessage(ctx context.Context, sess *core.Session, raw []byte) {
	if o.opts.Debug {
		log.Debug().Str("module", "orch").Int64("sid", int64(sess.ID())).Bytes("raw", raw).Msg("inbound")
	}

	env, err := core.ParseEnvelope(raw)
	if err != nil {
		metrics.MessagesDropped.WithLabelValues("malformed").Inc()
		log.Warn().Err(err).Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("incorrect message received")
		return
	}
	if !env.Command.IsInbound() {
		metrics.MessagesDropped.WithLabelValues("unknown").Inc()
		log.Warn().Str("module", "orch").Int64("sid", int64(sess.ID())).Str("command", string(env.Command)).Msg("unknown command")
		return
	}
	metrics.MessagesReceived.WithLabelValues(string(env.Command)).Inc()

	switch env.Command {
	case core.CmdPong:
		o.handlePong(sess)
	case core.CmdAuth:
		o.handleAuth(ctx, sess, env)
	default:
		o.handleAuthenticated(sess, env)
	}
}

func (o *Orchestrator) handlePong(sess *core.Session) {
	o.lock()
	defer o.unlock()
	if _, live := o.Registry.GetSession(sess.ID()); !live {
		return
	}
	if !sess.AcceptPong(o.now()) {
		o.kick(sess, "unsolicited pong")
	}
}

// handleAuthenticated runs the commands reserved for authenticated
// sessions. Anything else is ignored.
func (o *Orchestrator) handleAuthenticated(sess *core.Session, env *core.Envelope) {
	o.lock()
	defer o.unlock()

	if _, live := o.Registry.GetSession(sess.ID()); !live {
		return
	}
	if !sess.Authenticated() {
		metrics.MessagesDropped.WithLabelValues("unauthenticated").Inc()
		log.Debug().Str("module", "orch").Int64("sid", int64(sess.ID())).Str("command", string(env.Command)).Msg("ignored before auth")
		return
	}

	switch env.Command {
	case core.CmdGetUsers:
		o.getUsersLocked(sess)
	case core.CmdCreateRoom:
		o.createRoomLocked(sess, env)
	case core.CmdDeleteRoom:
		o.deleteRoomLocked(sess, env)
	case core.CmdJoinRoom:
		o.joinRoomLocked(sess, env)
	case core.CmdWebRTC:
		o.relaySignalLocked(sess, env)
	}
}
