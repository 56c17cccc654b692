package orch

import (
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

// relaySignalLocked forwards a WebRTC negotiation message to a co-member,
// verbatim apart from the stamped sender.
func (o *Orchestrator) relaySignalLocked(sess *core.Session, env *core.Envelope) {
	if env.To == nil {
		log.Warn().Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("webrtc without recipient")
		return
	}
	to := *env.To

	room, ok := o.Rooms.FindByMember(sess.ID())
	if !ok || !room.Has(to) {
		o.sendError(sess, core.ErrTypeNotInSameRoom)
		return
	}
	peer, ok := o.Registry.Lookup(to)
	if !ok {
		log.Info().Str("module", "orch").Int64("sid", int64(sess.ID())).Int64("to", int64(to)).Msg("user was not found")
		return
	}

	frame, err := core.StampFrom(env.Raw, sess.ID())
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("webrtc restamp")
		return
	}
	metrics.SignalsForwarded.Inc()
	o.afterSend(peer, peer.SendFrame(frame))
}

func (o *Orchestrator) getUsersLocked(sess *core.Session) {
	self := sess.ID()
	o.send(sess, core.Message{
		To:      &self,
		Command: core.CmdUsers,
		Data:    o.userViews(),
	})
}
