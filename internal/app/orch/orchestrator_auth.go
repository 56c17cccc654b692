package orch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

var errEmptyToken = errors.New("empty token")

// handleAuth verifies the token without holding the lock, then admits the
// session and pushes the world state.
func (o *Orchestrator) handleAuth(ctx context.Context, sess *core.Session, env *core.Envelope) {
	o.lock()
	already := sess.Authenticated()
	o.unlock()
	if already {
		log.Warn().Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("repeated auth ignored")
		return
	}

	var (
		id     domain.Identity
		token  string
		reason = "malformed"
	)
	err := json.Unmarshal(env.Data, &token)
	if err == nil && token == "" {
		err = errEmptyToken
	}
	if err == nil {
		reason = "invalid"
		id, err = o.Verifier.Verify(ctx, token)
	}

	o.lock()
	defer o.unlock()
	if _, live := o.Registry.GetSession(sess.ID()); !live {
		return
	}
	if err != nil {
		metrics.AuthFailures.WithLabelValues(reason).Inc()
		log.Warn().Err(err).Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("user with incorrect token was kicked")
		o.kick(sess, "auth failed")
		return
	}
	if err := sess.Authenticate(id); err != nil {
		log.Warn().Err(err).Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("repeated auth ignored")
		return
	}

	metrics.AuthSuccess.Inc()
	metrics.AuthenticatedUsers.Inc()
	log.Info().
		Str("module", "orch").
		Int64("sid", int64(sess.ID())).
		Str("username", sess.Username()).
		Str("uid", sess.ExternalID()).
		Int("clients", o.Registry.Len()).
		Msg("authenticated")

	o.send(sess, core.Message{Command: core.CmdSelfInfo, Data: sess.View()})
	o.send(sess, core.Message{Command: core.CmdSetRooms, Data: o.roomViews()})
	o.broadcast(core.Message{Command: core.CmdSetUsers, Data: o.userViews()})
}
