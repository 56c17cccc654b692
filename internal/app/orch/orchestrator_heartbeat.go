package orch

import (
	"context"
	"time"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

// RunHeartbeat sweeps every interval until ctx is done.
func (o *Orchestrator) RunHeartbeat(ctx context.Context) error {
	ticker := time.NewTicker(o.opts.HeartbeatInterval)
	defer ticker.Stop()

	log.Info().Str("module", "orch").Dur("interval", o.opts.HeartbeatInterval).Msg("heartbeat started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch").Msg("heartbeat stopped")
			return nil
		case <-ticker.C:
			o.Sweep()
		}
	}
}

// Sweep evicts sessions silent for more than three intervals and pings the rest.
func (o *Orchestrator) Sweep() {
	o.lock()
	defer o.unlock()

	now := o.now()
	grace := heartbeatGraceRounds * o.opts.HeartbeatInterval
	for _, sess := range o.Registry.Connected() {
		if sess.Unresponsive(now, grace) {
			metrics.HeartbeatEvictions.Inc()
			o.kick(sess, "heartbeat timeout")
			continue
		}
		sess.MarkPingSent()
		o.send(sess, core.Message{Command: core.CmdPing})
	}
}
