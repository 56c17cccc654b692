// Package orch is the connection broker: it owns every session and room and
// routes protocol messages between them.
package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/VoiceRelay/internal/app"
	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/metrics"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const (
	DefaultHeartbeatInterval = 10 * time.Second
	DefaultMaxRoomsPerUser   = 2

	// missed pong rounds tolerated before eviction
	heartbeatGraceRounds = 3
)

type Options struct {
	Debug             bool
	AuthURL           string
	ICEServers        []webrtc.ICEServer
	MaxRoomsPerUser   int
	HeartbeatInterval time.Duration
}

type serverInfo struct {
	Debug      bool               `json:"debug"`
	AuthURL    string             `json:"authUrl"`
	ICEServers []webrtc.ICEServer `json:"iceServers"`
}

// Orchestrator serializes all state mutation behind one mutex. Sends
// never block, so holding the lock while sending is safe.
type Orchestrator struct {
	mu sync.Mutex

	Registry *app.Registry
	Rooms    *app.RoomRegistry
	Policy   app.Policy
	Verifier core.TokenVerifier

	opts   Options
	nextID int64
	kicked []*core.Session
	now    func() time.Time
}

func New(verifier core.TokenVerifier, policy app.Policy, opts Options) *Orchestrator {
	if opts.MaxRoomsPerUser <= 0 {
		opts.MaxRoomsPerUser = DefaultMaxRoomsPerUser
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.ICEServers == nil {
		opts.ICEServers = []webrtc.ICEServer{}
	}
	if policy == nil {
		policy = app.SimplePolicy{}
	}
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomRegistry(),
		Policy:   policy,
		Verifier: verifier,
		opts:     opts,
		now:      time.Now,
	}
}

func (o *Orchestrator) lock() { o.mu.Lock() }

// unlock reaps sessions kicked during the critical section, then releases.
func (o *Orchestrator) unlock() {
	o.reapLocked()
	o.mu.Unlock()
}

// Connect registers a fresh unauthenticated session and greets it.
func (o *Orchestrator) Connect(conn core.SignalConnection) *core.Session {
	o.lock()
	defer o.unlock()

	o.nextID++
	sess := core.NewSession(core.SessionID(o.nextID), conn, o.now())
	o.Registry.Bind(sess)
	metrics.ActiveConnections.Inc()
	metrics.TotalConnections.Inc()

	o.send(sess, core.Message{
		Command: core.CmdServerInfo,
		Data: serverInfo{
			Debug:      o.opts.Debug,
			AuthURL:    o.opts.AuthURL,
			ICEServers: o.opts.ICEServers,
		},
	})
	log.Info().Str("module", "orch").Int64("sid", int64(sess.ID())).Int("clients", o.Registry.Len()).Msg("connected")
	return sess
}

// Disconnect forgets the session. Safe to call more than once.
func (o *Orchestrator) Disconnect(sess *core.Session) {
	o.lock()
	defer o.unlock()
	o.disconnectLocked(sess)
}

// disconnectLocked drops sess from the session set. Room membership is left
// as is; room views skip sessions that are gone.
func (o *Orchestrator) disconnectLocked(sess *core.Session) {
	if _, ok := o.Registry.Unbind(sess.ID()); !ok {
		return
	}
	metrics.ActiveConnections.Dec()
	if !sess.Authenticated() {
		log.Debug().Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("anonymous session closed")
		return
	}
	metrics.AuthenticatedUsers.Dec()
	o.broadcast(core.Message{Command: core.CmdSetUsers, Data: o.userViews()})
	log.Info().Str("module", "orch").Int64("sid", int64(sess.ID())).Str("username", sess.Username()).Msg("disconnected")
}

// kick closes the transport; cleanup happens when the lock is released.
func (o *Orchestrator) kick(sess *core.Session, reason string) {
	if _, live := o.Registry.GetSession(sess.ID()); !live {
		return
	}
	log.Warn().Str("module", "orch").Int64("sid", int64(sess.ID())).Str("reason", reason).Msg("closing connection")
	sess.Close()
	o.kicked = append(o.kicked, sess)
}

func (o *Orchestrator) reapLocked() {
	for len(o.kicked) > 0 {
		sess := o.kicked[0]
		o.kicked = o.kicked[1:]
		o.disconnectLocked(sess)
	}
	o.kicked = nil
}

func (o *Orchestrator) send(sess *core.Session, msg core.Message) {
	o.afterSend(sess, sess.Send(msg))
}

// broadcast encodes msg once and enqueues it for every authenticated session.
func (o *Orchestrator) broadcast(msg core.Message) {
	frame, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("command", string(msg.Command)).Msg("broadcast marshal")
		return
	}
	for _, sess := range o.Registry.Users() {
		o.afterSend(sess, sess.SendFrame(frame))
	}
}

func (o *Orchestrator) afterSend(sess *core.Session, err error) {
	switch {
	case err == nil:
	case errors.Is(err, core.ErrBackpressure):
		action := o.Policy.OnBackPressure(sess)
		metrics.BackpressureEvents.WithLabelValues(action.String()).Inc()
		if action == app.KickMember {
			o.kick(sess, "backpressure")
		}
	default:
		// the close event that follows is authoritative
		log.Debug().Err(err).Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("send failed")
	}
}

func (o *Orchestrator) sendError(sess *core.Session, t core.ErrorType) {
	metrics.ErrorsSent.WithLabelValues(string(t)).Inc()
	o.send(sess, core.ErrorMessage(t))
}

func (o *Orchestrator) userViews() []domain.UserView {
	users := o.Registry.Users()
	out := make([]domain.UserView, 0, len(users))
	for _, sess := range users {
		out = append(out, sess.View())
	}
	return out
}

func (o *Orchestrator) roomViews() []domain.RoomView {
	return o.Rooms.Serialize(o.Registry.Lookup)
}

// RoomViews is a consistent snapshot of the room list.
func (o *Orchestrator) RoomViews() []domain.RoomView {
	o.lock()
	defer o.unlock()
	return o.roomViews()
}

type Stats struct {
	Connections   int `json:"connections"`
	Authenticated int `json:"authenticated"`
	Rooms         int `json:"rooms"`
}

func (o *Orchestrator) Stats() Stats {
	o.lock()
	defer o.unlock()
	return Stats{
		Connections:   o.Registry.Len(),
		Authenticated: len(o.Registry.Users()),
		Rooms:         o.Rooms.Len(),
	}
}
