package app

import (
	"maps"
	"slices"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/rs/zerolog/log"
)

// Registry holds every connected session. The authenticated subset is the
// relay's user set: it is what presence lists and room views are built from.
// Callers serialize access.
type Registry struct {
	sessions map[core.SessionID]*core.Session
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*core.Session),
	}
}

func (r *Registry) Bind(sess *core.Session) {
	r.sessions[sess.ID()] = sess
	log.Debug().Str("module", "app.registry").Int64("sid", int64(sess.ID())).Msg("bound session")
}

// Unbind removes sid and returns the removed session, if any.
func (r *Registry) Unbind(sid core.SessionID) (*core.Session, bool) {
	sess, ok := r.sessions[sid]
	if !ok {
		return nil, false
	}
	delete(r.sessions, sid)
	log.Debug().Str("module", "app.registry").Int64("sid", int64(sid)).Msg("unbind session")
	return sess, true
}

func (r *Registry) GetSession(sid core.SessionID) (*core.Session, bool) {
	sess, ok := r.sessions[sid]
	return sess, ok
}

// Lookup resolves sid among authenticated sessions only.
func (r *Registry) Lookup(sid core.SessionID) (*core.Session, bool) {
	sess, ok := r.sessions[sid]
	if !ok || !sess.Authenticated() {
		return nil, false
	}
	return sess, true
}

// Connected returns every session in id order.
func (r *Registry) Connected() []*core.Session {
	ids := slices.Sorted(maps.Keys(r.sessions))
	out := make([]*core.Session, 0, len(ids))
	for _, sid := range ids {
		out = append(out, r.sessions[sid])
	}
	return out
}

// Users returns authenticated sessions in id order.
func (r *Registry) Users() []*core.Session {
	out := make([]*core.Session, 0, len(r.sessions))
	for _, sess := range r.Connected() {
		if sess.Authenticated() {
			out = append(out, sess)
		}
	}
	return out
}

func (r *Registry) Len() int { return len(r.sessions) }
