package core

import (
	"slices"

	"github.com/dkeye/VoiceRelay/internal/domain"
)

// Room is an in-memory group of sessions referenced by id.
// It never owns sessions or transport resources, and it is not safe for
// concurrent use: the orchestrator is its only mutator.
type Room struct {
	room    domain.Room
	members []SessionID
	bySID   map[SessionID]struct{}
}

func NewRoom(room domain.Room) *Room {
	return &Room{
		room:  room,
		bySID: make(map[SessionID]struct{}),
	}
}

func (r *Room) Room() domain.Room { return r.room }
func (r *Room) ID() domain.RoomID { return r.room.ID }

func (r *Room) MemberCount() int { return len(r.members) }

func (r *Room) Has(sid SessionID) bool {
	_, ok := r.bySID[sid]
	return ok
}

// AddMember is a no-op for a session that is already a member.
func (r *Room) AddMember(sid SessionID) {
	if r.Has(sid) {
		return
	}
	r.bySID[sid] = struct{}{}
	r.members = append(r.members, sid)
}

func (r *Room) RemoveMember(sid SessionID) {
	if !r.Has(sid) {
		return
	}
	delete(r.bySID, sid)
	r.members = slices.DeleteFunc(r.members, func(m SessionID) bool { return m == sid })
}

// Members returns member ids in join order.
func (r *Room) Members() []SessionID {
	return slices.Clone(r.members)
}

// OwnedBy matches the creating session or, when known, the creator's
// external identity so ownership survives reconnects.
func (r *Room) OwnedBy(s *Session) bool {
	if SessionID(r.room.OwnerID) == s.ID() {
		return true
	}
	return r.room.OwnerUID != "" && r.room.OwnerUID == s.ExternalID()
}

// SessionLookup resolves a member id to a live session.
type SessionLookup func(SessionID) (*Session, bool)

// View serializes the room. Members without a live session are skipped.
func (r *Room) View(lookup SessionLookup) domain.RoomView {
	users := make([]domain.UserView, 0, len(r.members))
	for _, sid := range r.members {
		if s, ok := lookup(sid); ok {
			users = append(users, s.View())
		}
	}
	v := domain.RoomView{
		UID:     r.room.ID,
		Name:    r.room.Name,
		OwnerID: r.room.OwnerID,
		Users:   users,
	}
	if r.room.OwnerUID != "" {
		uid := r.room.OwnerUID
		v.OwnerUID = &uid
	}
	return v
}
