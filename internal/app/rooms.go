package app

import (
	"slices"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/rs/zerolog/log"
)

// RoomRegistry maps room ids to rooms and keeps creation order for display.
// Callers serialize access.
type RoomRegistry struct {
	rooms map[domain.RoomID]*core.Room
	order []domain.RoomID
	newID func() domain.RoomID
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms: make(map[domain.RoomID]*core.Room),
		newID: domain.NewRoomID,
	}
}

// Create registers an empty room owned by owner; the owner joins separately.
func (f *RoomRegistry) Create(name domain.RoomName, owner *core.Session) *core.Room {
	id := f.newID()
	for _, taken := f.rooms[id]; taken; _, taken = f.rooms[id] {
		id = f.newID()
	}
	room := core.NewRoom(domain.Room{
		ID:       id,
		Name:     name,
		OwnerID:  int64(owner.ID()),
		OwnerUID: owner.ExternalID(),
	})
	f.rooms[id] = room
	f.order = append(f.order, id)
	log.Info().Str("module", "app.rooms").Str("room_id", string(id)).Str("name", string(name)).Int64("owner", int64(owner.ID())).Msg("room created")
	return room
}

func (f *RoomRegistry) Delete(id domain.RoomID) {
	if _, ok := f.rooms[id]; !ok {
		return
	}
	delete(f.rooms, id)
	f.order = slices.DeleteFunc(f.order, func(r domain.RoomID) bool { return r == id })
	log.Info().Str("module", "app.rooms").Str("room_id", string(id)).Msg("room deleted")
}

func (f *RoomRegistry) Get(id domain.RoomID) (*core.Room, bool) {
	room, ok := f.rooms[id]
	return room, ok
}

// FindByMember scans for the room containing sid.
func (f *RoomRegistry) FindByMember(sid core.SessionID) (*core.Room, bool) {
	for _, id := range f.order {
		if room := f.rooms[id]; room.Has(sid) {
			return room, true
		}
	}
	return nil, false
}

// CountOwnedBy scans for rooms the session (or its identity) owns.
func (f *RoomRegistry) CountOwnedBy(s *core.Session) int {
	n := 0
	for _, room := range f.rooms {
		if room.OwnedBy(s) {
			n++
		}
	}
	return n
}

func (f *RoomRegistry) Len() int { return len(f.rooms) }

// List returns rooms in creation order.
func (f *RoomRegistry) List() []*core.Room {
	out := make([]*core.Room, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.rooms[id])
	}
	return out
}

// Serialize produces the setRooms payload; never nil.
func (f *RoomRegistry) Serialize(lookup core.SessionLookup) []domain.RoomView {
	out := make([]domain.RoomView, 0, len(f.order))
	for _, room := range f.List() {
		out = append(out, room.View(lookup))
	}
	return out
}
