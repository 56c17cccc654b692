package orch

import (
	"encoding/json"

	"github.com/dkeye/VoiceRelay/internal/core"
	"github.com/dkeye/VoiceRelay/internal/domain"
	"github.com/dkeye/VoiceRelay/internal/metrics"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) createRoomLocked(sess *core.Session, env *core.Envelope) {
	var data core.CreateRoomData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		log.Warn().Err(err).Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("bad createRoom payload")
		return
	}
	name, err := domain.NewRoomName(data.Name)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("bad room name")
		return
	}

	// check and create under the same lock
	if o.Rooms.CountOwnedBy(sess) >= o.opts.MaxRoomsPerUser {
		o.sendError(sess, core.ErrTypeTooManyRooms)
		return
	}
	o.Rooms.Create(name, sess)
	metrics.Rooms.Set(float64(o.Rooms.Len()))
	o.broadcastRooms()
}

func (o *Orchestrator) deleteRoomLocked(sess *core.Session, env *core.Envelope) {
	var data core.DeleteRoomData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		log.Warn().Err(err).Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("bad deleteRoom payload")
		return
	}
	room, ok := o.Rooms.Get(domain.RoomID(data.RoomUID))
	if !ok {
		log.Info().Str("module", "orch").Int64("sid", int64(sess.ID())).Str("room_id", data.RoomUID).Msg("deleteRoom: no such room")
		return
	}
	if !room.OwnedBy(sess) {
		o.sendError(sess, core.ErrTypePermission)
		return
	}
	o.Rooms.Delete(room.ID())
	metrics.Rooms.Set(float64(o.Rooms.Len()))
	o.broadcastRooms()
}

// joinRoomLocked leaves the current room first, even when the target
// does not exist.
func (o *Orchestrator) joinRoomLocked(sess *core.Session, env *core.Envelope) {
	var data core.JoinRoomData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		log.Warn().Err(err).Str("module", "orch").Int64("sid", int64(sess.ID())).Msg("bad joinRoom payload")
		return
	}
	if current, ok := o.Rooms.FindByMember(sess.ID()); ok {
		current.RemoveMember(sess.ID())
		log.Info().Str("module", "orch").Int64("sid", int64(sess.ID())).Str("from_room", string(current.ID())).Msg("left room")
	}
	room, ok := o.Rooms.Get(domain.RoomID(data.RoomID))
	if !ok {
		log.Info().Str("module", "orch").Int64("sid", int64(sess.ID())).Str("room_id", data.RoomID).Msg("joinRoom: no such room")
		return
	}
	room.AddMember(sess.ID())
	log.Info().Str("module", "orch").Int64("sid", int64(sess.ID())).Str("room", string(room.ID())).Msg("added to room")
	o.broadcastRooms()
}

func (o *Orchestrator) broadcastRooms() {
	o.broadcast(core.Message{Command: core.CmdSetRooms, Data: o.roomViews()})
}
