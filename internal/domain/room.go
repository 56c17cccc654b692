package domain

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxRoomNameLen = 64

var ErrRoomNameEmpty = errors.New("room name empty")

type (
	RoomName string
	RoomID   string
)

// NewRoomID returns a random (v4, 122 bits of entropy) identifier.
func NewRoomID() RoomID {
	return RoomID(uuid.NewString())
}

// NewRoomName trims the raw name and cuts it to MaxRoomNameLen runes.
func NewRoomName(raw string) (RoomName, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrRoomNameEmpty
	}
	if utf8.RuneCountInString(raw) > MaxRoomNameLen {
		raw = string([]rune(raw)[:MaxRoomNameLen])
	}
	return RoomName(raw), nil
}

// Room is room meta. OwnerUID is the creator's external identity and may be empty.
type Room struct {
	ID       RoomID
	Name     RoomName
	OwnerID  int64
	OwnerUID string
}

// RoomView is the wire representation of a room broadcast in setRooms.
type RoomView struct {
	UID      RoomID     `json:"uid"`
	Name     RoomName   `json:"name"`
	OwnerID  int64      `json:"ownerId"`
	OwnerUID *string    `json:"ownerUid"`
	Users    []UserView `json:"users"`
}
