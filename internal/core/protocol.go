package core

import (
	"encoding/json"
	"errors"
)

// Command is the closed set of protocol message kinds.
type Command string

// Inbound (client -> relay).
const (
	CmdAuth       Command = "auth"
	CmdPong       Command = "pong"
	CmdGetUsers   Command = "getUsers"
	CmdCreateRoom Command = "createRoom"
	CmdDeleteRoom Command = "deleteRoom"
	CmdJoinRoom   Command = "joinRoom"
	CmdWebRTC     Command = "webrtc"
)

// Outbound (relay -> client). CmdWebRTC is also relayed outbound.
const (
	CmdServerInfo Command = "serverInfo"
	CmdPing       Command = "ping"
	CmdSelfInfo   Command = "selfInfo"
	CmdSetRooms   Command = "setRooms"
	CmdSetUsers   Command = "setUsers"
	CmdUsers      Command = "users"
	CmdError      Command = "error"
)

var inbound = map[Command]struct{}{
	CmdAuth:       {},
	CmdPong:       {},
	CmdGetUsers:   {},
	CmdCreateRoom: {},
	CmdDeleteRoom: {},
	CmdJoinRoom:   {},
	CmdWebRTC:     {},
}

// IsInbound reports whether clients are allowed to send c.
func (c Command) IsInbound() bool {
	_, ok := inbound[c]
	return ok
}

var (
	ErrBadEnvelope    = errors.New("malformed message")
	ErrMissingCommand = errors.New("missing command")
)

// Envelope is the parsed shape of every inbound message.
// Raw keeps the original bytes for verbatim relaying.
type Envelope struct {
	Command Command         `json:"command"`
	Data    json.RawMessage `json:"data,omitempty"`
	To      *SessionID      `json:"to,omitempty"`

	Raw []byte `json:"-"`
}

// ParseEnvelope decodes one inbound message. It only fails on malformed JSON
// or an absent command; unknown commands are left to the dispatcher.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Join(ErrBadEnvelope, err)
	}
	if env.Command == "" {
		return nil, ErrMissingCommand
	}
	env.Raw = raw
	return &env, nil
}

// Message is an outbound protocol message.
type Message struct {
	Command Command    `json:"command"`
	Data    any        `json:"data,omitempty"`
	To      *SessionID `json:"to,omitempty"`
}

// ErrorType values observed by clients.
type ErrorType string

const (
	ErrTypeTooManyRooms  ErrorType = "errTooManyRooms"
	ErrTypePermission    ErrorType = "err"
	ErrTypeNotInSameRoom ErrorType = "errNotInTheSameRoom"
)

const (
	msgTooManyRooms     = "Too many rooms!"
	msgPermissionDenied = "Permission denied!"
	msgNotInSameRoom    = "Only allowed to send WebRTC signals to users in the same room!"
)

type ErrorData struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
}

// ErrorMessage builds the structured error reply for t.
func ErrorMessage(t ErrorType) Message {
	var text string
	switch t {
	case ErrTypeTooManyRooms:
		text = msgTooManyRooms
	case ErrTypePermission:
		text = msgPermissionDenied
	case ErrTypeNotInSameRoom:
		text = msgNotInSameRoom
	}
	return Message{Command: CmdError, Data: ErrorData{Type: t, Message: text}}
}

// Payloads of inbound commands.
type (
	CreateRoomData struct {
		Name string `json:"name"`
	}
	DeleteRoomData struct {
		RoomUID string `json:"roomUid"`
	}
	JoinRoomData struct {
		RoomID string `json:"roomId"`
	}
)

// StampFrom re-encodes a relayed message with "from" set to sid,
// leaving every other field untouched.
func StampFrom(raw []byte, sid SessionID) (Frame, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	from, err := json.Marshal(sid)
	if err != nil {
		return nil, err
	}
	fields["from"] = from
	return json.Marshal(fields)
}
