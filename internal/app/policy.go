package app

import "github.com/dkeye/VoiceRelay/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

func (a BackpressureAction) String() string {
	switch a {
	case KickMember:
		return "kick"
	case DropFrame:
		return "drop"
	default:
		return "none"
	}
}

// Policy decides what happens to a session whose outbound buffer is full.
type Policy interface {
	OnBackPressure(sess *core.Session) BackpressureAction
}

// SimplePolicy kicks slow consumers; the close triggers normal cleanup.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(*core.Session) BackpressureAction {
	return KickMember
}
