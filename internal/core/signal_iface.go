package core

import "errors"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Frame is one serialized protocol message.
type Frame []byte

// SignalConnection is the outbound side of a client's messaging transport.
// It is owned by the adapter, which must Close() it.
// TrySend must never block; it returns ErrBackpressure when the outbound
// buffer is full and ErrConnClosed after Close.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
