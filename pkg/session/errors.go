package session

import "errors"

var (
	// ErrSlotOutOfRange is returned for an animation key outside 0..9.
	ErrSlotOutOfRange = errors.New("session: animation slot out of range")

	// ErrIndexOutOfRange is returned for an index outside the animation catalog.
	ErrIndexOutOfRange = errors.New("session: animation index out of range")
)
