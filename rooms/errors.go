package rooms

import "errors"

var (
	ErrNotFound       = errors.New("rooms: not found")
	ErrAlreadyMember  = errors.New("rooms: user is already a member of this room")
	ErrRequestPending = errors.New("rooms: a join request is already pending")
	ErrInvalidRole    = errors.New("rooms: invalid role")
	ErrNotOwner       = errors.New("rooms: requires the OWNER role")
)
