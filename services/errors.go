package services

import "errors"

var (
	// ErrAggregationConflict means the optimistic-retry budget was
	// exhausted while updating an entity's rating state.
	ErrAggregationConflict = errors.New("aggregation retry budget exhausted")
	// ErrRoomArchived rejects appends to a read-only room.
	ErrRoomArchived = errors.New("room is archived")
	// ErrInvalidRange covers ratings outside 1-5 and budget min > max.
	ErrInvalidRange = errors.New("value out of range")
	// ErrUnauthorized means the caller identity does not match the
	// resource owner.
	ErrUnauthorized = errors.New("caller is not authorized")
)
