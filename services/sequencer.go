package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BitBlock9310/BachelorBuddy/logger"
	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/storage"
)

const (
	// maxAppendAttempts bounds retries when another writer advanced the
	// room's sequence between our read and append.
	maxAppendAttempts = 5
	// DefaultDedupRetention is how long an idempotency token is
	// remembered. Retries after this window may create duplicates.
	DefaultDedupRetention = 24 * time.Hour
)

// Sequencer assigns a gap-free, strictly increasing sequence position to
// every message accepted into a room. Appends for one room are
// serialized on a per-room lock; rooms never contend with each other.
type Sequencer struct {
	store     storage.Store
	dedup     DedupStore
	bus       MessageBus
	log       *logger.Logger
	retention time.Duration

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewSequencer(store storage.Store, dedup DedupStore, bus MessageBus, log *logger.Logger) *Sequencer {
	return &Sequencer{
		store:     store,
		dedup:     dedup,
		bus:       bus,
		log:       log.With("service", "sequencer"),
		retention: DefaultDedupRetention,
		locks:     make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Sequencer) roomLock(roomID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomID] = l
	}
	return l
}

// AppendMessage durably persists a message and returns it with its
// assigned sequence position. The duplicate flag is true when the
// idempotency token was seen before; the original message is returned
// unchanged and no new message is created. Archived rooms reject the
// append before any sequence position is consumed.
func (s *Sequencer) AppendMessage(ctx context.Context, roomID, senderID uuid.UUID, content string, metadata models.JSONMap, idempotencyToken string) (*models.ChatMessage, bool, error) {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()

	if idempotencyToken != "" {
		if orig, ok, err := s.dedup.Get(ctx, roomID, idempotencyToken); err != nil {
			s.log.Warn("dedup lookup failed", "room_id", roomID, "error", err)
		} else if ok {
			return orig, true, nil
		}
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, false, err
	}
	if room.IsArchived {
		return nil, false, fmt.Errorf("%w: %s", ErrRoomArchived, roomID)
	}

	msg := &models.ChatMessage{
		ID:       uuid.New(),
		RoomID:   roomID,
		SenderID: senderID,
		Content:  content,
		Metadata: metadata,
	}

	for attempt := 0; ; attempt++ {
		msg.Seq = room.LastSeq + 1
		err = s.store.AppendChatMessage(ctx, msg)
		if err == nil {
			break
		}
		// Another process advanced the sequence; re-read and retry. The
		// room may also have been archived by another replica in the
		// meantime, so the archived check repeats on the fresh read.
		if errors.Is(err, storage.ErrVersionConflict) && attempt < maxAppendAttempts-1 {
			room, err = s.store.GetRoom(ctx, roomID)
			if err != nil {
				return nil, false, err
			}
			if room.IsArchived {
				return nil, false, fmt.Errorf("%w: %s", ErrRoomArchived, roomID)
			}
			continue
		}
		return nil, false, err
	}

	if idempotencyToken != "" {
		if err := s.dedup.Put(ctx, roomID, idempotencyToken, msg, s.retention); err != nil {
			s.log.Warn("dedup record failed", "room_id", roomID, "error", err)
		}
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, msg); err != nil {
			s.log.Warn("message publish failed", "room_id", roomID, "seq", msg.Seq, "error", err)
		}
	}
	return msg, false, nil
}

// Replay returns the room's messages with seq > afterSeq, in sequence
// order.
func (s *Sequencer) Replay(ctx context.Context, roomID uuid.UUID, afterSeq int64, limit int) ([]*models.ChatMessage, error) {
	return s.store.MessagesAfter(ctx, roomID, afterSeq, limit)
}

// ArchiveRoom makes the room read-only. Pending appends that already
// hold the room lock complete first.
func (s *Sequencer) ArchiveRoom(ctx context.Context, roomID uuid.UUID) error {
	lock := s.roomLock(roomID)
	lock.Lock()
	defer lock.Unlock()
	return s.store.SetRoomArchived(ctx, roomID, true)
}
