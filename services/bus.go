package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/BitBlock9310/BachelorBuddy/logger"
	"github.com/BitBlock9310/BachelorBuddy/models"
)

// MessageBus fans accepted chat messages out to live readers (the
// websocket stream). Delivery here is best-effort; the durable record is
// always the store, which readers catch up from by sequence position.
type MessageBus interface {
	Publish(ctx context.Context, msg *models.ChatMessage) error
	// Subscribe returns a channel of messages for one room and a cancel
	// function that must be called when the reader goes away.
	Subscribe(roomID uuid.UUID) (<-chan *models.ChatMessage, func())
}

// === In-process implementation ===

type MemoryBus struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[int]chan *models.ChatMessage
	next int
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[uuid.UUID]map[int]chan *models.ChatMessage)}
}

func (b *MemoryBus) Publish(ctx context.Context, msg *models.ChatMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs[msg.RoomID] {
		select {
		case ch <- msg:
		default:
			// Slow reader; it will catch up via replay.
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(roomID uuid.UUID) (<-chan *models.ChatMessage, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *models.ChatMessage, 32)
	if b.subs[roomID] == nil {
		b.subs[roomID] = make(map[int]chan *models.ChatMessage)
	}
	id := b.next
	b.next++
	b.subs[roomID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[roomID][id]; ok {
			delete(b.subs[roomID], id)
			close(sub)
		}
	}
	return ch, cancel
}

// === Redis pub/sub implementation ===

// RedisBus publishes accepted messages to a per-room redis channel so
// every server replica can feed its own websocket readers.
type RedisBus struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewRedisBus(rdb *goredis.Client, log *logger.Logger) *RedisBus {
	return &RedisBus{rdb: rdb, log: log.With("service", "redis-bus")}
}

func roomChannel(roomID uuid.UUID) string {
	return fmt.Sprintf("chat:room:%s", roomID)
}

func (b *RedisBus) Publish(ctx context.Context, msg *models.ChatMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, roomChannel(msg.RoomID), raw).Err()
}

func (b *RedisBus) Subscribe(roomID uuid.UUID) (<-chan *models.ChatMessage, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sub := b.rdb.Subscribe(ctx, roomChannel(roomID))
	out := make(chan *models.ChatMessage, 32)

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg models.ChatMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad bus payload", "room_id", roomID, "error", err)
					continue
				}
				select {
				case out <- &msg:
				default:
				}
			}
		}
	}()

	return out, func() { cancel() }
}
