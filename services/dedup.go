package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/BitBlock9310/BachelorBuddy/models"
)

// DedupStore remembers which (room, idempotency token) pairs already
// produced a message, within a bounded retention window.
type DedupStore interface {
	Get(ctx context.Context, roomID uuid.UUID, token string) (*models.ChatMessage, bool, error)
	Put(ctx context.Context, roomID uuid.UUID, token string, msg *models.ChatMessage, ttl time.Duration) error
}

// === In-memory implementation ===

type memoryDedupEntry struct {
	msg     *models.ChatMessage
	expires time.Time
}

type MemoryDedupStore struct {
	mu      sync.Mutex
	entries map[string]memoryDedupEntry
}

func NewMemoryDedupStore() *MemoryDedupStore {
	return &MemoryDedupStore{entries: make(map[string]memoryDedupEntry)}
}

func dedupKey(roomID uuid.UUID, token string) string {
	return roomID.String() + ":" + token
}

func (d *MemoryDedupStore) Get(ctx context.Context, roomID uuid.UUID, token string) (*models.ChatMessage, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := dedupKey(roomID, token)
	entry, ok := d.entries[key]
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expires) {
		delete(d.entries, key)
		return nil, false, nil
	}
	return entry.msg, true, nil
}

func (d *MemoryDedupStore) Put(ctx context.Context, roomID uuid.UUID, token string, msg *models.ChatMessage, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Opportunistically drop expired entries so the map stays bounded.
	now := time.Now()
	for k, e := range d.entries {
		if now.After(e.expires) {
			delete(d.entries, k)
		}
	}
	d.entries[dedupKey(roomID, token)] = memoryDedupEntry{msg: msg, expires: now.Add(ttl)}
	return nil
}

// === Redis implementation ===

// RedisDedupStore keeps idempotency records in redis so retried appends
// are recognized across server restarts and replicas.
type RedisDedupStore struct {
	rdb *goredis.Client
}

func NewRedisDedupStore(rdb *goredis.Client) *RedisDedupStore {
	return &RedisDedupStore{rdb: rdb}
}

func redisDedupKey(roomID uuid.UUID, token string) string {
	return fmt.Sprintf("chat:dedup:%s:%s", roomID, token)
}

func (d *RedisDedupStore) Get(ctx context.Context, roomID uuid.UUID, token string) (*models.ChatMessage, bool, error) {
	raw, err := d.rdb.Get(ctx, redisDedupKey(roomID, token)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var msg models.ChatMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false, fmt.Errorf("bad dedup payload: %w", err)
	}
	return &msg, true, nil
}

func (d *RedisDedupStore) Put(ctx context.Context, roomID uuid.UUID, token string, msg *models.ChatMessage, ttl time.Duration) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return d.rdb.Set(ctx, redisDedupKey(roomID, token), raw, ttl).Err()
}
