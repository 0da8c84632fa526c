package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BitBlock9310/BachelorBuddy/logger"
	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/services"
	"github.com/BitBlock9310/BachelorBuddy/storage"
	"github.com/BitBlock9310/BachelorBuddy/storage/inmemory"
)

func newSequencerFixture(t *testing.T) (*services.Sequencer, *inmemory.Store, *models.ChatRoom, *services.MemoryBus) {
	t.Helper()
	store := inmemory.New()
	room := &models.ChatRoom{Type: "direct"}
	require.NoError(t, store.CreateRoom(context.Background(), room))
	bus := services.NewMemoryBus()
	seq := services.NewSequencer(store, services.NewMemoryDedupStore(), bus, logger.NewNop())
	return seq, store, room, bus
}

func TestAppendAssignsContiguousSequence(t *testing.T) {
	seq, _, room, _ := newSequencerFixture(t)
	ctx := context.Background()
	sender := uuid.New()

	for i := 1; i <= 3; i++ {
		msg, dup, err := seq.AppendMessage(ctx, room.ID, sender, "hello", nil, "")
		require.NoError(t, err)
		assert.False(t, dup)
		assert.Equal(t, int64(i), msg.Seq)
	}
}

func TestConcurrentAppendsAreGapFree(t *testing.T) {
	seq, _, room, _ := newSequencerFixture(t)
	ctx := context.Background()

	const senders = 50
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := seq.AppendMessage(ctx, room.ID, uuid.New(), "msg", nil, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs, err := seq.Replay(ctx, room.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, senders)
	for i, m := range msgs {
		assert.Equal(t, int64(i+1), m.Seq, "sequence must be 1..n with no gaps")
	}
}

func TestIdempotentRetryReturnsOriginal(t *testing.T) {
	seq, _, room, _ := newSequencerFixture(t)
	ctx := context.Background()
	sender := uuid.New()

	first, dup, err := seq.AppendMessage(ctx, room.ID, sender, "pay me back", nil, "token-1")
	require.NoError(t, err)
	require.False(t, dup)

	retry, dup, err := seq.AppendMessage(ctx, room.ID, sender, "pay me back", nil, "token-1")
	require.NoError(t, err)
	assert.True(t, dup)
	assert.Equal(t, first.ID, retry.ID)
	assert.Equal(t, first.Seq, retry.Seq)

	msgs, err := seq.Replay(ctx, room.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 1, "retry must not create a second message")
}

func TestSameTokenDifferentRoomsIsNotADuplicate(t *testing.T) {
	seq, store, room, _ := newSequencerFixture(t)
	ctx := context.Background()
	other := &models.ChatRoom{Type: "direct"}
	require.NoError(t, store.CreateRoom(ctx, other))
	sender := uuid.New()

	_, dup, err := seq.AppendMessage(ctx, room.ID, sender, "a", nil, "token-1")
	require.NoError(t, err)
	require.False(t, dup)

	_, dup, err = seq.AppendMessage(ctx, other.ID, sender, "a", nil, "token-1")
	require.NoError(t, err)
	assert.False(t, dup, "tokens are scoped to a room")
}

func TestArchivedRoomRejectsWithoutConsumingSeq(t *testing.T) {
	seq, _, room, _ := newSequencerFixture(t)
	ctx := context.Background()
	sender := uuid.New()

	_, _, err := seq.AppendMessage(ctx, room.ID, sender, "before", nil, "")
	require.NoError(t, err)

	require.NoError(t, seq.ArchiveRoom(ctx, room.ID))

	_, _, err = seq.AppendMessage(ctx, room.ID, sender, "after", nil, "")
	assert.ErrorIs(t, err, services.ErrRoomArchived)

	msgs, err := seq.Replay(ctx, room.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(1), msgs[0].Seq)
}

// archiveRacingStore simulates another replica taking the sequence
// position and archiving the room between our read and append.
type archiveRacingStore struct {
	*inmemory.Store
	raced bool
}

func (s *archiveRacingStore) AppendChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	if !s.raced {
		s.raced = true
		if err := s.Store.SetRoomArchived(ctx, msg.RoomID, true); err != nil {
			return err
		}
		return storage.ErrVersionConflict
	}
	return s.Store.AppendChatMessage(ctx, msg)
}

func TestAppendRejectsRoomArchivedDuringRetry(t *testing.T) {
	store := &archiveRacingStore{Store: inmemory.New()}
	ctx := context.Background()
	room := &models.ChatRoom{Type: "direct"}
	require.NoError(t, store.CreateRoom(ctx, room))
	seq := services.NewSequencer(store, services.NewMemoryDedupStore(), services.NewMemoryBus(), logger.NewNop())

	_, _, err := seq.AppendMessage(ctx, room.ID, uuid.New(), "late", nil, "")
	assert.ErrorIs(t, err, services.ErrRoomArchived)

	msgs, err := store.MessagesAfter(ctx, room.ID, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs, "an archived room must not accept the retried append")
}

func TestReplayAfterSeq(t *testing.T) {
	seq, _, room, _ := newSequencerFixture(t)
	ctx := context.Background()
	sender := uuid.New()

	for i := 0; i < 5; i++ {
		_, _, err := seq.AppendMessage(ctx, room.ID, sender, "m", nil, "")
		require.NoError(t, err)
	}

	msgs, err := seq.Replay(ctx, room.ID, 3, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, int64(4), msgs[0].Seq)
	assert.Equal(t, int64(5), msgs[1].Seq)
}

func TestAcceptedMessagesReachSubscribers(t *testing.T) {
	seq, _, room, bus := newSequencerFixture(t)
	ctx := context.Background()

	ch, cancel := bus.Subscribe(room.ID)
	defer cancel()

	sent, _, err := seq.AppendMessage(ctx, room.ID, uuid.New(), "live", nil, "")
	require.NoError(t, err)

	got := <-ch
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, sent.Seq, got.Seq)
}

func TestMemoryDedupExpiry(t *testing.T) {
	store := inmemory.New()
	ctx := context.Background()
	room := &models.ChatRoom{Type: "direct"}
	require.NoError(t, store.CreateRoom(ctx, room))

	dedup := services.NewMemoryDedupStore()
	msg := &models.ChatMessage{ID: uuid.New(), RoomID: room.ID, Seq: 1}
	require.NoError(t, dedup.Put(ctx, room.ID, "tok", msg, -1))

	_, ok, err := dedup.Get(ctx, room.ID, "tok")
	require.NoError(t, err)
	assert.False(t, ok, "expired token must be a miss")
}
