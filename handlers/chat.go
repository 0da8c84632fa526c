package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/BitBlock9310/BachelorBuddy/models"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// CreateRoom opens a new chat room.
func (h *Handler) CreateRoom(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		Type     string         `json:"type"`
		Metadata models.JSONMap `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Type == "" {
		req.Type = "direct"
	}

	room := &models.ChatRoom{Type: req.Type, Metadata: req.Metadata}
	if err := h.store.CreateRoom(c.Request.Context(), room); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// GetRoom returns one chat room.
func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	room, err := h.store.GetRoom(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// ArchiveRoom makes a room read-only. Further sends are rejected.
func (h *Handler) ArchiveRoom(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.sequencer.ArchiveRoom(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"archived": true})
}

// SendMessage appends a message to a room. Clients retry safely by
// resending with the same X-Idempotency-Key header; a replayed send
// returns the original message with a duplicate marker instead of
// creating a second copy.
func (h *Handler) SendMessage(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content  string         `json:"content" binding:"required"`
		Metadata models.JSONMap `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	token := c.GetHeader("X-Idempotency-Key")

	msg, duplicate, err := h.sequencer.AppendMessage(c.Request.Context(), roomID, caller, req.Content, req.Metadata, token)
	if err != nil {
		respondError(c, err)
		return
	}
	if duplicate {
		c.JSON(http.StatusOK, gin.H{"message": msg, "duplicate": true})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "duplicate": false})
}

// GetMessages replays a room's messages after a sequence position, in
// order. Clients pass the last seq they have seen to fetch exactly what
// they missed.
func (h *Handler) GetMessages(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetRoom(c.Request.Context(), roomID); err != nil {
		respondError(c, err)
		return
	}

	var afterSeq int64
	if raw := c.Query("after_seq"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid after_seq"})
			return
		}
		afterSeq = v
	}
	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	msgs, err := h.sequencer.Replay(c.Request.Context(), roomID, afterSeq, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// StreamMessages upgrades to a websocket and pushes new messages for
// one room as they are accepted. The client sends after_seq to first
// catch up from the durable log, so the switch from replay to live
// delivery never drops a position.
func (h *Handler) StreamMessages(c *gin.Context) {
	roomID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetRoom(c.Request.Context(), roomID); err != nil {
		respondError(c, err)
		return
	}

	var afterSeq int64
	if raw := c.Query("after_seq"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v >= 0 {
			afterSeq = v
		}
	}

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "room_id", roomID, "error", err)
		return
	}
	defer conn.Close()

	// Subscribe before replaying so nothing published during the replay
	// is missed; duplicates are filtered below by seq.
	live, cancel := h.bus.Subscribe(roomID)
	defer cancel()

	backlog, err := h.sequencer.Replay(c.Request.Context(), roomID, afterSeq, 500)
	if err != nil {
		h.log.Warn("stream replay failed", "room_id", roomID, "error", err)
		return
	}
	lastSeq := afterSeq
	for _, msg := range backlog {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
		lastSeq = msg.Seq
	}

	// Drain client frames so pings and closes are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-live:
			if !ok {
				return
			}
			if msg.Seq <= lastSeq {
				continue
			}
			// A gap means the bus dropped something; refill from the log.
			if msg.Seq > lastSeq+1 {
				missed, err := h.sequencer.Replay(c.Request.Context(), roomID, lastSeq, 500)
				if err != nil {
					h.log.Warn("stream catch-up failed", "room_id", roomID, "error", err)
					return
				}
				for _, m := range missed {
					if m.Seq >= msg.Seq {
						break
					}
					if err := conn.WriteJSON(m); err != nil {
						return
					}
					lastSeq = m.Seq
				}
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			lastSeq = msg.Seq
		}
	}
}
