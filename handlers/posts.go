package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/storage"
)

// CreatePost publishes a community post by the caller.
func (h *Handler) CreatePost(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		Title     string   `json:"title" binding:"required"`
		Content   string   `json:"content" binding:"required"`
		Category  string   `json:"category"`
		Tags      []string `json:"tags"`
		College   *string  `json:"college"`
		BatchYear *int     `json:"batch_year"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.Category == "" {
		req.Category = "general"
	}

	post := &models.CommunityPost{
		AuthorID:  caller,
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		Tags:      pq.StringArray(req.Tags),
		College:   req.College,
		BatchYear: req.BatchYear,
	}
	if err := h.store.CreatePost(c.Request.Context(), post); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GetPost returns one post.
func (h *Handler) GetPost(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	post, err := h.store.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// ListPosts returns posts filtered by category and college.
func (h *Handler) ListPosts(c *gin.Context) {
	limit, offset := paginationParams(c)
	filter := storage.PostFilter{
		Category:        c.Query("category"),
		College:         c.Query("college"),
		IncludeArchived: c.Query("include_archived") == "true",
		Limit:           limit,
		Offset:          offset,
	}

	posts, err := h.store.QueryPosts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// VotePost records an up or down vote on a post.
func (h *Handler) VotePost(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Direction != "up" && req.Direction != "down") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be up or down"})
		return
	}

	if err := h.store.VotePost(c.Request.Context(), id, req.Direction == "up"); err != nil {
		respondError(c, err)
		return
	}
	post, err := h.store.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreateComment adds a comment to a post, optionally nested under a
// parent comment.
func (h *Handler) CreateComment(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Content  string  `json:"content" binding:"required"`
		ParentID *string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	comment := &models.PostComment{
		PostID:   postID,
		AuthorID: caller,
		Content:  req.Content,
	}
	if req.ParentID != nil {
		parentID, err := uuid.Parse(*req.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent_id"})
			return
		}
		comment.ParentID = &parentID
	}

	if err := h.store.CreateComment(c.Request.Context(), comment); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments returns a post's comments, oldest first.
func (h *Handler) ListComments(c *gin.Context) {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	limit, offset := paginationParams(c)

	comments, err := h.store.CommentsForPost(c.Request.Context(), postID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// VoteComment records an up or down vote on a comment.
func (h *Handler) VoteComment(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := parseIDParam(c, "comment_id")
	if !ok {
		return
	}

	var req struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || (req.Direction != "up" && req.Direction != "down") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be up or down"})
		return
	}

	if err := h.store.VoteComment(c.Request.Context(), id, req.Direction == "up"); err != nil {
		respondError(c, err)
		return
	}
	comment, err := h.store.GetComment(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
