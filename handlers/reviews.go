package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/services"
)

// CreateReview submits a review for a listing or vendor. The rating is
// folded into the target's average by the aggregation service.
func (h *Handler) CreateReview(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		EntityType string   `json:"entity_type" binding:"required"`
		EntityID   string   `json:"entity_id" binding:"required"`
		Rating     int      `json:"rating" binding:"required"`
		Content    *string  `json:"content"`
		Images     []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.EntityType != models.EntityTypePGListing && req.EntityType != models.EntityTypeLocalVendor {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entity type"})
		return
	}
	entityID, err := uuid.Parse(req.EntityID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entity_id"})
		return
	}

	review := &models.Review{
		AuthorID:   caller,
		EntityType: req.EntityType,
		EntityID:   entityID,
		Rating:     req.Rating,
		Content:    req.Content,
		Images:     pq.StringArray(req.Images),
	}
	if err := h.agg.SubmitReview(c.Request.Context(), review); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, review)
}

// UpdateReview edits the caller's own review and retriggers aggregation.
func (h *Handler) UpdateReview(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Rating  int     `json:"rating" binding:"required"`
		Content *string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	existing, err := h.store.GetReview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.AuthorID != caller {
		respondError(c, services.ErrUnauthorized)
		return
	}

	review, err := h.agg.UpdateReview(c.Request.Context(), id, req.Rating, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// DeleteReview removes the caller's own review and backs its rating out.
func (h *Handler) DeleteReview(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	existing, err := h.store.GetReview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.AuthorID != caller {
		respondError(c, services.ErrUnauthorized)
		return
	}

	if err := h.agg.DeleteReview(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ListReviews returns the reviews for one rated entity, newest first.
func (h *Handler) ListReviews(c *gin.Context) {
	entityType := c.Query("entity_type")
	if entityType != models.EntityTypePGListing && entityType != models.EntityTypeLocalVendor {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entity type"})
		return
	}
	entityID, err := uuid.Parse(c.Query("entity_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entity_id"})
		return
	}
	limit, offset := paginationParams(c)

	reviews, err := h.store.ReviewsForEntity(c.Request.Context(), entityType, entityID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// UploadReviewImage stores a review photo and returns its URL.
func (h *Handler) UploadReviewImage(c *gin.Context) {
	h.uploadImage(c, services.FolderReviews)
}

func paginationParams(c *gin.Context) (limit, offset int) {
	limit = 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	page := 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	return limit, (page - 1) * limit
}
