package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/services"
)

// UpsertRoommateProfile creates or replaces the caller's roommate
// profile.
func (h *Handler) UpsertRoommateProfile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		Bio                *string            `json:"bio"`
		Preferences        models.PrefMap     `json:"preferences"`
		BudgetRange        models.BudgetRange `json:"budget_range"`
		PreferredLocations []string           `json:"preferred_locations"`
		LifestyleTags      []string           `json:"lifestyle_tags"`
		IsSmokingOK        bool               `json:"is_smoking_ok"`
		IsPetsOK           bool               `json:"is_pets_ok"`
		MoveInDate         *time.Time         `json:"move_in_date"`
		DurationMonths     *int               `json:"duration_months"`
		IsActive           *bool              `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if err := services.ValidateBudget(req.BudgetRange); err != nil {
		respondError(c, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	profile := &models.RoommateProfile{
		UserID:             caller,
		Bio:                req.Bio,
		Preferences:        req.Preferences,
		BudgetRange:        req.BudgetRange,
		PreferredLocations: pq.StringArray(req.PreferredLocations),
		LifestyleTags:      pq.StringArray(req.LifestyleTags),
		IsSmokingOK:        req.IsSmokingOK,
		IsPetsOK:           req.IsPetsOK,
		MoveInDate:         req.MoveInDate,
		DurationMonths:     req.DurationMonths,
		IsActive:           active,
	}
	if err := h.store.UpsertRoommateProfile(c.Request.Context(), profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetRoommateProfile returns the caller's roommate profile.
func (h *Handler) GetRoommateProfile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	profile, err := h.store.GetRoommateProfileByUser(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SetRoommateActive flips the caller's profile in or out of the
// matching pool without losing its data.
func (h *Handler) SetRoommateActive(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	profile, err := h.store.GetRoommateProfileByUser(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	profile.IsActive = *req.IsActive
	if err := h.store.UpsertRoommateProfile(c.Request.Context(), profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetMatches ranks active candidates for the caller.
func (h *Handler) GetMatches(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	matches, err := h.matching.MatchesFor(c.Request.Context(), caller, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
