package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BitBlock9310/BachelorBuddy/services"
)

// GetMe returns the caller's own profile.
func (h *Handler) GetMe(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	profile, err := h.store.GetProfile(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetProfile returns a user's public profile.
func (h *Handler) GetProfile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	profile, err := h.store.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMe edits the caller's own profile. Role and verification status
// are not writable here.
func (h *Handler) UpdateMe(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		Username  *string `json:"username"`
		FullName  *string `json:"full_name"`
		AvatarURL *string `json:"avatar_url"`
		Gender    *string `json:"gender"`
		College   *string `json:"college"`
		BatchYear *int    `json:"batch_year"`
		Phone     *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	if req.Username != nil {
		profile.Username = req.Username
	}
	if req.FullName != nil {
		profile.FullName = req.FullName
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = req.AvatarURL
	}
	if req.Gender != nil {
		profile.Gender = req.Gender
	}
	if req.College != nil {
		profile.College = req.College
	}
	if req.BatchYear != nil {
		profile.BatchYear = req.BatchYear
	}
	if req.Phone != nil {
		profile.Phone = req.Phone
	}

	if err := h.store.UpdateProfile(c.Request.Context(), profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdatePushToken stores the caller's device push token. Delivery is
// handled outside this service.
func (h *Handler) UpdatePushToken(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		PushToken string `json:"push_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	profile.PushToken = &req.PushToken
	if err := h.store.UpdateProfile(c.Request.Context(), profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// UploadAvatar stores a profile photo and returns its URL.
func (h *Handler) UploadAvatar(c *gin.Context) {
	h.uploadImage(c, services.FolderAvatars)
}
