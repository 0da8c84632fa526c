package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/services"
	"github.com/BitBlock9310/BachelorBuddy/storage"
)

type listingRequest struct {
	Title            string            `json:"title" binding:"required"`
	Description      *string           `json:"description"`
	Address          string            `json:"address" binding:"required"`
	Location         models.GeoPoint   `json:"location"`
	MonthlyRent      float64           `json:"monthly_rent" binding:"required"`
	SecurityDeposit  *float64          `json:"security_deposit"`
	IsShared         bool              `json:"is_shared"`
	MaxOccupancy     *int              `json:"max_occupancy"`
	GenderPreference *string           `json:"gender_preference"`
	Amenities        map[string]bool   `json:"amenities"`
	Rules            []string          `json:"rules"`
	Images           []string          `json:"images"`
	ContactPhone     *string           `json:"contact_phone"`
	ContactEmail     *string           `json:"contact_email"`
	IsAvailable      *bool             `json:"is_available"`
}

func (r listingRequest) apply(l *models.PGListing) {
	l.Title = r.Title
	l.Description = r.Description
	l.Address = r.Address
	l.Location = r.Location
	l.MonthlyRent = r.MonthlyRent
	l.SecurityDeposit = r.SecurityDeposit
	l.IsShared = r.IsShared
	l.MaxOccupancy = r.MaxOccupancy
	l.GenderPreference = r.GenderPreference
	l.Amenities = models.BoolMap(r.Amenities)
	l.Rules = pq.StringArray(r.Rules)
	l.Images = pq.StringArray(r.Images)
	l.ContactPhone = r.ContactPhone
	l.ContactEmail = r.ContactEmail
	if r.IsAvailable != nil {
		l.IsAvailable = *r.IsAvailable
	}
}

// CreateListing publishes a new PG listing owned by the caller.
func (h *Handler) CreateListing(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if req.MonthlyRent < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rent cannot be negative"})
		return
	}

	listing := &models.PGListing{OwnerID: caller, IsAvailable: true}
	req.apply(listing)
	if err := h.store.CreateListing(c.Request.Context(), listing); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listing)
}

// GetListing returns one listing with its derived rating fields.
func (h *Handler) GetListing(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	listing, err := h.store.GetListing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// UpdateListing edits a listing. Only the owner may edit; the derived
// rating fields are never writable through this endpoint.
func (h *Handler) UpdateListing(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	listing, err := h.store.GetListing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if listing.OwnerID != caller {
		respondError(c, services.ErrUnauthorized)
		return
	}

	var req listingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	req.apply(listing)
	if err := h.store.UpdateListing(c.Request.Context(), listing); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// ListListings searches available listings.
func (h *Handler) ListListings(c *gin.Context) {
	limit, offset := paginationParams(c)
	filter := storage.ListingFilter{
		City:             c.Query("city"),
		GenderPreference: c.Query("gender_preference"),
		OnlyAvailable:    c.Query("include_unavailable") != "true",
		Limit:            limit,
		Offset:           offset,
	}
	if raw := c.Query("max_rent"); raw != "" {
		maxRent, err := strconv.ParseFloat(raw, 64)
		if err != nil || maxRent < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_rent"})
			return
		}
		filter.MaxRent = &maxRent
	}

	listings, err := h.store.QueryListings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// UploadListingImage stores a listing photo and returns its URL.
func (h *Handler) UploadListingImage(c *gin.Context) {
	h.uploadImage(c, services.FolderListings)
}

func (h *Handler) uploadImage(c *gin.Context, folder string) {
	if h.uploads == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads not configured"})
		return
	}
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file required"})
		return
	}
	defer file.Close()

	url, err := h.uploads.UploadImage(c.Request.Context(), file, folder)
	if err != nil {
		h.log.Error("image upload failed", "folder", folder, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
