package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"

	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/services"
)

type vendorRequest struct {
	Name           string                     `json:"name" binding:"required"`
	Type           string                     `json:"type" binding:"required"`
	Description    *string                    `json:"description"`
	Address        string                     `json:"address" binding:"required"`
	Location       models.GeoPoint            `json:"location"`
	ContactPhone   *string                    `json:"contact_phone"`
	ContactEmail   *string                    `json:"contact_email"`
	OperatingHours map[string]models.DayHours `json:"operating_hours"`
	Services       []string                   `json:"services"`
	PriceRange     *models.PriceRange         `json:"price_range"`
	Images         []string                   `json:"images"`
}

func validVendorType(t string) bool {
	switch t {
	case models.VendorTypeMess, models.VendorTypeLaundry, models.VendorTypeTransport, models.VendorTypeOther:
		return true
	}
	return false
}

func (r vendorRequest) apply(v *models.LocalVendor) {
	v.Name = r.Name
	v.Type = r.Type
	v.Description = r.Description
	v.Address = r.Address
	v.Location = r.Location
	v.ContactPhone = r.ContactPhone
	v.ContactEmail = r.ContactEmail
	v.OperatingHours = models.HoursMap(r.OperatingHours)
	v.Services = pq.StringArray(r.Services)
	v.PriceRange = r.PriceRange
	v.Images = pq.StringArray(r.Images)
}

// CreateVendor registers a local vendor owned by the caller.
func (h *Handler) CreateVendor(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req vendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if !validVendorType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor type"})
		return
	}
	if req.PriceRange != nil && req.PriceRange.Min > req.PriceRange.Max {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_range min cannot exceed max"})
		return
	}

	vendor := &models.LocalVendor{OwnerID: caller}
	req.apply(vendor)
	if err := h.store.CreateVendor(c.Request.Context(), vendor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vendor)
}

// GetVendor returns one vendor with its derived rating fields.
func (h *Handler) GetVendor(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	vendor, err := h.store.GetVendor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendor)
}

// UpdateVendor edits a vendor. Only the owner may edit.
func (h *Handler) UpdateVendor(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	vendor, err := h.store.GetVendor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if vendor.OwnerID != caller {
		respondError(c, services.ErrUnauthorized)
		return
	}

	var req vendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	if !validVendorType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor type"})
		return
	}
	if req.PriceRange != nil && req.PriceRange.Min > req.PriceRange.Max {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price_range min cannot exceed max"})
		return
	}
	req.apply(vendor)
	if err := h.store.UpdateVendor(c.Request.Context(), vendor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vendor)
}

// ListVendors returns vendors, optionally filtered by type.
func (h *Handler) ListVendors(c *gin.Context) {
	vendorType := c.Query("type")
	if vendorType != "" && !validVendorType(vendorType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vendor type"})
		return
	}
	limit, offset := paginationParams(c)

	vendors, err := h.store.QueryVendors(c.Request.Context(), vendorType, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

// UploadVendorImage stores a vendor photo and returns its URL.
func (h *Handler) UploadVendorImage(c *gin.Context) {
	h.uploadImage(c, services.FolderVendors)
}
