package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BitBlock9310/BachelorBuddy/config"
	"github.com/BitBlock9310/BachelorBuddy/logger"
	"github.com/BitBlock9310/BachelorBuddy/services"
	"github.com/BitBlock9310/BachelorBuddy/storage"
)

// Handler carries the store and engine dependencies for every endpoint.
type Handler struct {
	store     storage.Store
	agg       *services.AggregationService
	matching  *services.MatchingService
	sequencer *services.Sequencer
	bus       services.MessageBus
	uploads   *services.CloudinaryService
	log       *logger.Logger
}

func New(store storage.Store, agg *services.AggregationService, matching *services.MatchingService,
	sequencer *services.Sequencer, bus services.MessageBus,
	uploads *services.CloudinaryService, log *logger.Logger) *Handler {
	return &Handler{
		store:     store,
		agg:       agg,
		matching:  matching,
		sequencer: sequencer,
		bus:       bus,
		uploads:   uploads,
		log:       log.With("component", "handlers"),
	}
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// generateJWT mints a signed token valid for 15 days.
func generateJWT(userID, email, role string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// callerID returns the authenticated user's ID set by AuthMiddleware.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("user_id")
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// parseIDParam parses a UUID path parameter, responding 400 on failure.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service and storage errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, storage.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
	case errors.Is(err, services.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, services.ErrRoomArchived):
		c.JSON(http.StatusConflict, gin.H{"error": "Room is archived"})
	case errors.Is(err, services.ErrAggregationConflict):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
