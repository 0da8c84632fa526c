package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/BitBlock9310/BachelorBuddy/config"
	"github.com/BitBlock9310/BachelorBuddy/models"
	"github.com/BitBlock9310/BachelorBuddy/utils"
)

// Register creates a profile with a hashed password and returns a token.
func (h *Handler) Register(c *gin.Context) {
	var req struct {
		Email    string  `json:"email" binding:"required,email"`
		Password string  `json:"password" binding:"required,min=8"`
		FullName string  `json:"full_name" binding:"required"`
		Role     string  `json:"role"`
		College  *string `json:"college"`
		Phone    *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	role := req.Role
	switch role {
	case "":
		role = models.RoleStudent
	case models.RoleStudent, models.RolePGOwner, models.RoleVendor:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	hashStr := string(hash)
	avatar := utils.GenerateAvatarWithInitials(utils.GetInitialsFromName(req.FullName))
	profile := &models.Profile{
		Email:        &req.Email,
		FullName:     &req.FullName,
		Phone:        req.Phone,
		College:      req.College,
		Role:         role,
		AvatarURL:    &avatar,
		PasswordHash: &hashStr,
	}
	if err := h.store.CreateProfile(c.Request.Context(), profile); err != nil {
		respondError(c, err)
		return
	}

	token, err := generateJWT(profile.ID.String(), req.Email, profile.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"profile": profile, "token": token})
}

// Login verifies credentials and returns a token.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	profile, err := h.store.GetProfileByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if profile.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*profile.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	email := ""
	if profile.Email != nil {
		email = *profile.Email
	}
	token, err := generateJWT(profile.ID.String(), email, profile.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile, "token": token})
}

// AuthMiddleware validates JWT tokens and sets the caller identity.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(config.AppConfig.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}
