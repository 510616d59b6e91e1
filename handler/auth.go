package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/al0dan/absher/config"
	"github.com/al0dan/absher/middleware"
	"github.com/al0dan/absher/service"
)

type AuthHandler struct {
	config *config.Config
	store  *service.Store
}

func NewAuthHandler(cfg *config.Config, store *service.Store) *AuthHandler {
	return &AuthHandler{config: cfg, store: store}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token       string `json:"token"`
	ExpiresAt   string `json:"expires_at"`
	Username    string `json:"username"`
	CompanyName string `json:"company_name"`
	CRNumber    string `json:"cr_number,omitempty"`
	VATNumber   string `json:"vat_number,omitempty"`
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "اسم المستخدم أو كلمة المرور غير صحيحة"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	if !user.CheckPassword(req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "اسم المستخدم أو كلمة المرور غير صحيحة"})
		return
	}

	// Generate token
	token, expiresAt, err := middleware.GenerateToken(user, &h.config.Auth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:       token,
		ExpiresAt:   expiresAt.Format("2006-01-02T15:04:05Z07:00"),
		Username:    user.Username,
		CompanyName: user.CompanyName,
		CRNumber:    user.CRNumber,
		VATNumber:   user.VATNumber,
	})
}

// GetCurrentUser returns the current user info
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	username := middleware.GetUsername(c)

	user, err := h.store.GetUserByUsername(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":        user.Username,
		"company_name":    user.CompanyName,
		"company_name_en": user.CompanyNameEn,
		"cr_number":       user.CRNumber,
		"vat_number":      user.VATNumber,
		"unified_number":  user.UnifiedNumber,
		"city":            user.City,
		"user_type":       user.UserType,
	})
}
