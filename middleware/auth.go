package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/al0dan/absher/config"
	"github.com/al0dan/absher/model"
	"github.com/al0dan/absher/pkg/logger"
)

// Claims represents the JWT claims carried by a session token
type Claims struct {
	Username    string `json:"username"`
	CompanyName string `json:"company_name"`
	CRNumber    string `json:"cr_number,omitempty"`
	VATNumber   string `json:"vat_number,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken generates a new JWT session token for a user
func GenerateToken(user *model.User, cfg *config.AuthConfig) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(cfg.TokenExpireHours) * time.Hour)

	claims := Claims{
		Username:    user.Username,
		CompanyName: user.CompanyName,
		CRNumber:    user.CRNumber,
		VATNumber:   user.VATNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// AuthMiddleware validates the JWT token and extracts the caller's identity
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := parts[1]

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Store caller identity in context
		c.Set("username", claims.Username)
		c.Set("company_name", claims.CompanyName)
		c.Set("cr_number", claims.CRNumber)
		c.Set("vat_number", claims.VATNumber)

		// Add to request context for logger
		ctx := context.WithValue(c.Request.Context(), logger.UsernameKey, claims.Username)
		ctx = context.WithValue(ctx, logger.CRNumberKey, claims.CRNumber)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUsername gets the authenticated username from context
func GetUsername(c *gin.Context) string {
	if username, exists := c.Get("username"); exists {
		return username.(string)
	}
	return ""
}

// GetCompanyName gets the caller's company name from context
func GetCompanyName(c *gin.Context) string {
	if name, exists := c.Get("company_name"); exists {
		return name.(string)
	}
	return ""
}

// GetCRNumber gets the caller's commercial registration number from context
func GetCRNumber(c *gin.Context) string {
	if cr, exists := c.Get("cr_number"); exists {
		return cr.(string)
	}
	return ""
}

// GetVATNumber gets the caller's VAT number from context
func GetVATNumber(c *gin.Context) string {
	if vat, exists := c.Get("vat_number"); exists {
		return vat.(string)
	}
	return ""
}
