package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/paulexconde/surveypulse/internal/models"
)

const (
	respondentKey = "respondent"
	roleKey       = "role"
)

// RoleAdmin grants access to the reporting endpoints.
const RoleAdmin = "admin"

// RespondentClaims is what a respondent token encodes. Subject carries the
// respondent id.
type RespondentClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func SignRespondentToken(respondent models.Respondent, signKey string, expiresIn time.Duration) (string, error) {
	return signToken(RespondentClaims{Email: respondent.Email}, respondent.ID, signKey, expiresIn)
}

// SignAdminToken issues a token that may read reports.
func SignAdminToken(subject, signKey string, expiresIn time.Duration) (string, error) {
	return signToken(RespondentClaims{Role: RoleAdmin}, subject, signKey, expiresIn)
}

func signToken(claims RespondentClaims, subject, signKey string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(signKey))
}

func ValidateRespondentToken(tokenString, signKey string) (*RespondentClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RespondentClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(signKey), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*RespondentClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func extractToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// OptionalAuth attaches the respondent when a valid token is present and
// lets anonymous requests through.
func OptionalAuth(signKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c)
		if !ok {
			return
		}
		claims, err := ValidateRespondentToken(token, signKey)
		if err != nil {
			slog.Debug("ignoring invalid token", slog.String("error", err.Error()))
			return
		}
		c.Set(respondentKey, &models.Respondent{ID: claims.Subject, Email: claims.Email})
		c.Set(roleKey, claims.Role)
	}
}

// RequireAuth rejects requests without a valid respondent token.
func RequireAuth(signKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		claims, err := ValidateRespondentToken(token, signKey)
		if err != nil {
			slog.Warn("token validation failed", slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "error during token validation"})
			return
		}
		c.Set(respondentKey, &models.Respondent{ID: claims.Subject, Email: claims.Email})
		c.Set(roleKey, claims.Role)
	}
}

// RequireAdmin runs after RequireAuth and rejects tokens without the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(roleKey) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
	}
}

func respondentFrom(c *gin.Context) *models.Respondent {
	v, ok := c.Get(respondentKey)
	if !ok {
		return nil
	}
	r, _ := v.(*models.Respondent)
	return r
}
