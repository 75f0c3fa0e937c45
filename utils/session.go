package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const sessionKey = "session"

// Session is the authenticated caller of a request. Handlers read it from the
// gin context and pass it on explicitly.
type Session struct {
	UserID         uuid.UUID
	OrganizationID uuid.UUID
}

type Claims struct {
	OrganizationID string `json:"organization_id"`
	jwt.RegisteredClaims
}

func SetSession(c *gin.Context, s Session) {
	c.Set(sessionKey, s)
}

// GetSession returns the session stored by the auth middleware.
func GetSession(c *gin.Context) (Session, bool) {
	v, exists := c.Get(sessionKey)
	if !exists {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}

// GenerateToken signs an HS256 token for a user of an organization.
func GenerateToken(secret string, userID, orgID uuid.UUID, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		OrganizationID: orgID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// VerifyToken validates an HS256 token and turns its claims into a Session.
func VerifyToken(secret, tokenString string) (Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Session{}, err
	}
	if !token.Valid {
		return Session{}, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Session{}, fmt.Errorf("invalid subject: %w", err)
	}
	orgID, err := uuid.Parse(claims.OrganizationID)
	if err != nil {
		return Session{}, fmt.Errorf("invalid organization_id: %w", err)
	}
	return Session{UserID: userID, OrganizationID: orgID}, nil
}
