// Package auth issues and validates the bearer credentials presented at
// login and at connection time.
package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/marusyk/Converse/internal/domain"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Claims is the identity a valid token resolves to.
type Claims struct {
	UserID      domain.UserID
	DisplayName string
	Email       string
}

type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret), ttl: 72 * time.Hour}
}

func (s *Service) IssueToken(u *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": string(u.ID),
		"name":    u.Name,
		"email":   u.Email,
		"exp":     time.Now().Add(s.ttl).Unix(),
		"iss":     "converse-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates the token and extracts the identity. Any failure is
// reported as ErrInvalidToken; the caller refuses the connection before
// registration.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, _ := mc["user_id"].(string)
	if userID == "" {
		return nil, ErrInvalidToken
	}
	name, _ := mc["name"].(string)
	email, _ := mc["email"].(string)
	return &Claims{UserID: domain.UserID(userID), DisplayName: name, Email: email}, nil
}

// BearerToken strips the "Bearer " prefix from an Authorization header.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
