package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Parser validates HS256 access tokens whose subject is a profile id.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Enabled() bool {
	return len(p.secret) > 0
}

func (p *Parser) Parse(tokenStr string) (uuid.UUID, error) {
	if !p.Enabled() {
		return uuid.Nil, fmt.Errorf("%w: token authentication is not configured", ErrInvalidToken)
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	profileID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not a profile id", ErrInvalidToken)
	}
	return profileID, nil
}

// Issue signs a token for the profile valid for ttl.
func (p *Parser) Issue(profileID uuid.UUID, ttl time.Duration) (string, error) {
	if !p.Enabled() {
		return "", fmt.Errorf("%w: token authentication is not configured", ErrInvalidToken)
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   profileID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
