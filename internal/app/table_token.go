package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

// AnySeat lets a token holder take whichever seat is free.
const AnySeat = -1

var (
	ErrTokenInvalid  = errors.New("table token invalid")
	ErrTokenMismatch = errors.New("table token issued for another user or match")
)

// TableClaims is what a verified table token grants.
type TableClaims struct {
	UserID  string
	MatchID string
	Seat    int
	Expires time.Time
}

// TableTokenService issues and verifies the HS256 tokens that admit players to
// private tables.
type TableTokenService struct {
	secret string
	issuer string
	ttl    time.Duration
}

func NewTableTokenService(secret, issuer string, ttl time.Duration) *TableTokenService {
	return &TableTokenService{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
	}
}

// Issue signs a token letting user join match at seat (AnySeat for any).
func (s *TableTokenService) Issue(user, matchID string, seat int) (string, error) {
	if s == nil {
		return "", fmt.Errorf("table token service is nil")
	}
	if user == "" || matchID == "" {
		return "", fmt.Errorf("user and match are required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("table token config is incomplete")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  user,
		"mid":  matchID,
		"seat": seat,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
		"jti":  uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// Verify checks signature, issuer and expiry, and that the token was issued to
// user for matchID.
func (s *TableTokenService) Verify(tokenString, user, matchID string) (TableClaims, error) {
	if s == nil || s.secret == "" {
		return TableClaims{}, fmt.Errorf("%w: table tokens not configured", ErrTokenInvalid)
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return TableClaims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return TableClaims{}, ErrTokenInvalid
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return TableClaims{}, fmt.Errorf("%w: wrong issuer", ErrTokenInvalid)
	}

	out := TableClaims{Seat: AnySeat}
	out.UserID, _ = claims["sub"].(string)
	out.MatchID, _ = claims["mid"].(string)
	if seat, ok := claims["seat"].(float64); ok {
		out.Seat = int(seat)
	}
	if exp, ok := claims["exp"].(float64); ok {
		out.Expires = time.Unix(int64(exp), 0)
	}
	if out.UserID != user || out.MatchID != matchID {
		return TableClaims{}, ErrTokenMismatch
	}
	return out, nil
}
