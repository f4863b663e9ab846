package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenUsed    = errors.New("token already used")
)

// SignedToken is a decoded document download token.
type SignedToken struct {
	UserID     uint
	DocumentID uint
	TokenID    string
	ExpiresAt  time.Time
}

// URLSignerService mints short-lived single-use download tokens for event
// documents. Without a Redis client tokens are reusable until they expire.
type URLSignerService struct {
	secretKey []byte
	redis     *redis.Client
}

func NewURLSignerService(secretKey []byte, redis *redis.Client) *URLSignerService {
	return &URLSignerService{
		secretKey: secretKey,
		redis:     redis,
	}
}

func (s *URLSignerService) GenerateDocumentToken(userID, documentID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":     userID,
		"document_id": documentID,
		"jti":         uuid.New().String(),
		"exp":         now.Add(ttl).Unix(),
		"iat":         now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *URLSignerService) ValidateToken(ctx context.Context, tokenString string) (*SignedToken, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	userID, ok1 := claims["user_id"].(float64)
	documentID, ok2 := claims["document_id"].(float64)
	tokenID, ok3 := claims["jti"].(string)
	exp, err := claims.GetExpirationTime()
	if !ok1 || !ok2 || !ok3 || err != nil || exp == nil {
		return nil, fmt.Errorf("%w: missing claims", ErrTokenInvalid)
	}

	used, err := s.IsTokenUsed(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrTokenUsed
	}

	return &SignedToken{
		UserID:     uint(userID),
		DocumentID: uint(documentID),
		TokenID:    tokenID,
		ExpiresAt:  exp.Time,
	}, nil
}

// MarkTokenAsUsed remembers the token until it would have expired anyway.
func (s *URLSignerService) MarkTokenAsUsed(ctx context.Context, token *SignedToken) error {
	if s.redis == nil {
		return nil
	}
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, "used_token:"+token.TokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}
	return nil
}

func (s *URLSignerService) IsTokenUsed(ctx context.Context, tokenID string) (bool, error) {
	if s.redis == nil {
		return false, nil
	}
	result, err := s.redis.Get(ctx, "used_token:"+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token usage: %w", err)
	}
	return result == "1", nil
}
