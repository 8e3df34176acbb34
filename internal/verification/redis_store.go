package verification

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one-time codes in Redis. Keys carry the code TTL so
// expired records disappear on their own; the registry still checks
// expires_at so that claim semantics do not depend on Redis eviction
// timing.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// codeKey generates the Redis key for an (email, code) pair.
func codeKey(email, code string) string {
	sum := sha256.Sum256([]byte(email + ":" + code))
	return fmt.Sprintf("verify_code:%s", hex.EncodeToString(sum[:]))
}

// idKey generates the Redis key mapping a code ID back to its record key,
// so that delete-by-id works after a claim.
func idKey(id uuid.UUID) string {
	return fmt.Sprintf("verify_code:id:%s", id.String())
}

func (s *RedisStore) Create(ctx context.Context, code *Code) error {
	key := codeKey(code.Email, code.Code)
	ttl := time.Until(code.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("code expiration time is in the past")
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"id":         code.ID.String(),
		"email":      code.Email,
		"code":       code.Code,
		"expires_at": code.ExpiresAt.Unix(),
		"created_at": code.CreatedAt.Unix(),
	})
	pipe.Expire(ctx, key, ttl)
	pipe.Set(ctx, idKey(code.ID), key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	return nil
}

func (s *RedisStore) Find(ctx context.Context, email, code string) (*Code, error) {
	data, err := s.client.HGetAll(ctx, codeKey(email, code)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification code: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrInvalidOrExpired
	}

	id, err := uuid.Parse(data["id"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse code id: %w", err)
	}

	expiresAtUnix, err := strconv.ParseInt(data["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse code expiry: %w", err)
	}
	createdAtUnix, _ := strconv.ParseInt(data["created_at"], 10, 64)

	return &Code{
		ID:        id,
		Email:     data["email"],
		Code:      data["code"],
		ExpiresAt: time.Unix(expiresAtUnix, 0),
		CreatedAt: time.Unix(createdAtUnix, 0),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	key, err := s.client.Get(ctx, idKey(id)).Result()
	if err == redis.Nil {
		return nil // already expired or deleted
	}
	if err != nil {
		return fmt.Errorf("failed to resolve code id: %w", err)
	}

	if err := s.client.Del(ctx, key, idKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete verification code: %w", err)
	}

	return nil
}
