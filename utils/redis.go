package utils

import (
	"context"
	"errors"
	"fmt"
	"projectcamp/models"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

const redisTimeout = 5 * time.Second

// OpenRedisPool initializes a Redis connection pool
func OpenRedisPool(ctx context.Context, dsn string) (*redis.Client, error) {
	opt, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing redis DSN: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 2
	opt.DialTimeout = 5 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)
	if err = client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return client, nil
}

// RedisSessionStore keeps refresh sessions as hashes under session:<jti>, indexed
// per user in the set user_sessions:<userID>.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(tokenID string) string { return "session:" + tokenID }
func userSessionsKey(userID string) string { return "user_sessions:" + userID }

// StoreSession saves a session in Redis
func (s *RedisSessionStore) StoreSession(ctx context.Context, session models.Session, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	sessionMap := map[string]any{
		"user_id":    session.UserID,
		"created_at": session.CreatedAt,
		"expires_at": session.ExpiresAt,
		"user_agent": session.UserAgent,
		"ip_address": session.IPAddress,
	}

	key := sessionKey(session.TokenID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, sessionMap)
		pipe.Expire(ctx, key, ttl)
		pipe.SAdd(ctx, userSessionsKey(session.UserID), key)
		pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
		return nil
	})
	return err
}

// GetSession retrieves session details from Redis
func (s *RedisSessionStore) GetSession(ctx context.Context, tokenID string) (*models.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	data, err := s.client.HGetAll(ctx, sessionKey(tokenID)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrSessionNotFound
	}

	return &models.Session{
		TokenID:   tokenID,
		UserID:    data["user_id"],
		CreatedAt: data["created_at"],
		ExpiresAt: data["expires_at"],
		UserAgent: data["user_agent"],
		IPAddress: data["ip_address"],
	}, nil
}

// DeleteSession removes a single session and its reference in the user index
func (s *RedisSessionStore) DeleteSession(ctx context.Context, tokenID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	key := sessionKey(tokenID)
	userID, err := s.client.HGet(ctx, key, "user_id").Result()
	if errors.Is(err, redis.Nil) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}

	// DEL reports zero when a concurrent caller removed the hash first.
	removed, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return s.client.SRem(ctx, userSessionsKey(userID), key).Err()
}

// DeleteAllUserSessions removes all sessions associated with a specific user
func (s *RedisSessionStore) DeleteAllUserSessions(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	sessionKeys, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}

	if len(sessionKeys) > 0 {
		if err := s.client.Del(ctx, sessionKeys...).Err(); err != nil {
			return err
		}
	}

	return s.client.Del(ctx, userSessionsKey(userID)).Err()
}

// CountUserSessions returns the number of live sessions in the user's index.
func (s *RedisSessionStore) CountUserSessions(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	keys, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	// Index entries can outlive their expired hashes.
	return s.client.Exists(ctx, keys...).Result()
}

func (s *RedisSessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
