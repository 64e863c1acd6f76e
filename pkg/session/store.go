// Package session binds anonymous browser sessions to their open cart order.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const orderAttribute = "order"

type kv interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	SessionKey(sessionID, attribute string) string
}

// Store keeps the session → order binding in redis with a sliding TTL.
type Store struct {
	kv  kv
	ttl time.Duration
}

func NewStore(client kv, ttl time.Duration) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	return &Store{kv: client, ttl: ttl}, nil
}

// OrderID returns the order bound to sessionID. A missing or unparsable value
// reports ok=false.
func (s *Store) OrderID(ctx context.Context, sessionID string) (uint, bool, error) {
	if sessionID == "" {
		return 0, false, nil
	}
	key := s.kv.SessionKey(sessionID, orderAttribute)
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read session order: %w", err)
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false, nil
	}
	if err := s.kv.Expire(ctx, key, s.ttl); err != nil {
		return 0, false, fmt.Errorf("refresh session ttl: %w", err)
	}
	return uint(id), true, nil
}

func (s *Store) SetOrderID(ctx context.Context, sessionID string, orderID uint) error {
	if sessionID == "" {
		return errors.New("session id required")
	}
	key := s.kv.SessionKey(sessionID, orderAttribute)
	if err := s.kv.Set(ctx, key, strconv.FormatUint(uint64(orderID), 10), s.ttl); err != nil {
		return fmt.Errorf("write session order: %w", err)
	}
	return nil
}

// Clear drops the binding so the next add-to-cart starts a fresh order.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.kv.Del(ctx, s.kv.SessionKey(sessionID, orderAttribute)); err != nil {
		return fmt.Errorf("clear session order: %w", err)
	}
	return nil
}
