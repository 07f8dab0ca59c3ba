package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wareflow/wareflow-backend/pkg/cache"
)

const draftKeyPrefix = "wareflow:export:draft:"

// RedisDraftStore keeps drafts as JSON values that expire after ttl of inactivity
type RedisDraftStore struct {
	cache cache.Client
	ttl   time.Duration
}

// NewRedisDraftStore creates a Redis backed draft store
func NewRedisDraftStore(c cache.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{cache: c, ttl: ttl}
}

func (s *RedisDraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	val, err := s.cache.Get(ctx, draftKeyPrefix+id)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	var d Draft
	if err := json.Unmarshal([]byte(val), &d); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", id, err)
	}
	return &d, nil
}

// Save writes the draft and restarts its expiry
func (s *RedisDraftStore) Save(ctx context.Context, d *Draft) error {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.cache.Set(ctx, draftKeyPrefix+d.ID, b, s.ttl); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(ctx, draftKeyPrefix+id); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
