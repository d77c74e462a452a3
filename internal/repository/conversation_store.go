package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"carintel/internal/model"
)

// ConversationStore persists chat sessions by id
type ConversationStore interface {
	// Load returns the conversation and whether the session exists
	Load(ctx context.Context, sessionID string) (model.Conversation, bool, error)
	Save(ctx context.Context, sessionID string, conv model.Conversation) error
}

// MemoryConversationStore keeps sessions in process memory
type MemoryConversationStore struct {
	mu       sync.RWMutex
	sessions map[string]model.Conversation
}

// NewMemoryConversationStore creates an empty in-memory store
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{sessions: make(map[string]model.Conversation)}
}

// Load implements ConversationStore
func (s *MemoryConversationStore) Load(_ context.Context, sessionID string) (model.Conversation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.sessions[sessionID]
	return conv, ok, nil
}

// Save implements ConversationStore
func (s *MemoryConversationStore) Save(_ context.Context, sessionID string, conv model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = conv
	return nil
}

// RedisConversationStore keeps sessions as JSON values with a sliding TTL
type RedisConversationStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// NewRedisClient connects to the Redis server at url and verifies the connection
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisConversationStore creates a store on client. A zero ttl keeps sessions forever.
func NewRedisConversationStore(client redis.UniversalClient, ttl time.Duration) *RedisConversationStore {
	return &RedisConversationStore{
		client:    client,
		keyPrefix: "chat:session:",
		ttl:       ttl,
	}
}

// Load implements ConversationStore
func (s *RedisConversationStore) Load(ctx context.Context, sessionID string) (model.Conversation, bool, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Conversation{}, false, nil
	}
	if err != nil {
		return model.Conversation{}, false, fmt.Errorf("redis get error: %w", err)
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return model.Conversation{}, false, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return conv, true, nil
}

// Save implements ConversationStore
func (s *RedisConversationStore) Save(ctx context.Context, sessionID string, conv model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}
