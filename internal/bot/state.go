package bot

import (
	"autocalc-bot/internal/model"
	"autocalc-bot/pkg/redis"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Session is the answers collected so far in one chat. It is created by
// /calculate, filled step by step and dropped on completion or /cancel.
type Session struct {
	Step         string           `json:"step"`
	Country      model.Country    `json:"country,omitempty"`
	Price        int64            `json:"price,omitempty"`
	TransportFee int64            `json:"transport_fee,omitempty"`
	Age          model.AgeBracket `json:"age,omitempty"`
	EngineCC     int64            `json:"engine_cc,omitempty"`
	RateToRuble  decimal.Decimal  `json:"rate_to_rub"`
	RateToEuro   decimal.Decimal  `json:"rate_to_eur"`
}

// SessionStore keeps one session per chat.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (Session, bool, error)
	Save(ctx context.Context, chatID int64, s Session) error
	Clear(ctx context.Context, chatID int64) error
}

type StateStorage struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStateStorage keeps sessions in Redis. A zero ttl means an abandoned
// session waits until the user comes back or starts over.
func NewStateStorage(redis *redis.Client, ttl time.Duration) *StateStorage {
	return &StateStorage{
		redis: redis,
		ttl:   ttl,
	}
}

func (s *StateStorage) Save(ctx context.Context, chatID int64, state Session) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := s.redis.Set(ctx, getStateKey(chatID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *StateStorage) Get(ctx context.Context, chatID int64) (Session, bool, error) {
	data, err := s.redis.Get(ctx, getStateKey(chatID))
	if errors.Is(err, redis.ErrNotFound) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("failed to get state: %w", err)
	}

	var state Session
	if err := json.Unmarshal(data, &state); err != nil {
		return Session{}, false, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return state, true, nil
}

func (s *StateStorage) Clear(ctx context.Context, chatID int64) error {
	if err := s.redis.Del(ctx, getStateKey(chatID)); err != nil {
		return fmt.Errorf("failed to clear state: %w", err)
	}
	return nil
}

func getStateKey(chatID int64) string {
	return fmt.Sprintf("session:%d", chatID)
}
