package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	userTokenKeyPrefix = "auth_token:user:"
	tokenIDKeyPrefix   = "auth_token:id:"
)

// ErrTokenNotFound is returned when a token id is not (or no longer) registered.
var ErrTokenNotFound = errors.New("token not found")

// StoredToken is the live bearer token of a user.
type StoredToken struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// TokenStoreInterface defines the interface for token storage operations.
type TokenStoreInterface interface {
	GetUserToken(ctx context.Context, userID uint) (*StoredToken, error)
	StoreToken(ctx context.Context, userID uint, tok StoredToken, ttl time.Duration) error
	LookupTokenID(ctx context.Context, tokenID string) (uint, error)
	RevokeUserToken(ctx context.Context, userID uint) error
}

// TokenStore keeps at most one live bearer token per user in Redis. Unlike the
// cache, connectivity errors are returned: an unreachable store must not
// authenticate anybody.
type TokenStore struct {
	rdb *redis.Client
}

// Ensure TokenStore implements TokenStoreInterface
var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func userTokenKey(userID uint) string {
	return userTokenKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// GetUserToken returns the user's live token, or nil when none is stored.
func (s *TokenStore) GetUserToken(ctx context.Context, userID uint) (*StoredToken, error) {
	data, err := s.rdb.Get(ctx, userTokenKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user token: %w", err)
	}

	var tok StoredToken
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("unmarshal token data: %w", err)
	}
	return &tok, nil
}

// StoreToken registers tok as the user's live token under both keys.
func (s *TokenStore) StoreToken(ctx context.Context, userID uint, tok StoredToken, ttl time.Duration) error {
	payload, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, userTokenKey(userID), payload, ttl)
		pipe.Set(ctx, tokenIDKeyPrefix+tok.ID, strconv.FormatUint(uint64(userID), 10), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// LookupTokenID resolves a token id to its owner.
func (s *TokenStore) LookupTokenID(ctx context.Context, tokenID string) (uint, error) {
	raw, err := s.rdb.Get(ctx, tokenIDKeyPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrTokenNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token owner: %w", err)
	}
	return uint(id), nil
}

// RevokeUserToken deletes the user's live token. Revoking a user without a
// token is a no-op.
func (s *TokenStore) RevokeUserToken(ctx context.Context, userID uint) error {
	tok, err := s.GetUserToken(ctx, userID)
	if err != nil {
		return err
	}
	keys := []string{userTokenKey(userID)}
	if tok != nil {
		keys = append(keys, tokenIDKeyPrefix+tok.ID)
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
