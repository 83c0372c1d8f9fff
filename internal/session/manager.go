// Package session owns the opaque token table that gates every
// authenticated request. Tokens live in Redis with no TTL: a token is
// valid from the moment it is issued until it is explicitly revoked.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Manager issues, resolves and revokes opaque session tokens bound to a
// user ID. Each token maps one way (token -> user) and each user keeps
// a reverse index (user -> token) so login can reuse an existing token.
type Manager struct {
	client *redis.Client
	rotate bool
}

// NewManager constructs a Manager. When rotate is true a fresh login
// revokes the user's prior token; when false (the default deployment
// policy) login returns the existing token unchanged.
func NewManager(client *redis.Client, rotate bool) *Manager {
	return &Manager{client: client, rotate: rotate}
}

func tokenKey(token string) string { return "token:" + token }
func userKey(userID int64) string  { return "user_token:" + strconv.FormatInt(userID, 10) }

// Issue returns a valid token for userID, minting one when needed per
// the configured policy. The token carries 256 bits of entropy.
func (m *Manager) Issue(ctx context.Context, userID int64) (string, error) {
	existing, err := m.client.Get(ctx, userKey(userID)).Result()
	switch {
	case err == nil:
		if !m.rotate {
			return existing, nil
		}
		if err := m.client.Del(ctx, tokenKey(existing)).Err(); err != nil {
			return "", fmt.Errorf("session: revoke prior token: %w", err)
		}
	case !errors.Is(err, redis.Nil):
		return "", fmt.Errorf("session: lookup user token: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}
	pipe := m.client.TxPipeline()
	pipe.Set(ctx, tokenKey(token), userID, 0)
	pipe.Set(ctx, userKey(userID), token, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("session: store token: %w", err)
	}
	return token, nil
}

// Resolve returns the user ID bound to token. A revoked token and a
// token that was never issued are indistinguishable: both return ok=false.
func (m *Manager) Resolve(ctx context.Context, token string) (int64, bool, error) {
	value, err := m.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("session: resolve token: %w", err)
	}
	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("session: corrupt binding for token: %w", err)
	}
	return userID, true, nil
}

// Revoke removes the token binding. Revoking an absent token is a no-op.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	value, err := m.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: revoke lookup: %w", err)
	}
	pipe := m.client.TxPipeline()
	pipe.Del(ctx, tokenKey(token))
	if userID, convErr := strconv.ParseInt(value, 10, 64); convErr == nil {
		// Drop the reverse index only while it still points at this token.
		if current, getErr := m.client.Get(ctx, userKey(userID)).Result(); getErr == nil && current == token {
			pipe.Del(ctx, userKey(userID))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	return nil
}

// RevokeUser removes whatever token is currently bound to userID.
// Used for administrative revocation; idempotent.
func (m *Manager) RevokeUser(ctx context.Context, userID int64) error {
	token, err := m.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: revoke user lookup: %w", err)
	}
	pipe := m.client.TxPipeline()
	pipe.Del(ctx, tokenKey(token))
	pipe.Del(ctx, userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: revoke user: %w", err)
	}
	return nil
}

// TokenForUser returns the user's currently bound token, if any.
func (m *Manager) TokenForUser(ctx context.Context, userID int64) (string, bool, error) {
	token, err := m.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session: token for user: %w", err)
	}
	return token, true, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
