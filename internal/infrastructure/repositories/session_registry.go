package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/you/bankauth/domain"
)

// SessionRegistryImpl implements domain.SessionRegistry using Redis.
// Session records carry the absolute expiry as key TTL; the per-account
// index set is reconciled lazily during List.
type SessionRegistryImpl struct {
	client      *redis.Client
	prefix      string
	indexPrefix string
	idleWindow  time.Duration
	absoluteTTL time.Duration
}

// NewSessionRegistry creates a new session registry
func NewSessionRegistry(client *redis.Client, idleWindow, absoluteTTL time.Duration) domain.SessionRegistry {
	return &SessionRegistryImpl{
		client:      client,
		prefix:      "session:",
		indexPrefix: "sessions:acct:",
		idleWindow:  idleWindow,
		absoluteTTL: absoluteTTL,
	}
}

func (r *SessionRegistryImpl) key(sessionID string) string {
	return r.prefix + sessionID
}

func (r *SessionRegistryImpl) indexKey(accountID uint) string {
	return fmt.Sprintf("%s%d", r.indexPrefix, accountID)
}

// Create implements domain.SessionRegistry
func (r *SessionRegistryImpl) Create(ctx context.Context, accountID uint, device, origin string) (*domain.Session, error) {
	now := time.Now().UTC()
	session := &domain.Session{
		ID:             uuid.New().String(),
		AccountID:      accountID,
		Device:         device,
		Origin:         origin,
		LoginAt:        now,
		LastActivityAt: now,
	}

	data, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.key(session.ID), data, r.absoluteTTL).Err(); err != nil {
		return nil, err
	}
	if err := r.client.SAdd(ctx, r.indexKey(accountID), session.ID).Err(); err != nil {
		return nil, err
	}

	session.Status = domain.SessionActive
	return session, nil
}

// FindByID implements domain.SessionRegistry
func (r *SessionRegistryImpl) FindByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session.Status = r.classify(&session)
	return &session, nil
}

// List implements domain.SessionRegistry. Sessions past their absolute
// expiry have already been dropped by Redis; their index entries are
// garbage-collected here.
func (r *SessionRegistryImpl) List(ctx context.Context, accountID uint, currentSessionID string) ([]*domain.Session, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey(accountID)).Result()
	if err != nil {
		return nil, err
	}

	sessions := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		session, err := r.FindByID(ctx, id)
		if err == domain.ErrSessionNotFound {
			r.client.SRem(ctx, r.indexKey(accountID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		session.IsCurrent = session.ID == currentSessionID
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LoginAt.After(sessions[j].LoginAt)
	})

	return sessions, nil
}

// Touch implements domain.SessionRegistry. The record is rewritten with
// KEEPTTL so refreshing activity never extends the absolute expiry.
func (r *SessionRegistryImpl) Touch(ctx context.Context, sessionID string) error {
	data, err := r.client.Get(ctx, r.key(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return domain.ErrSessionNotFound
		}
		return err
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session.LastActivityAt = time.Now().UTC()
	updated, err := json.Marshal(&session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return r.client.Set(ctx, r.key(sessionID), updated, redis.KeepTTL).Err()
}

// Revoke implements domain.SessionRegistry. Revoking an already-revoked
// session succeeds; revoking the caller's own current session is refused.
func (r *SessionRegistryImpl) Revoke(ctx context.Context, sessionID, currentSessionID string) error {
	if sessionID == currentSessionID {
		return domain.ErrCannotRevokeSelf
	}

	session, err := r.FindByID(ctx, sessionID)
	if err == domain.ErrSessionNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return err
	}
	return r.client.SRem(ctx, r.indexKey(session.AccountID), sessionID).Err()
}

// RevokeAllExcept implements domain.SessionRegistry
func (r *SessionRegistryImpl) RevokeAllExcept(ctx context.Context, accountID uint, currentSessionID string) (int, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey(accountID)).Result()
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, id := range ids {
		if id == currentSessionID {
			continue
		}
		deleted, err := r.client.Del(ctx, r.key(id)).Result()
		if err != nil {
			return revoked, err
		}
		if err := r.client.SRem(ctx, r.indexKey(accountID), id).Err(); err != nil {
			return revoked, err
		}
		if deleted > 0 {
			revoked++
		}
	}

	return revoked, nil
}

// Delete implements domain.SessionRegistry. Unlike Revoke it carries no
// self-revocation guard; logout uses this path.
func (r *SessionRegistryImpl) Delete(ctx context.Context, sessionID string) error {
	session, err := r.FindByID(ctx, sessionID)
	if err == domain.ErrSessionNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return err
	}
	return r.client.SRem(ctx, r.indexKey(session.AccountID), sessionID).Err()
}

func (r *SessionRegistryImpl) classify(session *domain.Session) domain.SessionStatus {
	if time.Since(session.LastActivityAt) > r.idleWindow {
		return domain.SessionIdle
	}
	return domain.SessionActive
}
