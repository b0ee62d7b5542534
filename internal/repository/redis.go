package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/immxrtalbeast/codecollab/internal/domain"
)

const defaultKeyPrefix = "codecollab:"

// RedisSnapshotStore keeps each record as a JSON string, a join code index and
// a set of active session ids.
type RedisSnapshotStore struct {
	client    *redis.Client
	keyPrefix string
}

func NewRedisSnapshotStore(client *redis.Client, keyPrefix string) *RedisSnapshotStore {
	if client == nil {
		panic("redis client cannot be nil for RedisSnapshotStore")
	}
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisSnapshotStore{client: client, keyPrefix: keyPrefix}
}

func (r *RedisSnapshotStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%ssession:%s", r.keyPrefix, sessionID)
}

func (r *RedisSnapshotStore) joinCodeKey(joinCode string) string {
	return fmt.Sprintf("%sjoin:%s", r.keyPrefix, joinCode)
}

func (r *RedisSnapshotStore) activeKey() string {
	return r.keyPrefix + "active"
}

func (r *RedisSnapshotStore) Put(ctx context.Context, record *domain.SessionRecord) error {
	if record == nil {
		return errors.New("record is nil")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redis: encode session %s: %w", record.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(record.ID), data, 0)
		pipe.Set(ctx, r.joinCodeKey(record.JoinCode), record.ID, 0)
		if record.IsActive {
			pipe.SAdd(ctx, r.activeKey(), record.ID)
		} else {
			pipe.SRem(ctx, r.activeKey(), record.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis: put session %s: %w", record.ID, err)
	}
	return nil
}

func (r *RedisSnapshotStore) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis: get session %s: %w", sessionID, err)
	}
	return decodeRecord(data)
}

func (r *RedisSnapshotStore) GetByJoinCode(ctx context.Context, joinCode string) (*domain.SessionRecord, error) {
	id, err := r.client.Get(ctx, r.joinCodeKey(joinCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("redis: resolve join code: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *RedisSnapshotStore) ListActive(ctx context.Context) ([]*domain.SessionRecord, error) {
	ids, err := r.client.SMembers(ctx, r.activeKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: list active sessions: %w", err)
	}

	result := make([]*domain.SessionRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if errors.Is(err, ErrSnapshotNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func decodeRecord(data []byte) (*domain.SessionRecord, error) {
	var record domain.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("redis: decode session: %w", err)
	}
	return &record, nil
}
