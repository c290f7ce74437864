package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps dialogues in Redis: one JSON value per dialogue plus a
// set indexing every stored ID.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store over an existing client. Keys are prefixed
// with prefix (default "dialoguegraph:").
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "dialoguegraph:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(id string) string { return s.prefix + "dialogue:" + id }
func (s *RedisStore) indexKey() string     { return s.prefix + "dialogues" }

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Put(ctx context.Context, sess *Session) error {
	if err := touch(sess); err != nil {
		return err
	}
	data, err := encode(sess)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.key(sess.ID), data, 0)
		p.SAdd(ctx, s.indexKey(), sess.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	out := []Summary{}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list: %w", err)
	}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue // index entry without value
		}
		sess, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		out = append(out, sess.Summary())
	}
	sortSummaries(out)
	return out, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, s.key(id))
		p.SRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	if del.Val() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
