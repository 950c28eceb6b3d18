package persistence

import (
	"context"
	"crypto/tls"
	"fmt"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/redis/go-redis/v9"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/types"
)

const defaultRedisSetKey = "relwatch:releases"

// redisConn is the slice of redis.Client the store needs. Tests inject a
// fake.
type redisConn interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...any) *redis.IntCmd
	Close() error
}

// redisStore keeps every tracked entry as a "key:tag" member of a single
// set. The set stays small (one member per tracked repo), so lookups scan
// members instead of maintaining a secondary index.
type redisStore struct {
	conn   redisConn
	setKey string
}

func newRedisStore(conf map[string]any) (interfaces.StateStore, error) {
	host := "localhost"
	if h, ok := conf["host"].(string); ok && h != "" {
		host = h
	}
	port := int64(6379)
	if p, ok := intConf(conf["port"]); ok {
		port = p
	}
	db := int64(0)
	if d, ok := intConf(conf["db"]); ok {
		db = d
	}
	password, _ := conf["password"].(string)

	opts := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       int(db),
	}
	if useTLS, ok := conf["tls"].(bool); !ok || useTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	setKey := defaultRedisSetKey
	if k, ok := conf["set_key"].(string); ok && k != "" {
		setKey = k
	} else if p, ok := conf["prefix"].(string); ok && p != "" {
		setKey = p
	}

	return &redisStore{conn: redis.NewClient(opts), setKey: setKey}, nil
}

func intConf(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

func (s *redisStore) GetLastTag(ctx context.Context, key string) (string, bool, error) {
	members, err := s.conn.SMembers(ctx, s.setKey).Result()
	if err != nil {
		return "", false, goerr.Wrap(err, "failed to read state set",
			goerr.V("set", s.setKey), goerr.T(types.ErrTagPersistence))
	}
	for _, m := range members {
		if tag, ok := strings.CutPrefix(m, key+":"); ok {
			return tag, true, nil
		}
	}
	return "", false, nil
}

func (s *redisStore) SetLastTag(ctx context.Context, key, tag string) error {
	// Remove any stale member for the key before adding the new one; a key
	// must never appear twice with different tags.
	members, err := s.conn.SMembers(ctx, s.setKey).Result()
	if err != nil {
		return goerr.Wrap(err, "failed to read state set",
			goerr.V("set", s.setKey), goerr.T(types.ErrTagPersistence))
	}
	for _, m := range members {
		if strings.HasPrefix(m, key+":") {
			if err := s.conn.SRem(ctx, s.setKey, m).Err(); err != nil {
				return goerr.Wrap(err, "failed to remove stale state entry",
					goerr.V("member", m), goerr.T(types.ErrTagPersistence))
			}
		}
	}

	if err := s.conn.SAdd(ctx, s.setKey, key+":"+tag).Err(); err != nil {
		return goerr.Wrap(err, "failed to record state entry",
			goerr.V("key", key), goerr.T(types.ErrTagPersistence))
	}
	return nil
}

func (s *redisStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	members, err := s.conn.SMembers(ctx, s.setKey).Result()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read state set",
			goerr.V("set", s.setKey), goerr.T(types.ErrTagPersistence))
	}

	var entries []string
	for _, m := range members {
		if prefix == "" || strings.HasPrefix(m, prefix) {
			entries = append(entries, m)
		}
	}
	sort.Strings(entries)
	return entries, nil
}

func (s *redisStore) DeleteKeys(ctx context.Context, prefix string) (int, error) {
	members, err := s.conn.SMembers(ctx, s.setKey).Result()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read state set",
			goerr.V("set", s.setKey), goerr.T(types.ErrTagPersistence))
	}

	var deleted int
	for _, m := range members {
		if prefix != "" && !strings.HasPrefix(m, prefix) {
			continue
		}
		if err := s.conn.SRem(ctx, s.setKey, m).Err(); err != nil {
			return deleted, goerr.Wrap(err, "failed to delete state entry",
				goerr.V("member", m), goerr.T(types.ErrTagPersistence))
		}
		deleted++
	}
	return deleted, nil
}

func (s *redisStore) Close() error { return s.conn.Close() }
