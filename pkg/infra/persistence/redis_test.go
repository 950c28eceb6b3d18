package persistence

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/redis/go-redis/v9"
)

// fakeRedis keeps the set in memory and mirrors the slice of the client API
// the store uses.
type fakeRedis struct {
	members map[string][]string
	failAll bool
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{members: map[string][]string{}}
}

func (f *fakeRedis) SMembers(ctx context.Context, key string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	if f.failAll {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	cmd.SetVal(slices.Clone(f.members[key]))
	return cmd
}

func (f *fakeRedis) SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.failAll {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	for _, m := range members {
		s := m.(string)
		if !slices.Contains(f.members[key], s) {
			f.members[key] = append(f.members[key], s)
			cmd.SetVal(cmd.Val() + 1)
		}
	}
	return cmd
}

func (f *fakeRedis) SRem(ctx context.Context, key string, members ...any) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.failAll {
		cmd.SetErr(errors.New("connection refused"))
		return cmd
	}
	for _, m := range members {
		s := m.(string)
		if i := slices.Index(f.members[key], s); i >= 0 {
			f.members[key] = slices.Delete(f.members[key], i, i+1)
			cmd.SetVal(cmd.Val() + 1)
		}
	}
	return cmd
}

func (f *fakeRedis) Close() error { return nil }

func newTestRedisStore(f *fakeRedis) *redisStore {
	return &redisStore{conn: f, setKey: "relwatch:test"}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(newFakeRedis())

	_, found, err := store.GetLastTag(ctx, "gh_owner/repo")
	gt.NoError(t, err)
	gt.False(t, found)

	gt.NoError(t, store.SetLastTag(ctx, "gh_owner/repo", "v1.0.0"))

	tag, found, err := store.GetLastTag(ctx, "gh_owner/repo")
	gt.NoError(t, err)
	gt.True(t, found)
	gt.Value(t, tag).Equal("v1.0.0")
}

func TestRedisStoreReplacesStaleMember(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	store := newTestRedisStore(fake)

	gt.NoError(t, store.SetLastTag(ctx, "gh_owner/repo", "v1.0.0"))
	gt.NoError(t, store.SetLastTag(ctx, "gh_owner/repo", "v1.1.0"))

	// One member per key; the old tag must be gone.
	gt.Number(t, len(fake.members["relwatch:test"])).Equal(1)

	tag, found, err := store.GetLastTag(ctx, "gh_owner/repo")
	gt.NoError(t, err)
	gt.True(t, found)
	gt.Value(t, tag).Equal("v1.1.0")
}

func TestRedisStoreTagContainingColon(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(newFakeRedis())

	gt.NoError(t, store.SetLastTag(ctx, "docker_nginx", "1.27:alpine"))

	tag, found, err := store.GetLastTag(ctx, "docker_nginx")
	gt.NoError(t, err)
	gt.True(t, found)
	gt.Value(t, tag).Equal("1.27:alpine")
}

func TestRedisStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(newFakeRedis())

	gt.NoError(t, store.SetLastTag(ctx, "gh_a/one", "v1"))
	gt.NoError(t, store.SetLastTag(ctx, "gh_a/two", "v2"))
	gt.NoError(t, store.SetLastTag(ctx, "npm_express", "4.19.2"))

	entries, err := store.ListKeys(ctx, "gh_")
	gt.NoError(t, err)
	gt.Array(t, entries).Equal([]string{"gh_a/one:v1", "gh_a/two:v2"})

	deleted, err := store.DeleteKeys(ctx, "gh_")
	gt.NoError(t, err)
	gt.Number(t, deleted).Equal(2)

	remaining, err := store.ListKeys(ctx, "")
	gt.NoError(t, err)
	gt.Array(t, remaining).Equal([]string{"npm_express:4.19.2"})
}

func TestRedisStoreConnectionFailure(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	fake.failAll = true
	store := newTestRedisStore(fake)

	_, _, err := store.GetLastTag(ctx, "gh_owner/repo")
	gt.Error(t, err)

	gt.Error(t, store.SetLastTag(ctx, "gh_owner/repo", "v1"))
}
