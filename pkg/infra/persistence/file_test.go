package persistence_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/relwatch/pkg/domain/interfaces"
	"github.com/m-mizutani/relwatch/pkg/domain/model"
	"github.com/m-mizutani/relwatch/pkg/infra/persistence"
)

func newFileStore(t *testing.T, path string) interfaces.StateStore {
	t.Helper()
	store, err := persistence.New(context.Background(), model.PersistenceDef{
		Type:   "file",
		Config: map[string]any{"path": path},
	})
	gt.NoError(t, err)
	return store
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store := newFileStore(t, path)
	defer store.Close()

	_, found, err := store.GetLastTag(ctx, "gh_owner/repo")
	gt.NoError(t, err)
	gt.False(t, found)

	gt.NoError(t, store.SetLastTag(ctx, "gh_owner/repo", "v1.0.0"))

	tag, found, err := store.GetLastTag(ctx, "gh_owner/repo")
	gt.NoError(t, err)
	gt.True(t, found)
	gt.Value(t, tag).Equal("v1.0.0")
}

func TestFileStorePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store := newFileStore(t, path)
	gt.NoError(t, store.SetLastTag(ctx, "pypi_requests", "2.32.3"))
	gt.NoError(t, store.Close())

	reopened := newFileStore(t, path)
	defer reopened.Close()

	tag, found, err := reopened.GetLastTag(ctx, "pypi_requests")
	gt.NoError(t, err)
	gt.True(t, found)
	gt.Value(t, tag).Equal("2.32.3")

	// The on-disk format is a flat JSON object.
	raw, err := os.ReadFile(path)
	gt.NoError(t, err)
	var data map[string]string
	gt.NoError(t, json.Unmarshal(raw, &data))
	gt.Value(t, data["pypi_requests"]).Equal("2.32.3")
}

func TestFileStoreRejectsCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	gt.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err := persistence.New(context.Background(), model.PersistenceDef{
		Type:   "file",
		Config: map[string]any{"path": path},
	})
	gt.Error(t, err)
}

func TestFileStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")

	store := newFileStore(t, path)
	defer store.Close()

	gt.NoError(t, store.SetLastTag(ctx, "gh_a/one", "v1"))
	gt.NoError(t, store.SetLastTag(ctx, "gh_a/two", "v2"))
	gt.NoError(t, store.SetLastTag(ctx, "pypi_requests", "2.0"))

	m := gt.Cast[interfaces.MaintainableStore](t, store)

	entries, err := m.ListKeys(ctx, "gh_")
	gt.NoError(t, err)
	gt.Array(t, entries).Equal([]string{"gh_a/one:v1", "gh_a/two:v2"})

	all, err := m.ListKeys(ctx, "")
	gt.NoError(t, err)
	gt.Number(t, len(all)).Equal(3)

	deleted, err := m.DeleteKeys(ctx, "gh_")
	gt.NoError(t, err)
	gt.Number(t, deleted).Equal(2)

	remaining, err := m.ListKeys(ctx, "")
	gt.NoError(t, err)
	gt.Array(t, remaining).Equal([]string{"pypi_requests:2.0"})
}

func TestUnknownPersistenceType(t *testing.T) {
	_, err := persistence.New(context.Background(), model.PersistenceDef{Type: "etcd"})
	gt.Error(t, err)
}
