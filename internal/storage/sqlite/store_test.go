package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/session"
	"github.com/greggjuri/chaos-dungeon/internal/storage/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "chaos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newSession(t *testing.T, name string, at time.Time) *session.Session {
	t.Helper()
	ledger, err := character.New(name, "thief", character.WithGold(30))
	require.NoError(t, err)
	return session.New(ledger, at)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestStore_SaveLoad(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	sess := newSession(t, "Wren", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	_, err := store.Load(ctx, sess.ID)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "SESSION_NOT_FOUND", oopsErr.Code())

	require.NoError(t, store.Save(ctx, sess))

	sess.Turn = 2
	sess.Scene = "Torchlight flickers over wet stone."
	require.NoError(t, sess.Character.Debit(character.SourceCommerceBuy, 5))
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Turn)
	assert.Equal(t, sess.Scene, got.Scene)
	assert.Equal(t, 25, got.Character.Gold())
	assert.Equal(t, sess.Character.HP(), got.Character.HP())
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := openStore(t)
	sess := newSession(t, "Wren", time.Now())
	sess.ID = ""
	assert.Error(t, store.Save(context.Background(), sess))
}

func TestStore_ListOrdersByRecency(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	older := newSession(t, "Older", base)
	newer := newSession(t, "Newer", base.Add(time.Hour))
	require.NoError(t, store.Save(ctx, older))
	require.NoError(t, store.Save(ctx, newer))

	ids, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID, older.ID}, ids)

	ids, err = store.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{newer.ID}, ids)
}

func TestStore_Record(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	sess := newSession(t, "Wren", time.Now())
	require.NoError(t, store.Save(ctx, sess))

	recs := []authority.AuditRecord{
		{ID: "a1", At: time.Now(), Action: authority.AuditRejected, Field: "gold_delta", Proposed: "500", Intent: "explore"},
		{ID: "a2", At: time.Now(), Action: authority.AuditRejected, Field: "inventory_add", Proposed: "gem", Intent: "explore"},
	}
	require.NoError(t, store.Record(ctx, sess.ID, 1, recs))
	require.NoError(t, store.Record(ctx, sess.ID, 1, recs[:1]))
	require.NoError(t, store.Record(ctx, sess.ID, 1, nil))

	n, err := store.AuditCount(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_RecordRequiresSession(t *testing.T) {
	store := openStore(t)
	err := store.Record(context.Background(), "missing", 1, []authority.AuditRecord{
		{ID: "a1", At: time.Now(), Action: authority.AuditRejected, Field: "gold_delta"},
	})
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "AUDIT_WRITE_FAILED", oopsErr.Code())
}
