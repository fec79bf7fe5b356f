package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/session"
	"github.com/greggjuri/chaos-dungeon/internal/testutil"
)

func TestPostgres_SessionRoundTrip(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	ctx := context.Background()

	require.NoError(t, pc.Pool.Health(ctx, 5*time.Second))

	store := pc.Pool.Sessions()
	sess := newSession(t)

	_, err := store.Load(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, sess))
	sess.Turn = 1
	sess.Scene = "A damp corridor."
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Load(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Turn)
	assert.Equal(t, "A damp corridor.", got.Scene)
	assert.Equal(t, 12, got.Character.Gold())

	sink := pc.Pool.Audit()
	rec := authority.AuditRecord{
		ID: "01HZZ", At: time.Now().UTC(), Action: authority.AuditRejected,
		Field: "gold_delta", Proposed: "500", Intent: "explore",
	}
	require.NoError(t, sink.Record(ctx, sess.ID, 1, []authority.AuditRecord{rec}))
	// Replays are ignored.
	require.NoError(t, sink.Record(ctx, sess.ID, 1, []authority.AuditRecord{rec}))

	var n int
	require.NoError(t, pc.RawPool.QueryRow(ctx, `SELECT count(*) FROM resource_audit WHERE session_id = $1`, sess.ID).Scan(&n))
	assert.Equal(t, 1, n)
}
