package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
)

// AuditSink writes gate audit records to resource_audit.
type AuditSink struct {
	db Querier
}

// NewAuditSink creates an AuditSink backed by db.
func NewAuditSink(db Querier) *AuditSink {
	return &AuditSink{db: db}
}

// Record inserts recs for one turn. Records already present are ignored.
//
// Precondition: the session row must exist.
func (a *AuditSink) Record(ctx context.Context, sessionID string, turn int, recs []authority.AuditRecord) error {
	for _, r := range recs {
		_, err := a.db.Exec(ctx, `
			INSERT INTO resource_audit (id, session_id, turn, action, field, proposed, intent, detail, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING`,
			r.ID, sessionID, turn, string(r.Action), r.Field, r.Proposed, r.Intent, r.Detail, r.At,
		)
		if err != nil {
			return oops.Code("AUDIT_WRITE_FAILED").
				With("session_id", sessionID).
				With("audit_id", r.ID).
				Wrap(err)
		}
	}
	return nil
}
