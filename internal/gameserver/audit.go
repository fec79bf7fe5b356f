package gameserver

import (
	"context"

	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
)

// AuditSink persists the resource gate's audit records for one turn.
type AuditSink interface {
	Record(ctx context.Context, sessionID string, turn int, recs []authority.AuditRecord) error
}

// LogAuditSink writes audit records to the structured log. It is used when
// the session store has no audit table.
type LogAuditSink struct {
	logger *zap.Logger
}

// NewLogAuditSink returns a LogAuditSink writing to logger.
func NewLogAuditSink(logger *zap.Logger) *LogAuditSink {
	return &LogAuditSink{logger: logger}
}

// Record logs one line per record. It never fails.
func (s *LogAuditSink) Record(_ context.Context, sessionID string, turn int, recs []authority.AuditRecord) error {
	for _, r := range recs {
		s.logger.Info("resource audit",
			zap.String("audit_id", r.ID),
			zap.String("session_id", sessionID),
			zap.Int("turn", turn),
			zap.String("action", string(r.Action)),
			zap.String("field", r.Field),
			zap.String("proposed", r.Proposed),
			zap.String("intent", r.Intent),
			zap.String("detail", r.Detail),
			zap.Time("at", r.At),
		)
	}
	return nil
}
