// Package gameserver drives turns end to end: it serializes work per
// session, consults the narrator, resolves mechanics through the engine and
// persists the result.
package gameserver

import (
	"context"
	"time"

	"github.com/samber/oops"
	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/combat"
	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
	"github.com/greggjuri/chaos-dungeon/internal/game/dice"
	"github.com/greggjuri/chaos-dungeon/internal/game/engine"
	"github.com/greggjuri/chaos-dungeon/internal/game/intent"
	"github.com/greggjuri/chaos-dungeon/internal/game/session"
	"github.com/greggjuri/chaos-dungeon/internal/narrator"
	"github.com/greggjuri/chaos-dungeon/internal/observability"
)

// Narrator operation labels used for metrics.
const (
	opIntent    = "intent"
	opHostility = "hostility"
	opNarrate   = "narrate"
)

// SourceFactory returns the dice source for one turn.
type SourceFactory func() dice.Source

// TurnResult is what one PlayTurn call produced.
type TurnResult struct {
	Session *session.Session
	Outcome engine.NarrationRequest
	Prose   string
	// Fallback reports that Prose came from the static renderer because the
	// narrator failed.
	Fallback bool
}

// Deps are the collaborators of a TurnService.
type Deps struct {
	Engine   *engine.Engine
	Store    session.Store
	Narrator narrator.Narrator
	// Hostility is consulted before the narrator when classifying attack
	// targets. May be nil.
	Hostility confirm.Classifier
	// Audit receives the gate's audit records. Nil logs them.
	Audit   AuditSink
	Metrics *observability.Metrics
	// Dice defaults to a freshly seeded source per turn.
	Dice           SourceFactory
	NarrateTimeout time.Duration
	StartingGold   int
	Now            func() time.Time
	Logger         *zap.Logger
}

// TurnService is the caller of the engine. It is safe for concurrent use;
// turns for the same session run one at a time.
type TurnService struct {
	engine         *engine.Engine
	store          session.Store
	narrator       narrator.Narrator
	hostility      *confirm.Chain
	audit          AuditSink
	metrics        *observability.Metrics
	dice           SourceFactory
	locks          *session.Locker
	narrateTimeout time.Duration
	startingGold   int
	now            func() time.Time
	logger         *zap.Logger
}

// NewTurnService wires a TurnService.
//
// Precondition: d.Engine, d.Store and d.Narrator must be non-nil.
func NewTurnService(d Deps) *TurnService {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &TurnService{
		engine:         d.Engine,
		store:          d.Store,
		narrator:       d.Narrator,
		audit:          d.Audit,
		metrics:        d.Metrics,
		dice:           d.Dice,
		locks:          session.NewLocker(),
		narrateTimeout: d.NarrateTimeout,
		startingGold:   d.StartingGold,
		now:            d.Now,
		logger:         logger,
	}
	if s.audit == nil {
		s.audit = NewLogAuditSink(logger)
	}
	if s.dice == nil {
		s.dice = s.seededSource
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.narrateTimeout <= 0 {
		s.narrateTimeout = 20 * time.Second
	}
	s.hostility = confirm.NewChain(logger, d.Hostility, confirm.ClassifierFunc(s.narratorHostility))
	return s
}

// seededSource draws a fresh seed per turn and logs it so a turn can be
// replayed with dice.NewSeededSource.
func (s *TurnService) seededSource() dice.Source {
	seed, err := dice.NewSeed()
	if err != nil {
		s.logger.Warn("seed generation failed, using crypto source", zap.Error(err))
		return dice.NewCryptoSource()
	}
	s.logger.Debug("turn seed", zap.Int64("seed", seed))
	return dice.NewSeededSource(seed)
}

// NewGame creates and persists a session for a new level-1 character.
//
// Postcondition: Returns the saved session or an error for an unknown class
// or a store failure.
func (s *TurnService) NewGame(ctx context.Context, name, class string) (*session.Session, error) {
	ledger, err := character.New(name, class, character.WithGold(s.startingGold))
	if err != nil {
		return nil, oops.Code("INVALID_CHARACTER").With("class", class).Wrap(err)
	}
	sess := session.New(ledger, s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("game created",
		zap.String("session_id", sess.ID),
		zap.String("name", name),
		zap.String("class", ledger.Class),
	)
	return sess, nil
}

// Session returns the stored session.
func (s *TurnService) Session(ctx context.Context, id string) (*session.Session, error) {
	return s.store.Load(ctx, id)
}

// PlayTurn resolves text against the stored session id.
//
// Postcondition: on success the new state is persisted and the returned
// prose describes it. A narrator failure never fails the turn.
func (s *TurnService) PlayTurn(ctx context.Context, id, text string) (*TurnResult, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("session_id", id), zap.Int("turn", sess.Turn+1))

	in := engine.Input{
		Text:     text,
		Proposed: s.proposedIntent(ctx, sess, text, logger),
		Now:      s.now(),
	}
	if target, ok := attackTarget(sess, text, in.Proposed); ok {
		h := s.hostility.Classify(ctx, target, sess.Scene)
		in.TargetHostility = &h
	}

	start := time.Now()
	next, outcome := s.engine.ProcessTurn(sess, in, s.dice())
	s.recordOutcome(outcome, time.Since(start))

	prose, fallback := s.narrate(ctx, outcome, sess.Scene, logger)
	next.Scene = prose

	if err := s.store.Save(ctx, next); err != nil {
		return nil, oops.With("session_id", id).With("turn", next.Turn).Wrapf(err, "saving turn")
	}
	if len(outcome.Audit) > 0 {
		if err := s.audit.Record(ctx, id, next.Turn, outcome.Audit); err != nil {
			logger.Warn("audit write failed", zap.Int("records", len(outcome.Audit)), zap.Error(err))
		}
	}

	logger.Info("turn resolved",
		zap.String("outcome", string(outcome.Kind)),
		zap.String("mode", next.Mode().String()),
		zap.Int("hp", outcome.Player.HP),
		zap.Int("gold", outcome.Player.Gold),
	)
	return &TurnResult{Session: next, Outcome: outcome, Prose: prose, Fallback: fallback}, nil
}

func (s *TurnService) proposedIntent(ctx context.Context, sess *session.Session, text string, logger *zap.Logger) authority.ProposedDelta {
	req := narrator.IntentRequest{PlayerText: text, Scene: sess.Scene}
	if sess.Mode() == session.ModeInCombat {
		req.InCombat = true
		for _, en := range sess.Combat.LivingEnemies() {
			req.Enemies = append(req.Enemies, en.DisplayName)
		}
	}
	start := time.Now()
	proposed, err := s.narrator.ParseProposedIntent(ctx, req)
	if err != nil {
		s.recordNarrator(opIntent, observability.StatusError, time.Since(start))
		logger.Warn("narrator intent unavailable, proceeding without proposals", zap.Error(err))
		return authority.ProposedDelta{}
	}
	s.recordNarrator(opIntent, observability.StatusSuccess, time.Since(start))
	return proposed
}

func (s *TurnService) narratorHostility(ctx context.Context, target, scene string) (confirm.Hostility, bool, error) {
	start := time.Now()
	h, ok, err := s.narrator.ClassifyHostility(ctx, target, scene)
	status := observability.StatusSuccess
	if err != nil {
		status = observability.StatusError
	}
	s.recordNarrator(opHostility, status, time.Since(start))
	return h, ok, err
}

// narrate asks the narrator for prose under a timeout, falling back to the
// static renderer.
func (s *TurnService) narrate(ctx context.Context, req engine.NarrationRequest, scene string, logger *zap.Logger) (string, bool) {
	nctx, cancel := context.WithTimeout(ctx, s.narrateTimeout)
	defer cancel()

	start := time.Now()
	prose, err := s.narrator.Narrate(nctx, req, scene)
	if err == nil && prose != "" {
		s.recordNarrator(opNarrate, observability.StatusSuccess, time.Since(start))
		return prose, false
	}
	logger.Warn("narration failed, using static description", zap.Error(err))
	s.recordNarrator(opNarrate, observability.StatusFallback, time.Since(start))
	return narrator.Describe(req), true
}

func (s *TurnService) recordOutcome(out engine.NarrationRequest, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.TurnsTotal.WithLabelValues(string(out.Kind)).Inc()
	s.metrics.TurnDuration.Observe(d.Seconds())
	for _, r := range out.Audit {
		s.metrics.ResourceAuditTotal.WithLabelValues(string(r.Action), r.Field).Inc()
	}
	if out.CombatResult != combat.ResultNone {
		s.metrics.CombatsEndedTotal.WithLabelValues(out.CombatResult.String()).Inc()
	}
	if out.Loot != nil {
		s.metrics.LootClaimedGoldTotal.Add(float64(out.Loot.Gold))
	}
}

func (s *TurnService) recordNarrator(op, status string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordNarratorCall(op, status, d)
	}
}

// attackTarget reports the descriptor to classify when text is an attack
// made outside combat.
func attackTarget(sess *session.Session, text string, proposed authority.ProposedDelta) (string, bool) {
	if sess.Mode() == session.ModeInCombat || sess.Character.IsDead() {
		return "", false
	}
	in := intent.Classify(text)
	if in.Kind != intent.KindAttack {
		return "", false
	}
	if in.Object != "" {
		return in.Object, true
	}
	if len(proposed.Enemies) > 0 {
		return proposed.Enemies[0], true
	}
	return "", false
}
