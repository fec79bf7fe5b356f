package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/session"
	"github.com/greggjuri/chaos-dungeon/internal/gameserver"
)

// TurnPlayer is the part of gameserver.TurnService the console drives.
type TurnPlayer interface {
	PlayTurn(ctx context.Context, id, text string) (*gameserver.TurnResult, error)
	Session(ctx context.Context, id string) (*session.Session, error)
}

// Console reads player lines from in and writes narration to out for a
// single session. It finishes on EOF, "quit", or the character's death.
type Console struct {
	in        io.Reader
	out       io.Writer
	turns     TurnPlayer
	sessionID string
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewConsole creates a Console for sessionID.
//
// Precondition: in, out and turns must be non-nil.
func NewConsole(in io.Reader, out io.Writer, turns TurnPlayer, sessionID string, logger *zap.Logger) *Console {
	ctx, cancel := context.WithCancel(context.Background())
	return &Console{
		in:        in,
		out:       out,
		turns:     turns,
		sessionID: sessionID,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs the read loop.
func (c *Console) Start() error {
	sess, err := c.turns.Session(c.ctx, c.sessionID)
	if err != nil {
		return err
	}
	c.printf("%s\n", status(sess))
	if sess.Scene != "" {
		c.printf("%s\n", sess.Scene)
	}

	scanner := bufio.NewScanner(c.in)
	for {
		c.printf("> ")
		if !scanner.Scan() {
			c.printf("\n")
			return scanner.Err()
		}
		if c.ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			c.printf("Farewell.\n")
			return nil
		case "status":
			sess, err := c.turns.Session(c.ctx, c.sessionID)
			if err != nil {
				return err
			}
			c.printf("%s\n", status(sess))
			continue
		}

		res, err := c.turns.PlayTurn(c.ctx, c.sessionID, line)
		if err != nil {
			if c.ctx.Err() != nil {
				return nil
			}
			c.logger.Error("turn failed", zap.String("session_id", c.sessionID), zap.Error(err))
			c.printf("The dungeon falters. Try again.\n")
			continue
		}
		c.printf("%s\n", res.Prose)
		if res.Session.Character.IsDead() {
			return nil
		}
	}
}

// Stop abandons any in-flight turn. A blocked read returns on the next line.
func (c *Console) Stop() {
	c.once.Do(c.cancel)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// status renders a one-line summary of the character and any fight.
func status(s *session.Session) string {
	l := s.Character
	var b strings.Builder
	fmt.Fprintf(&b, "%s the %s: HP %d/%d, %d gold, %d XP", l.Name, l.Class, l.HP(), l.MaxHP(), l.Gold(), l.XP)
	if inv := l.Inventory(); len(inv) > 0 {
		parts := make([]string, 0, len(inv))
		for _, st := range inv {
			parts = append(parts, fmt.Sprintf("%s x%d", st.ItemID, st.Quantity))
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, ", "))
	}
	if s.Mode() == session.ModeInCombat {
		names := make([]string, 0)
		for _, en := range s.Combat.LivingEnemies() {
			names = append(names, fmt.Sprintf("%s (%d HP)", en.DisplayName, en.HP))
		}
		fmt.Fprintf(&b, "; fighting %s", strings.Join(names, ", "))
	}
	return b.String()
}
