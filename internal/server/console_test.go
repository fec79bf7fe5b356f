package server

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/greggjuri/chaos-dungeon/internal/game/character"
	"github.com/greggjuri/chaos-dungeon/internal/game/session"
	"github.com/greggjuri/chaos-dungeon/internal/gameserver"
)

type fakeTurns struct {
	sess   *session.Session
	played []string
	fail   map[string]bool
	kill   string
}

func (f *fakeTurns) Session(context.Context, string) (*session.Session, error) {
	return f.sess, nil
}

func (f *fakeTurns) PlayTurn(_ context.Context, _ string, text string) (*gameserver.TurnResult, error) {
	f.played = append(f.played, text)
	if f.fail[text] {
		return nil, errors.New("store offline")
	}
	next := f.sess.Clone()
	next.Turn++
	if text == f.kill {
		next.Character.ApplyDamage(next.Character.MaxHP())
	}
	f.sess = next
	return &gameserver.TurnResult{Session: next, Prose: "You " + text + "."}, nil
}

func newFakeTurns(t *testing.T) *fakeTurns {
	t.Helper()
	l, err := character.New("Aria", "fighter", character.WithGold(10),
		character.WithItems(character.ItemStack{ItemID: "torch", Quantity: 2}))
	require.NoError(t, err)
	return &fakeTurns{sess: session.New(l, time.Now()), fail: map[string]bool{}}
}

func TestConsole_PlaysLinesUntilQuit(t *testing.T) {
	turns := newFakeTurns(t)
	var out bytes.Buffer
	in := strings.NewReader("look around\n\n  \nstatus\nopen the door\nquit\nnever read\n")

	c := NewConsole(in, &out, turns, turns.sess.ID, zaptest.NewLogger(t))
	require.NoError(t, c.Start())

	assert.Equal(t, []string{"look around", "open the door"}, turns.played)
	text := out.String()
	assert.Contains(t, text, "Aria the fighter: HP 8/8, 10 gold, 0 XP [torch x2]")
	assert.Contains(t, text, "You look around.")
	assert.Contains(t, text, "Farewell.")
}

func TestConsole_SurvivesTurnErrors(t *testing.T) {
	turns := newFakeTurns(t)
	turns.fail["jump"] = true
	var out bytes.Buffer

	c := NewConsole(strings.NewReader("jump\nwait\n"), &out, turns, turns.sess.ID, zaptest.NewLogger(t))
	require.NoError(t, c.Start(), "EOF ends the console cleanly")

	assert.Equal(t, []string{"jump", "wait"}, turns.played)
	assert.Contains(t, out.String(), "The dungeon falters.")
}

func TestConsole_EndsOnDeath(t *testing.T) {
	turns := newFakeTurns(t)
	turns.kill = "pet the dragon"
	var out bytes.Buffer

	c := NewConsole(strings.NewReader("pet the dragon\nlook around\n"), &out, turns, turns.sess.ID, zaptest.NewLogger(t))
	require.NoError(t, c.Start())
	assert.Equal(t, []string{"pet the dragon"}, turns.played)
}

func TestConsole_StopAbandonsLoop(t *testing.T) {
	turns := newFakeTurns(t)
	c := NewConsole(strings.NewReader("look around\n"), &bytes.Buffer{}, turns, turns.sess.ID, zaptest.NewLogger(t))
	c.Stop()
	c.Stop()
	require.NoError(t, c.Start())
	assert.Empty(t, turns.played)
}
