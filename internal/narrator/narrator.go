// Package narrator turns resolved turn outcomes into prose and asks a language
// model for its best guess at a player's intent. Nothing a narrator returns is
// trusted for gold or inventory; proposals pass through the authority gate.
package narrator

import (
	"context"
	"errors"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
	"github.com/greggjuri/chaos-dungeon/internal/game/engine"
)

// ErrEmptyReply is returned when a model answers with no text.
var ErrEmptyReply = errors.New("narrator: empty reply")

// IntentRequest is the context handed to ParseProposedIntent.
type IntentRequest struct {
	PlayerText string
	Scene      string
	InCombat   bool
	// Enemies are the display names of living enemies, if in combat.
	Enemies []string
}

// Narrator is the adapter contract for prose generation.
type Narrator interface {
	// Narrate describes a resolved outcome. It must not alter any number.
	Narrate(ctx context.Context, req engine.NarrationRequest, scene string) (string, error)
	// ParseProposedIntent returns the model's guess at what the player's
	// input changes. Replies that fail schema validation yield an error.
	ParseProposedIntent(ctx context.Context, in IntentRequest) (authority.ProposedDelta, error)
	// ClassifyHostility implements confirm.Classifier.
	ClassifyHostility(ctx context.Context, target, scene string) (confirm.Hostility, bool, error)
}

// Completion is one prompt sent to a model backend.
type Completion struct {
	System    string
	Prompt    string
	MaxTokens int
	// JSON asks the backend for a JSON-only reply where supported.
	JSON bool
}

// Completer is a single-shot text completion backend.
type Completer interface {
	Complete(ctx context.Context, c Completion) (string, error)
}

var _ confirm.Classifier = Narrator(nil)
