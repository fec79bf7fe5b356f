package narrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/greggjuri/chaos-dungeon/internal/game/authority"
	"github.com/greggjuri/chaos-dungeon/internal/game/confirm"
	"github.com/greggjuri/chaos-dungeon/internal/game/engine"
)

// LLMOptions tune an LLM narrator.
type LLMOptions struct {
	MaxTokens int
	// Retries is the number of extra attempts after a failed call.
	Retries   int
	RetryBase time.Duration
}

// LLM is a Narrator backed by a language model Completer.
type LLM struct {
	model  Completer
	opts   LLMOptions
	system string
	schema []byte
	logger *zap.Logger
}

// NewLLM wraps model.
//
// Precondition: model must not be nil.
func NewLLM(model Completer, opts LLMOptions, logger *zap.Logger) (*LLM, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 600
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 250 * time.Millisecond
	}
	schema, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	return &LLM{model: model, opts: opts, system: systemPrompt(), schema: schema, logger: logger}, nil
}

// Narrate implements Narrator.
func (n *LLM) Narrate(ctx context.Context, req engine.NarrationRequest, scene string) (string, error) {
	prompt, err := narratePrompt(req, scene)
	if err != nil {
		return "", err
	}
	return n.complete(ctx, "narrate", Completion{System: n.system, Prompt: prompt, MaxTokens: n.opts.MaxTokens})
}

// ParseProposedIntent implements Narrator.
func (n *LLM) ParseProposedIntent(ctx context.Context, in IntentRequest) (authority.ProposedDelta, error) {
	prompt, err := intentPrompt(in, n.schema)
	if err != nil {
		return authority.ProposedDelta{}, err
	}
	reply, err := n.complete(ctx, "intent", Completion{System: n.system, Prompt: prompt, MaxTokens: n.opts.MaxTokens, JSON: true})
	if err != nil {
		return authority.ProposedDelta{}, err
	}
	d, err := DecodeProposedDelta([]byte(reply))
	if err != nil {
		n.logger.Warn("narrator intent reply rejected", zap.String("reply", reply), zap.Error(err))
		return authority.ProposedDelta{}, err
	}
	return d, nil
}

// ClassifyHostility implements confirm.Classifier with a one-word prompt.
func (n *LLM) ClassifyHostility(ctx context.Context, target, scene string) (confirm.Hostility, bool, error) {
	prompt, err := hostilityPrompt(target, scene)
	if err != nil {
		return confirm.NonHostile, false, err
	}
	reply, err := n.complete(ctx, "hostility", Completion{System: n.system, Prompt: prompt, MaxTokens: 8})
	if err != nil {
		return confirm.NonHostile, false, err
	}
	return confirm.ParseHostility(reply), true, nil
}

// complete calls the model with bounded exponential retries. Context
// cancellation is never retried.
func (n *LLM) complete(ctx context.Context, op string, c Completion) (string, error) {
	backoff := retry.WithMaxRetries(uint64(max(0, n.opts.Retries)), retry.NewExponential(n.opts.RetryBase))
	attempt := 0
	var reply string
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		out, err := n.model.Complete(ctx, c)
		if err == nil && strings.TrimSpace(out) == "" {
			err = ErrEmptyReply
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			n.logger.Debug("narrator call failed", zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
			return retry.RetryableError(err)
		}
		reply = strings.TrimSpace(out)
		return nil
	})
	if err != nil {
		return "", oops.Code("NARRATOR_UNAVAILABLE").With("op", op).With("attempts", attempt).Wrap(err)
	}
	return reply, nil
}
