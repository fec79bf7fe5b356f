// Package confirm implements the pre-combat confirmation gate: attacks on
// targets not classified as hostile are held until the player confirms.
package confirm

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Hostility is the classification of a prospective attack target.
type Hostility int

const (
	NonHostile Hostility = iota
	Hostile
)

// String returns the classification label.
func (h Hostility) String() string {
	if h == Hostile {
		return "hostile"
	}
	return "non_hostile"
}

// ParseHostility interprets a constrained single-word reply. Only an
// unambiguous "hostile" counts; everything else is NonHostile.
func ParseHostility(reply string) Hostility {
	word := strings.ToLower(strings.Trim(strings.TrimSpace(reply), ".!\"' \n"))
	if word == "hostile" {
		return Hostile
	}
	return NonHostile
}

// Pending is an attack awaiting player confirmation.
type Pending struct {
	TargetDescriptor string    `json:"target_descriptor"`
	OriginalAction   string    `json:"original_action"`
	CreatedAt        time.Time `json:"created_at"`
	// Enemies are the enemy types to spawn if the player confirms.
	Enemies []string `json:"enemies,omitempty"`
}

// Clone returns a deep copy.
func (p *Pending) Clone() *Pending {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Enemies = slices.Clone(p.Enemies)
	return &cp
}

// Decision is the gate's verdict on a prospective attack.
type Decision int

const (
	// Proceed means combat may begin immediately.
	Proceed Decision = iota
	// Hold means a Pending confirmation must be stored.
	Hold
)

// Evaluate decides whether an attack on a target of hostility h may proceed.
// When the gate is disabled every attack proceeds.
func Evaluate(enabled bool, h Hostility) Decision {
	if !enabled || h == Hostile {
		return Proceed
	}
	return Hold
}

// Classifier answers whether a target is hostile. ok is false when the
// classifier has no opinion and the next classifier should be asked.
type Classifier interface {
	ClassifyHostility(ctx context.Context, target, scene string) (h Hostility, ok bool, err error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, target, scene string) (Hostility, bool, error)

// ClassifyHostility calls f.
func (f ClassifierFunc) ClassifyHostility(ctx context.Context, target, scene string) (Hostility, bool, error) {
	return f(ctx, target, scene)
}

// Chain asks each classifier in order until one has an opinion. Errors are
// logged and skipped. With no opinion the result is NonHostile.
type Chain struct {
	classifiers []Classifier
	logger      *zap.Logger
}

// NewChain returns a Chain over classifiers; nil entries are skipped.
func NewChain(logger *zap.Logger, classifiers ...Classifier) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	var cs []Classifier
	for _, c := range classifiers {
		if c != nil {
			cs = append(cs, c)
		}
	}
	return &Chain{classifiers: cs, logger: logger}
}

// Classify returns the first opinion in the chain, defaulting to NonHostile.
func (c *Chain) Classify(ctx context.Context, target, scene string) Hostility {
	for i, cl := range c.classifiers {
		h, ok, err := cl.ClassifyHostility(ctx, target, scene)
		if err != nil {
			c.logger.Warn("hostility classifier failed",
				zap.Int("classifier", i),
				zap.String("target", target),
				zap.Error(err),
			)
			continue
		}
		if ok {
			c.logger.Debug("hostility classified", zap.Int("classifier", i), zap.String("target", target), zap.Stringer("hostility", h))
			return h
		}
	}
	return NonHostile
}
