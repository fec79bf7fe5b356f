// Package intent classifies raw player text into a coarse action kind using
// keyword patterns. It is a best-effort heuristic: a wrong guess only changes
// which path narrates the turn, never what the ledger allows.
package intent

import (
	"regexp"
	"strings"
)

// Kind is a classified player intent.
type Kind int

const (
	KindOther Kind = iota
	KindAttack
	KindDefend
	KindFlee
	KindUseItem
	KindSell
	KindBuy
	KindSearch
	KindConfirm
	KindCancel
)

var kindNames = [...]string{"other", "attack", "defend", "flee", "use_item", "sell", "buy", "search", "confirm", "cancel"}

// String returns the intent label.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsCommerce reports whether k is a buy or a sell.
func (k Kind) IsCommerce() bool { return k == KindSell || k == KindBuy }

// Intent is the classifier's best guess at what the player meant.
type Intent struct {
	Kind Kind
	Raw  string
	// Object is the free-text target, item or merchandise ("goblin", "torch").
	Object string
}

type rule struct {
	kind Kind
	re   *regexp.Regexp
}

const article = `(?:(?:the|a|an|my|some|that|this)\s+)?`

// Stated prices are matched so they stay out of Object; commerce always uses
// catalog prices.
const priceSuffix = `(?:\s+for\s+\d+\s*(?:gold|gp|coins?|pieces?)?)?`

// Rules are tried in order; the first match wins.
var rules = []rule{
	{KindConfirm, regexp.MustCompile(`^(?:y|yes|yeah|yep|confirm|do it|i'?m sure|attack anyway)[.!]*$`)},
	{KindCancel, regexp.MustCompile(`^(?:n|no|nope|cancel|never\s?mind|stop|don'?t|leave (?:it|them) alone)[.!]*$`)},
	{KindFlee, regexp.MustCompile(`\b(?:flee|run away|run|escape|retreat|bolt for)\b`)},
	{KindDefend, regexp.MustCompile(`\b(?:defend|block|parry|guard|brace|raise my shield)\b`)},
	{KindUseItem, regexp.MustCompile(`\b(?:use|drink|quaff|eat|consume|apply)\s+` + article + `(.+?)[.!]*$`)},
	{KindSell, regexp.MustCompile(`\bsell\s+` + article + `(.+?)` + priceSuffix + `[.!]*$`)},
	{KindBuy, regexp.MustCompile(`\b(?:buy|purchase)\s+` + article + `(.+?)` + priceSuffix + `[.!]*$`)},
	{KindSearch, regexp.MustCompile(`\b(?:search|loot|rummage|scavenge|check the bod(?:y|ies)|pick up|collect)\b`)},
	{KindAttack, regexp.MustCompile(`\b(?:attack|hit|strike|stab|slash|fight|kill|smash|punch|charge|swing at|shoot|cast at)\b\s*` + article + `(.*?)[.!]*$`)},
}

// Classify returns the first matching intent for text. Unmatched text is KindOther.
func Classify(text string) Intent {
	norm := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	for _, r := range rules {
		m := r.re.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		in := Intent{Kind: r.kind, Raw: text}
		if len(m) > 1 {
			in.Object = strings.TrimSpace(m[1])
		}
		return in
	}
	return Intent{Kind: KindOther, Raw: text}
}
