package dice

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// ErrInvalidDiceNotation is returned when a dice expression cannot be parsed or
// violates Count >= 1, Sides >= 2.
var ErrInvalidDiceNotation = errors.New("invalid dice notation")

// Expression is a parsed dice expression ready to be rolled.
//
// Invariant: Count >= 1, Sides >= 2 for any Expression produced by Parse or New.
type Expression struct {
	Count    int
	Sides    int
	Modifier int
}

// New builds an Expression from its parts.
//
// Postcondition: Returns a valid Expression or an error wrapping ErrInvalidDiceNotation.
func New(count, sides, modifier int) (Expression, error) {
	e := Expression{Count: count, Sides: sides, Modifier: modifier}
	if err := e.Validate(); err != nil {
		return Expression{}, err
	}
	return e, nil
}

// Validate reports whether e satisfies the expression invariant.
func (e Expression) Validate() error {
	if e.Count < 1 {
		return fmt.Errorf("%w: die count must be >= 1, got %d", ErrInvalidDiceNotation, e.Count)
	}
	if e.Sides < 2 {
		return fmt.Errorf("%w: die sides must be >= 2, got %d", ErrInvalidDiceNotation, e.Sides)
	}
	return nil
}

// String returns the canonical notation, e.g. "1d8-1".
func (e Expression) String() string {
	switch {
	case e.Modifier > 0:
		return fmt.Sprintf("%dd%d+%d", e.Count, e.Sides, e.Modifier)
	case e.Modifier < 0:
		return fmt.Sprintf("%dd%d%d", e.Count, e.Sides, e.Modifier)
	default:
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
}

// Min returns the lowest total the expression can produce.
func (e Expression) Min() int { return e.Count + e.Modifier }

// Max returns the highest total the expression can produce.
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }

// MarshalText encodes the expression in canonical notation.
func (e Expression) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText parses notation into e, so content files may write "1d8-1".
func (e *Expression) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

var notationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Die", Pattern: `[dD]`},
	{Name: "Sign", Pattern: `[+-]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// notation is the grammar for "NdS+M"; N and the modifier are optional.
type notation struct {
	Count    string    `parser:"@Int?"`
	Sides    string    `parser:"Die @Int"`
	Modifier *modifier `parser:"@@?"`
}

type modifier struct {
	Sign  string `parser:"@Sign"`
	Value string `parser:"@Int"`
}

var notationParser = participle.MustBuild[notation](
	participle.Lexer(notationLexer),
	participle.Elide("Whitespace"),
)

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2d6+3", "1d8-1".
//
// Postcondition: Returns a valid Expression or an error wrapping ErrInvalidDiceNotation.
// Malformed input never falls back to a default expression.
func Parse(expr string) (Expression, error) {
	if expr == "" {
		return Expression{}, fmt.Errorf("%w: empty expression", ErrInvalidDiceNotation)
	}
	ast, err := notationParser.ParseString("", expr)
	if err != nil {
		return Expression{}, fmt.Errorf("%w: %q: %v", ErrInvalidDiceNotation, expr, err)
	}

	count := 1
	if ast.Count != "" {
		if count, err = strconv.Atoi(ast.Count); err != nil {
			return Expression{}, fmt.Errorf("%w: die count in %q: %v", ErrInvalidDiceNotation, expr, err)
		}
	}
	sides, err := strconv.Atoi(ast.Sides)
	if err != nil {
		return Expression{}, fmt.Errorf("%w: die sides in %q: %v", ErrInvalidDiceNotation, expr, err)
	}
	mod := 0
	if ast.Modifier != nil {
		if mod, err = strconv.Atoi(ast.Modifier.Value); err != nil {
			return Expression{}, fmt.Errorf("%w: modifier in %q: %v", ErrInvalidDiceNotation, expr, err)
		}
		if ast.Modifier.Sign == "-" {
			mod = -mod
		}
	}

	e := Expression{Count: count, Sides: sides, Modifier: mod}
	if err := e.Validate(); err != nil {
		return Expression{}, fmt.Errorf("%q: %w", expr, err)
	}
	return e, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
