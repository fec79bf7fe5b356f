package dice

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count; each die is in [1, expr.Sides];
// result.Total() is in [expr.Min(), expr.Max()]. Returns an error wrapping
// ErrInvalidDiceNotation if expr violates its invariant.
func Roll(expr Expression, src Source) (RollResult, error) {
	if err := expr.Validate(); err != nil {
		return RollResult{}, err
	}
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{
		Expression: expr.String(),
		Dice:       rolled,
		Modifier:   expr.Modifier,
	}, nil
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Postcondition: Returns a RollResult or a parse error wrapping ErrInvalidDiceNotation.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src)
}
