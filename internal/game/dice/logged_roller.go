package dice

import "go.uber.org/zap"

var (
	d20        = Expression{Count: 1, Sides: 20}
	initiative = Expression{Count: 1, Sides: 6}
)

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with expression, dice values, modifier, and total.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src must be non-nil. A nil logger disables logging.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Roll evaluates expr and logs the result at debug level.
//
// Postcondition: returns the RollResult, or an error wrapping ErrInvalidDiceNotation.
func (r *Roller) Roll(expr Expression) (RollResult, error) {
	result, err := Roll(expr, r.src)
	if err != nil {
		return RollResult{}, err
	}
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a parse error wrapping ErrInvalidDiceNotation.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e)
}

// RollD20WithBonus rolls 1d20 and adds bonus.
//
// Postcondition: natural is in [1, 20]; total == natural + bonus.
func (r *Roller) RollD20WithBonus(bonus int) (total, natural int) {
	res, _ := r.Roll(d20)
	natural = res.Total()
	return natural + bonus, natural
}

// RollInitiative rolls 1d6.
//
// Postcondition: result is in [1, 6].
func (r *Roller) RollInitiative() int {
	res, _ := r.Roll(initiative)
	return res.Total()
}

// Die returns a single roll in [1, sides]. It is used for weighted selection.
//
// Precondition: sides >= 1.
func (r *Roller) Die(sides int) int {
	v := r.src.Intn(sides) + 1
	r.logger.Debug("die roll", zap.Int("sides", sides), zap.Int("value", v))
	return v
}
