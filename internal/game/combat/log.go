package combat

// Tag labels the outcome of one logged action.
type Tag string

const (
	TagHit        Tag = "hit"
	TagMiss       Tag = "miss"
	TagKilled     Tag = "killed"
	TagFled       Tag = "fled"
	TagFleeFailed Tag = "flee_failed"
	TagDefended   Tag = "defended"
	TagUsedItem   Tag = "used_item"
)

// LogEntry is an immutable record of one resolved action.
type LogEntry struct {
	Round    int        `json:"round"`
	ActorID  string     `json:"actor_id"`
	Action   ActionKind `json:"action"`
	TargetID string     `json:"target_id,omitempty"`
	// Natural is the raw d20; Total includes the bonus.
	Natural  int `json:"natural,omitempty"`
	Total    int `json:"total,omitempty"`
	TargetAC int `json:"target_ac,omitempty"`
	Damage   int `json:"damage,omitempty"`
	// TargetHPRaw is the target's HP after damage before clamping at zero.
	TargetHPRaw int `json:"target_hp_raw"`
	Result      Tag `json:"result"`
}
