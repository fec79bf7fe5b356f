package testutil

import (
	"fmt"
	"sync"
)

// ScriptedSource is a dice.Source that replays a fixed sequence of die faces.
// Each value is the face that the next die shows (1-based), so a script of
// {20, 3} means "the next d20 shows 20, the die after that shows 3".
//
// Intn panics when the script is exhausted or when a face exceeds the die size,
// which turns a mis-scripted scenario into an immediate test failure.
type ScriptedSource struct {
	mu    sync.Mutex
	faces []int
	pos   int
}

// NewScriptedSource returns a ScriptedSource replaying faces in order.
func NewScriptedSource(faces ...int) *ScriptedSource {
	return &ScriptedSource{faces: faces}
}

// Intn returns the next scripted face minus one.
func (s *ScriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.faces) {
		panic(fmt.Sprintf("testutil: scripted source exhausted after %d rolls (next die d%d)", s.pos, n))
	}
	face := s.faces[s.pos]
	if face < 1 || face > n {
		panic(fmt.Sprintf("testutil: scripted face %d at position %d does not fit a d%d", face, s.pos, n))
	}
	s.pos++
	return face - 1
}

// Remaining reports how many scripted faces have not been consumed.
func (s *ScriptedSource) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.faces) - s.pos
}

// FixedSource returns the same face for every die, clamped to the die size.
type FixedSource struct{ Face int }

// Intn returns min(Face, n) - 1.
func (f FixedSource) Intn(n int) int {
	if f.Face > n {
		return n - 1
	}
	return f.Face - 1
}
