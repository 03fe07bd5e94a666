package inst

import (
	"cxxsema/internal/source"
	"cxxsema/internal/symbols"
)

// DefaultMaxDepth bounds the active instantiation stack.
const DefaultMaxDepth = 1024

// Frame is one instantiation in progress.
type Frame struct {
	Template symbols.SymbolID
	Key      string
	Site     source.Span
}

// Stack is the chain of instantiations currently being produced.
type Stack struct {
	frames []Frame
	Max    int
}

// NewStack creates a stack limited to limit frames; limit <= 0 selects
// DefaultMaxDepth.
func NewStack(limit int) *Stack {
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	return &Stack{Max: limit}
}

// Push enters a frame. It reports false, leaving the stack unchanged, when
// the limit is reached.
func (s *Stack) Push(f Frame) bool {
	if len(s.frames) >= s.Max {
		return false
	}
	s.frames = append(s.frames, f)
	return true
}

// Pop leaves the innermost frame.
func (s *Stack) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func (s *Stack) Depth() int { return len(s.frames) }

// Active reports whether (template, key) is already being instantiated.
func (s *Stack) Active(template symbols.SymbolID, key string) bool {
	for _, f := range s.frames {
		if f.Template == template && f.Key == key {
			return true
		}
	}
	return false
}

// Frames returns the active frames, outermost first.
func (s *Stack) Frames() []Frame { return s.frames }
