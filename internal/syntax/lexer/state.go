package lexer

// Mode is the coarse lexer mode carried between lines.
type Mode uint8

const (
	// ModeDefault lexes ordinary code.
	ModeDefault Mode = iota
	// ModeBlockComment continues a block comment opened on an earlier
	// line.
	ModeBlockComment
)

// BracketEntry records one unclosed opening bracket.
type BracketEntry struct {
	Char byte
	Row  uint32
	Col  uint32
	// ColorIndex is the nesting depth modulo the color cycle at the
	// time the bracket opened.
	ColorIndex uint8
}

// colorCycle is the number of bracket highlight classes before colors
// repeat.
const colorCycle = 3

// State is the full carry-state threaded between consecutive lines: the
// lexer mode plus the stack of unclosed brackets. It is the unit of
// comparison for the highlighter's line cache, so Equal must be exact.
type State struct {
	Mode     Mode
	Brackets []BracketEntry
}

// Clone returns a state with an independent bracket stack.
func (s State) Clone() State {
	out := State{Mode: s.Mode}
	if len(s.Brackets) > 0 {
		out.Brackets = make([]BracketEntry, len(s.Brackets))
		copy(out.Brackets, s.Brackets)
	}
	return out
}

// Equal reports whether two states are identical, stack contents
// included.
func (s State) Equal(o State) bool {
	if s.Mode != o.Mode || len(s.Brackets) != len(o.Brackets) {
		return false
	}
	for i := range s.Brackets {
		if s.Brackets[i] != o.Brackets[i] {
			return false
		}
	}
	return true
}

// Depth returns the current bracket nesting depth.
func (s State) Depth() int { return len(s.Brackets) }

func (s *State) push(e BracketEntry) {
	s.Brackets = append(s.Brackets, e)
}

func (s *State) pop() (BracketEntry, bool) {
	if len(s.Brackets) == 0 {
		return BracketEntry{}, false
	}
	e := s.Brackets[len(s.Brackets)-1]
	s.Brackets = s.Brackets[:len(s.Brackets)-1]
	return e, true
}

func (s *State) peek() (BracketEntry, bool) {
	if len(s.Brackets) == 0 {
		return BracketEntry{}, false
	}
	return s.Brackets[len(s.Brackets)-1], true
}
