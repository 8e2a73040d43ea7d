package lexer

import (
	"testing"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}

func equalKinds(a []Kind, b ...Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestLexLineBasics(t *testing.T) {
	lx := New(nil)
	tests := []struct {
		name string
		line string
		want []Kind
	}{
		{"keyword and identifier", "func main", []Kind{KindKeyword, KindWhitespace, KindIdentifier}},
		{"number", "x1 = 42", []Kind{KindIdentifier, KindWhitespace, KindSymbol, KindWhitespace, KindNumber}},
		{"hex number", "0xFF_0f", []Kind{KindNumber}},
		{"string", `"hi \" there"+1`, []Kind{KindString, KindSymbol, KindNumber}},
		{"unterminated string stops at eol", "\"open\n", []Kind{KindString, KindWhitespace}},
		{"line comment wins over symbol", "x // y + z", []Kind{KindIdentifier, KindWhitespace, KindLineComment}},
		{"inline block comment", "a /* b */ c", []Kind{KindIdentifier, KindWhitespace, KindBlockComment, KindWhitespace, KindIdentifier}},
		{"unicode identifier", "héllo", []Kind{KindIdentifier}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := lx.LexLine([]byte(tt.line), 0, State{})
			if got := kinds(res.Tokens); !equalKinds(got, tt.want...) {
				t.Errorf("tokens = %v, want %v", got, tt.want)
			}
			if res.State.Mode != ModeDefault {
				t.Errorf("end mode = %v, want default", res.State.Mode)
			}
		})
	}
}

func TestTokensCoverLine(t *testing.T) {
	lx := New(nil)
	line := []byte("for i := 0; i < len(xs); i++ { /* hm */ }\n")
	res := lx.LexLine(line, 0, State{})
	var pos uint32
	for _, tok := range res.Tokens {
		if tok.StartCol != pos {
			t.Fatalf("gap before %v at %d", tok, pos)
		}
		if tok.EndCol <= tok.StartCol {
			t.Fatalf("empty token %v", tok)
		}
		pos = tok.EndCol
	}
	if pos != uint32(len(line)) {
		t.Fatalf("tokens end at %d, want %d", pos, len(line))
	}
}

func TestBlockCommentAcrossLines(t *testing.T) {
	lx := New(nil)

	r1 := lx.LexLine([]byte("a /* open\n"), 0, State{})
	if r1.State.Mode != ModeBlockComment {
		t.Fatalf("row 0 end mode = %v, want block comment", r1.State.Mode)
	}

	r2 := lx.LexLine([]byte("all comment\n"), 1, r1.State)
	if !equalKinds(kinds(r2.Tokens), KindBlockComment) {
		t.Fatalf("row 1 tokens = %v, want one block comment", r2.Tokens)
	}
	if r2.State.Mode != ModeBlockComment {
		t.Fatalf("row 1 end mode = %v, want block comment", r2.State.Mode)
	}

	r3 := lx.LexLine([]byte("done */ x\n"), 2, r2.State)
	if r3.State.Mode != ModeDefault {
		t.Fatalf("row 2 end mode = %v, want default", r3.State.Mode)
	}
	got := kinds(r3.Tokens)
	if !equalKinds(got, KindBlockComment, KindWhitespace, KindIdentifier, KindWhitespace) {
		t.Fatalf("row 2 tokens = %v", got)
	}
}

func TestBracketColorCycling(t *testing.T) {
	lx := New(nil)
	res := lx.LexLine([]byte("([({"), 0, State{})
	want := []uint8{0, 1, 2, 0}
	for i, tok := range res.Tokens {
		if tok.Kind != KindBracket || tok.ColorIndex != want[i] {
			t.Errorf("token %d = %v color %d, want bracket color %d", i, tok.Kind, tok.ColorIndex, want[i])
		}
	}
	if res.State.Depth() != 4 {
		t.Errorf("depth = %d, want 4", res.State.Depth())
	}

	// Closing pops back through the same colors.
	res2 := lx.LexLine([]byte("})])"), 1, res.State)
	wantClose := []uint8{0, 2, 1, 0}
	for i, tok := range res2.Tokens {
		if tok.Kind != KindBracket || tok.ColorIndex != wantClose[i] {
			t.Errorf("close %d = %v color %d, want bracket color %d", i, tok.Kind, tok.ColorIndex, wantClose[i])
		}
	}
	if res2.State.Depth() != 0 {
		t.Errorf("depth = %d, want 0", res2.State.Depth())
	}
}

func TestUnmatchedCloserIsSymbol(t *testing.T) {
	lx := New(nil)

	res := lx.LexLine([]byte(")"), 0, State{})
	if !equalKinds(kinds(res.Tokens), KindSymbol) {
		t.Fatalf("tokens = %v, want one symbol", res.Tokens)
	}

	// Mismatched pair: the closer is a symbol and the opener stays on
	// the stack.
	res = lx.LexLine([]byte("(]"), 0, State{})
	if !equalKinds(kinds(res.Tokens), KindBracket, KindSymbol) {
		t.Fatalf("tokens = %v, want bracket then symbol", res.Tokens)
	}
	if res.State.Depth() != 1 {
		t.Errorf("depth = %d, want 1", res.State.Depth())
	}
}

func TestBracketEntryPosition(t *testing.T) {
	lx := New(nil)
	res := lx.LexLine([]byte("ab("), 7, State{})
	top, ok := res.State.peek()
	if !ok {
		t.Fatal("stack empty")
	}
	if top.Char != '(' || top.Row != 7 || top.Col != 2 {
		t.Errorf("entry = %+v, want ( at 7:2", top)
	}
}

func TestFragmentStructure(t *testing.T) {
	lx := New(nil)
	res := lx.LexLine([]byte("f(x)"), 0, State{})
	frag := res.Fragment
	if len(frag.Nodes) != 2 {
		t.Fatalf("top-level nodes = %d, want 2", len(frag.Nodes))
	}
	blk := frag.Nodes[1]
	if blk.Kind != NodeBlock || !blk.Closed {
		t.Fatalf("node 1 = %+v, want closed block", blk)
	}
	if len(blk.Children) != 1 || blk.Children[0].Token.Kind != KindIdentifier {
		t.Errorf("block children = %+v, want one identifier leaf", blk.Children)
	}
	if blk.Token.StartCol != 1 || blk.Close.StartCol != 3 {
		t.Errorf("block delimiters = %v / %v", blk.Token, blk.Close)
	}
}

func TestFragmentCrossLineClose(t *testing.T) {
	lx := New(nil)
	r1 := lx.LexLine([]byte("f(\n"), 0, State{})
	if len(r1.Fragment.Nodes) != 2 || r1.Fragment.Nodes[1].Closed {
		t.Fatalf("row 0 fragment = %+v, want open block", r1.Fragment.Nodes)
	}

	r2 := lx.LexLine([]byte(")\n"), 1, r1.State)
	// The closer matches a bracket from row 0, so it is a leaf here.
	if len(r2.Fragment.Nodes) != 2 || r2.Fragment.Nodes[0].Kind != NodeLeaf {
		t.Fatalf("row 1 fragment = %+v, want leaf closer", r2.Fragment.Nodes)
	}
	if r2.Fragment.Nodes[0].Token.Kind != KindBracket {
		t.Errorf("closer kind = %v, want bracket", r2.Fragment.Nodes[0].Token.Kind)
	}
	if r2.State.Depth() != 0 {
		t.Errorf("depth = %d, want 0", r2.State.Depth())
	}
}

func TestStateEqualClone(t *testing.T) {
	res := New(nil).LexLine([]byte("({"), 0, State{})
	st := res.State
	cp := st.Clone()
	if !st.Equal(cp) {
		t.Fatal("clone not equal")
	}
	cp.Brackets[0].Col = 99
	if st.Equal(cp) {
		t.Fatal("clone shares bracket stack")
	}
	if st.Equal(State{}) || (State{}).Equal(st) {
		t.Fatal("non-empty state equal to empty")
	}
}
