package rowindex

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func lf() []byte { return []byte("\n") }

func sum(v []int64) int64 {
	var s int64
	for _, x := range v {
		s += x
	}
	return s
}

func TestNewHasOneEmptyRow(t *testing.T) {
	ix := New(lf(), 4)
	if ix.Rows() != 1 {
		t.Errorf("Rows() = %d, want 1", ix.Rows())
	}
	if ix.Total() != 0 {
		t.Errorf("Total() = %d, want 0", ix.Total())
	}
}

func TestFromBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		rows    uint32
		lengths []int64
	}{
		{"empty", "", 1, []int64{0}},
		{"no terminator", "abc", 1, []int64{3}},
		{"one terminator", "ab\nc", 2, []int64{3, 1}},
		{"trailing terminator", "ab\n", 2, []int64{3, 0}},
		{"only terminators", "\n\n", 3, []int64{1, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := FromBytes([]byte(tt.input), lf(), 4)
			if ix.Rows() != tt.rows {
				t.Errorf("Rows() = %d, want %d", ix.Rows(), tt.rows)
			}
			got := ix.RowLengths()
			if len(got) != len(tt.lengths) {
				t.Fatalf("RowLengths() = %v, want %v", got, tt.lengths)
			}
			for i := range got {
				if got[i] != tt.lengths[i] {
					t.Errorf("row %d length = %d, want %d", i, got[i], tt.lengths[i])
				}
			}
			if sum(got) != int64(len(tt.input)) {
				t.Errorf("sum of lengths = %d, want %d", sum(got), len(tt.input))
			}
		})
	}
}

func TestCRLFTerminator(t *testing.T) {
	ix := FromBytes([]byte("ab\r\ncd\r\n"), []byte("\r\n"), 4)
	if ix.Rows() != 3 {
		t.Fatalf("Rows() = %d, want 3", ix.Rows())
	}
	want := []int64{4, 4, 0}
	for i, l := range ix.RowLengths() {
		if l != want[i] {
			t.Errorf("row %d length = %d, want %d", i, l, want[i])
		}
	}
}

func TestInsertSplitsRow(t *testing.T) {
	ix := FromBytes([]byte("abcdef"), lf(), 4)
	if err := ix.Insert(0, 3, []byte("X\nY\nZ")); err != nil {
		t.Fatal(err)
	}
	// "abcX\nY\nZdef"
	want := []int64{5, 2, 4}
	got := ix.RowLengths()
	if len(got) != len(want) {
		t.Fatalf("RowLengths() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d length = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDeleteMergesRows(t *testing.T) {
	ix := FromBytes([]byte("ab\ncd\nef"), lf(), 4)
	// Delete "\ncd\n" starting at (0,2): rows merge around the gap.
	if err := ix.Delete(0, 2, 4); err != nil {
		t.Fatal(err)
	}
	got := ix.RowLengths()
	if len(got) != 1 || got[0] != 4 {
		t.Errorf("RowLengths() = %v, want [4]", got)
	}
}

func TestDeleteTerminatorAtColumnZeroMerges(t *testing.T) {
	// "A\nB": deleting the terminator addressed at (1,0) merges row 1
	// into row 0.
	ix := FromBytes([]byte("A\nB"), lf(), 4)
	if err := ix.Delete(1, 0, 1); err != nil {
		t.Fatal(err)
	}
	if ix.Rows() != 1 {
		t.Fatalf("Rows() = %d, want 1", ix.Rows())
	}
	if ix.RowLen(0) != 2 {
		t.Errorf("RowLen(0) = %d, want 2", ix.RowLen(0))
	}
}

func TestDeleteCRLFTerminatorAtColumnZero(t *testing.T) {
	ix := FromBytes([]byte("A\r\nB"), []byte("\r\n"), 4)
	if err := ix.Delete(1, 0, 2); err != nil {
		t.Fatal(err)
	}
	if ix.Rows() != 1 || ix.RowLen(0) != 2 {
		t.Errorf("got %v rows, lengths %v; want 1 row of length 2", ix.Rows(), ix.RowLengths())
	}
}

func TestGetAndSerial(t *testing.T) {
	content := strings.Repeat("0123456789\n", 50)
	ix := FromBytes([]byte(content), lf(), 8)

	for r := uint32(0); r < ix.Rows(); r++ {
		off, err := ix.Get(r)
		if err != nil {
			t.Fatalf("Get(%d): %v", r, err)
		}
		if off != int64(r)*11 {
			t.Errorf("Get(%d) = %d, want %d", r, off, int64(r)*11)
		}
	}

	s, err := ix.Serial(3, 7)
	if err != nil {
		t.Fatal(err)
	}
	if s != 3*11+7 {
		t.Errorf("Serial(3,7) = %d, want %d", s, 3*11+7)
	}

	if _, err := ix.Serial(3, 12); !errors.Is(err, ErrRangeViolation) {
		t.Errorf("Serial(3,12) err = %v, want ErrRangeViolation", err)
	}
}

func TestPosRoundTrip(t *testing.T) {
	ix := FromBytes([]byte("ab\ncdef\n\nghi"), lf(), 2)

	for r := uint32(0); r < ix.Rows(); r++ {
		for c := int64(0); c <= ix.RowLen(r); c++ {
			s, err := ix.Serial(r, c)
			if err != nil {
				t.Fatalf("Serial(%d,%d): %v", r, c, err)
			}
			gr, gc := ix.Pos(s)
			// The end of a terminated row is the same serial as the
			// start of the next row; Pos answers with the owning row.
			if s < ix.Total() {
				wr, wc := r, c
				if c == ix.RowLen(r) && int(r) < int(ix.Rows())-1 {
					wr, wc = r+1, 0
				}
				if gr != wr || gc != wc {
					t.Errorf("Pos(%d) = (%d,%d), want (%d,%d)", s, gr, gc, wr, wc)
				}
			}
		}
	}
}

func TestPosClampsPastEnd(t *testing.T) {
	ix := FromBytes([]byte("ab\ncd"), lf(), 4)
	r, c := ix.Pos(1000)
	if r != 1 || c != 2 {
		t.Errorf("Pos(1000) = (%d,%d), want (1,2)", r, c)
	}
}

func TestCheckpointInvalidation(t *testing.T) {
	content := strings.Repeat("x\n", 100)
	ix := FromBytes([]byte(content), lf(), 8)

	// Warm the checkpoint cache.
	if _, err := ix.Get(95); err != nil {
		t.Fatal(err)
	}

	// Mutate an early row; later lookups must still be correct.
	if err := ix.Insert(10, 0, []byte("yyy")); err != nil {
		t.Fatal(err)
	}
	off, err := ix.Get(95)
	if err != nil {
		t.Fatal(err)
	}
	if off != 95*2+3 {
		t.Errorf("Get(95) after insert = %d, want %d", off, 95*2+3)
	}
}

func TestCloneReadsArePure(t *testing.T) {
	content := strings.Repeat("row\n", 300)
	ix := FromBytes([]byte(content), lf(), 8)

	c := ix.Clone()
	cps := len(c.checkpoints)
	if want := (len(c.rows)-1)/c.k + 1; cps != want {
		t.Fatalf("clone checkpoints = %d, want %d", cps, want)
	}

	for r := uint32(0); r < c.Rows(); r++ {
		if _, err := c.Get(r); err != nil {
			t.Fatalf("Get(%d): %v", r, err)
		}
	}
	for s := int64(0); s < c.Total(); s += 7 {
		c.Pos(s)
	}
	if len(c.checkpoints) != cps {
		t.Errorf("reads extended the checkpoint cache: %d -> %d", cps, len(c.checkpoints))
	}
}

// rowsOf splits ref the way the index should: terminator bytes belong to
// the row they close, final row is the open remainder.
func rowsOf(ref []byte) []int64 {
	var out []int64
	rest := string(ref)
	for {
		i := strings.Index(rest, "\n")
		if i < 0 {
			return append(out, int64(len(rest)))
		}
		out = append(out, int64(i+1))
		rest = rest[i+1:]
	}
}

func TestRandomEditsKeepInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ref := []byte("line one\nline two\nline three\n")
	ix := FromBytes(ref, lf(), 4)

	alphabet := []byte("ab\ncd\n")
	for i := 0; i < 400; i++ {
		if rng.Intn(2) == 0 || len(ref) == 0 {
			n := rng.Intn(5) + 1
			text := make([]byte, n)
			for j := range text {
				text[j] = alphabet[rng.Intn(len(alphabet))]
			}
			serial := int64(rng.Intn(len(ref) + 1))
			r, c := ix.Pos(serial)
			if err := ix.Insert(r, c, text); err != nil {
				t.Fatalf("op %d: Insert(%d,%d): %v", i, r, c, err)
			}
			ref = append(ref[:serial:serial], append(append([]byte(nil), text...), ref[serial:]...)...)
		} else {
			serial := int64(rng.Intn(len(ref)))
			n := int64(rng.Intn(len(ref)-int(serial)) + 1)
			r, c := ix.Pos(serial)
			if err := ix.Delete(r, c, n); err != nil {
				t.Fatalf("op %d: Delete(%d,%d,%d): %v", i, r, c, n, err)
			}
			if r > 0 && c == 0 && n == 1 {
				// Terminator-at-column-zero deletion removes the
				// terminator closing the previous row.
				serial--
			}
			ref = append(ref[:serial:serial], ref[serial+n:]...)
		}

		if ix.Total() != int64(len(ref)) {
			t.Fatalf("op %d: Total() = %d, want %d", i, ix.Total(), len(ref))
		}
		want := rowsOf(ref)
		got := ix.RowLengths()
		if len(got) != len(want) {
			t.Fatalf("op %d: row lengths %v, want %v", i, got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("op %d: row %d length = %d, want %d", i, j, got[j], want[j])
			}
		}
	}
}
