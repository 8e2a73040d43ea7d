package piece

import "errors"

// ErrRangeViolation indicates an offset or length outside the valid buffer
// bounds. Range violations are rejected, never clamped.
var ErrRangeViolation = errors.New("range violation: offset outside buffer bounds")

// Table represents a mutable logical byte sequence as an ordered list of
// pieces. Mutations splice the piece list rather than copying document
// bytes; inserted bytes always go to the append log.
type Table struct {
	pieces []Piece
	log    *Source
	length ByteOffset

	// starts[i] is the buffer offset where pieces[i] begins. Rebuilt
	// lazily after structural changes; each Table (snapshots included)
	// owns its own starts slice.
	starts      []ByteOffset
	startsValid bool
}

// New creates an empty table.
func New() *Table {
	return &Table{log: newSource(nil)}
}

// FromBytes creates a table whose initial content is b. The slice is
// retained as the original source and must not be modified by the caller.
func FromBytes(b []byte) *Table {
	t := New()
	if len(b) > 0 {
		orig := newSource(b)
		t.pieces = []Piece{newPiece(orig, 0, ByteOffset(len(b)))}
		t.length = ByteOffset(len(b))
	}
	return t
}

// Len returns the total byte length of the buffer.
func (t *Table) Len() ByteOffset { return t.length }

// PieceCount returns the number of pieces in the table.
func (t *Table) PieceCount() int { return len(t.pieces) }

// Snapshot returns an independent copy-on-write view of the table. The
// snapshot shares pieces and sources with the live table but is never
// affected by later mutations. Its prefix-sum index is materialized here
// so that every later read is a pure read, safe for concurrent callers.
func (t *Table) Snapshot() *Table {
	s := &Table{
		pieces: t.pieces[:len(t.pieces):len(t.pieces)],
		log:    t.log,
		length: t.length,
	}
	s.ensureStarts()
	return s
}

// ensureStarts rebuilds the prefix-sum index if it is stale.
func (t *Table) ensureStarts() {
	if t.startsValid {
		return
	}
	if cap(t.starts) < len(t.pieces) {
		t.starts = make([]ByteOffset, len(t.pieces))
	}
	t.starts = t.starts[:len(t.pieces)]
	var off ByteOffset
	for i, p := range t.pieces {
		t.starts[i] = off
		off += p.length
	}
	t.startsValid = true
}

// locate returns the index of the piece containing pos and the offset of
// pos within that piece. pos == Len() yields (len(pieces), 0). A pos that
// lands exactly on a piece boundary belongs to the following piece.
func (t *Table) locate(pos ByteOffset) (int, ByteOffset) {
	if pos >= t.length {
		return len(t.pieces), 0
	}
	t.ensureStarts()
	lo, hi := 0, len(t.pieces)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if t.starts[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, pos - t.starts[lo]
}

// Insert splices bytes into the buffer at pos. The new bytes are appended
// to the append log; the covering piece is split when pos falls inside it.
func (t *Table) Insert(pos ByteOffset, b []byte) error {
	if pos < 0 || pos > t.length {
		return ErrRangeViolation
	}
	if len(b) == 0 {
		return nil
	}

	off := t.log.write(b)
	np := newPiece(t.log, off, ByteOffset(len(b)))

	idx, inner := t.locate(pos)

	out := make([]Piece, 0, len(t.pieces)+2)
	if inner > 0 {
		out = append(out, t.pieces[:idx]...)
		left, right := t.pieces[idx].split(inner)
		out = append(out, left, np, right)
		out = append(out, t.pieces[idx+1:]...)
	} else if idx > 0 && t.pieces[idx-1].contiguous(np) {
		// Sequential typing appends adjacent log ranges; extend the
		// preceding piece instead of splicing a new one.
		prev := t.pieces[idx-1]
		out = append(out, t.pieces[:idx-1]...)
		out = append(out, newPiece(prev.src, prev.off, prev.length+np.length))
		out = append(out, t.pieces[idx:]...)
	} else {
		out = append(out, t.pieces[:idx]...)
		out = append(out, np)
		out = append(out, t.pieces[idx:]...)
	}

	t.pieces = out
	t.length += ByteOffset(len(b))
	t.startsValid = false
	return nil
}

// Delete removes n bytes starting at pos in one structural operation:
// boundary pieces are split, fully covered pieces are dropped, and the
// partial remainders are re-spliced.
func (t *Table) Delete(pos, n ByteOffset) error {
	if pos < 0 || n < 0 || pos+n > t.length {
		return ErrRangeViolation
	}
	if n == 0 {
		return nil
	}

	si, soff := t.locate(pos)
	ei, eoff := t.locate(pos + n)

	out := make([]Piece, 0, len(t.pieces))
	out = append(out, t.pieces[:si]...)
	if soff > 0 {
		head, _ := t.pieces[si].split(soff)
		out = append(out, head)
	}
	if ei < len(t.pieces) {
		if eoff > 0 {
			_, tail := t.pieces[ei].split(eoff)
			out = append(out, tail)
			out = append(out, t.pieces[ei+1:]...)
		} else {
			out = append(out, t.pieces[ei:]...)
		}
	}

	t.pieces = out
	t.length -= n
	t.startsValid = false
	return nil
}

// Read copies n bytes starting at pos without materializing the whole
// document. Returns an empty slice when n <= 0.
func (t *Table) Read(pos, n ByteOffset) ([]byte, error) {
	if n <= 0 {
		if pos < 0 || pos > t.length {
			return nil, ErrRangeViolation
		}
		return nil, nil
	}
	if pos < 0 || pos+n > t.length {
		return nil, ErrRangeViolation
	}

	out := make([]byte, 0, n)
	idx, inner := t.locate(pos)
	for n > 0 {
		p := t.pieces[idx]
		avail := p.length - inner
		if avail > n {
			avail = n
		}
		out = append(out, p.view[inner:inner+avail]...)
		n -= avail
		inner = 0
		idx++
	}
	return out, nil
}

// Bytes returns the full buffer content as one slice.
func (t *Table) Bytes() []byte {
	out := make([]byte, 0, t.length)
	for _, p := range t.pieces {
		out = append(out, p.view...)
	}
	return out
}

// Compact rebuilds the table into a single fresh source, coalescing the
// piece list and dropping unreachable source bytes. It is an explicit
// garbage-collection pass, never a mutation side effect, so edit latency
// stays predictable. Existing snapshots keep their old sources.
func (t *Table) Compact() {
	if len(t.pieces) <= 1 {
		return
	}
	arena := newSource(t.Bytes())
	t.pieces = []Piece{newPiece(arena, 0, arena.Len())}
	t.log = newSource(nil)
	t.startsValid = false
}
