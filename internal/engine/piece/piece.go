package piece

// ByteOffset is a byte position in the buffer.
type ByteOffset = int64

// Source is an append-only backing buffer. Once bytes are written they are
// never modified, so pieces referencing a Source stay valid across every
// later mutation.
type Source struct {
	data []byte
}

func newSource(b []byte) *Source {
	return &Source{data: b}
}

// Len returns the number of bytes written to the source.
func (s *Source) Len() ByteOffset {
	return ByteOffset(len(s.data))
}

// write appends b and returns the offset the bytes landed at.
func (s *Source) write(b []byte) ByteOffset {
	off := ByteOffset(len(s.data))
	s.data = append(s.data, b...)
	return off
}

// Piece is an immutable reference (source, offset, length) into a Source.
// The view field is the materialized byte window; capturing it at
// construction keeps snapshot reads race-free while the append log grows.
type Piece struct {
	src    *Source
	off    ByteOffset
	length ByteOffset
	view   []byte
}

func newPiece(src *Source, off, length ByteOffset) Piece {
	return Piece{
		src:    src,
		off:    off,
		length: length,
		view:   src.data[off : off+length : off+length],
	}
}

// Len returns the piece length in bytes.
func (p Piece) Len() ByteOffset { return p.length }

// Bytes returns the piece's byte window. Callers must not modify it.
func (p Piece) Bytes() []byte { return p.view }

// split returns the two pieces covering [0, at) and [at, len).
// at must be an internal offset (0 < at < length).
func (p Piece) split(at ByteOffset) (Piece, Piece) {
	return newPiece(p.src, p.off, at), newPiece(p.src, p.off+at, p.length-at)
}

// contiguous reports whether q directly continues p within the same source.
func (p Piece) contiguous(q Piece) bool {
	return p.src == q.src && p.off+p.length == q.off
}
