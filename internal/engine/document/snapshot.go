package document

import (
	"github.com/scribe-editor/scribe/internal/engine/piece"
	"github.com/scribe-editor/scribe/internal/engine/rowindex"
)

// Snapshot is a read-only view of a document at one point in time. It is
// safe for concurrent access and never changes, even while the live
// document keeps mutating: the underlying pieces are shared by reference
// under the buffer's copy-on-write discipline.
type Snapshot struct {
	table   *piece.Table
	index   *rowindex.Index
	charset *Charset
	term    LineTerminator
	bom     []byte
	version uint64
}

// Version returns the edit version this snapshot was taken at.
func (s *Snapshot) Version() uint64 { return s.version }

// Charset returns the declared charset.
func (s *Snapshot) Charset() *Charset { return s.charset }

// LineTerminator returns the declared line-terminator convention.
func (s *Snapshot) LineTerminator() LineTerminator { return s.term }

// ByteOrderMark returns the detected byte-order mark, or nil.
func (s *Snapshot) ByteOrderMark() []byte { return s.bom }

// Rows returns the number of rows.
func (s *Snapshot) Rows() uint32 { return s.index.Rows() }

// Len returns the serial-addressable length.
func (s *Snapshot) Len() ByteOffset { return s.table.Len() - int64(len(s.bom)) }

func (s *Snapshot) bomShift(row uint32) int64 {
	if row == 0 {
		return int64(len(s.bom))
	}
	return 0
}

// RowBytes returns the stored bytes of a row, terminator included and BOM
// excluded.
func (s *Snapshot) RowBytes(row uint32) ([]byte, error) {
	off, err := s.index.Get(row)
	if err != nil {
		return nil, err
	}
	shift := s.bomShift(row)
	return s.table.Read(off+shift, s.index.RowLen(row)-shift)
}

// RowText returns the decoded text of a row, terminator included.
func (s *Snapshot) RowText(row uint32) (string, error) {
	raw, err := s.RowBytes(row)
	if err != nil {
		return "", err
	}
	return s.charset.Decode(raw)
}

// LineStart returns the serial byte offset of the start of a row.
func (s *Snapshot) LineStart(row uint32) (ByteOffset, error) {
	off, err := s.index.Get(row)
	if err != nil {
		return 0, err
	}
	return off + s.bomShift(row) - int64(len(s.bom)), nil
}

// Serial converts (row, character column) to a serial byte offset.
func (s *Snapshot) Serial(row, col uint32) (ByteOffset, error) {
	return docSerial(s.table, s.index, s.charset, s.bom, row, col)
}

// Pos converts a serial byte offset to a (row, character column) point.
func (s *Snapshot) Pos(serial ByteOffset) (Point, error) {
	return docPos(s.table, s.index, s.charset, s.bom, serial)
}

// Shared conversion logic between Document and Snapshot.

func rawRow(table *piece.Table, ix *rowindex.Index, bom []byte, row uint32) (start int64, raw []byte, err error) {
	off, err := ix.Get(row)
	if err != nil {
		return 0, nil, err
	}
	var shift int64
	if row == 0 {
		shift = int64(len(bom))
	}
	raw, err = table.Read(off+shift, ix.RowLen(row)-shift)
	if err != nil {
		return 0, nil, err
	}
	return off + shift, raw, nil
}

func docSerial(table *piece.Table, ix *rowindex.Index, cs *Charset, bom []byte, row, col uint32) (ByteOffset, error) {
	start, raw, err := rawRow(table, ix, bom, row)
	if err != nil {
		return 0, err
	}
	byteCol, err := cs.ByteColumn(raw, col)
	if err != nil {
		return 0, err
	}
	return start + byteCol - int64(len(bom)), nil
}

func docPos(table *piece.Table, ix *rowindex.Index, cs *Charset, bom []byte, serial ByteOffset) (Point, error) {
	if serial < 0 {
		return Point{}, ErrRangeViolation
	}
	storage := serial + int64(len(bom))

	var row uint32
	var byteCol int64
	if storage >= ix.Total() {
		// Clamped to end-of-document; callers rely on this for cursor
		// placement.
		row = ix.Rows() - 1
		byteCol = ix.RowLen(row)
		if row == 0 {
			byteCol -= int64(len(bom))
		}
	} else {
		var sc int64
		row, sc = ix.Pos(storage)
		byteCol = sc
		if row == 0 {
			byteCol -= int64(len(bom))
		}
	}

	_, raw, err := rawRow(table, ix, bom, row)
	if err != nil {
		return Point{}, err
	}
	col, err := cs.CharColumn(raw, byteCol)
	if err != nil {
		return Point{}, err
	}
	return Point{Row: row, Column: col}, nil
}
