package document

import (
	"bytes"
	"fmt"
	"sync/atomic"

	"github.com/scribe-editor/scribe/internal/engine/piece"
	"github.com/scribe-editor/scribe/internal/engine/rowindex"
)

// Listener receives a change record and an immutable post-edit snapshot
// after every mutation.
type Listener func(Change, *Snapshot)

// Document is the mutable text abstraction: a piece-table byte buffer and
// a row index kept consistent under every edit, with character/byte column
// reconciliation for the declared charset.
//
// A Document is not internally synchronized: a single logical editing
// session mutates it from one goroutine. Snapshot is the sanctioned
// mechanism for concurrent reads.
type Document struct {
	table       *piece.Table
	index       *rowindex.Index
	charset     *Charset
	term        LineTerminator
	bom         []byte
	checkpointK int
	version     atomic.Uint64
	listeners   []Listener
}

// New creates an empty document.
func New(opts ...Option) *Document {
	d := &Document{
		charset:     UTF8,
		term:        TerminatorLF,
		checkpointK: rowindex.DefaultCheckpointInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.table = piece.New()
	d.index = rowindex.New(d.term.Sequence(), d.checkpointK)
	return d
}

// FromBytes creates a document over initial content, detecting and
// compensating for a leading byte-order mark.
func FromBytes(b []byte, opts ...Option) *Document {
	d := &Document{
		charset:     UTF8,
		term:        TerminatorLF,
		checkpointK: rowindex.DefaultCheckpointInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.bom = DetectBOM(b, d.charset)
	d.table = piece.FromBytes(b)
	d.index = rowindex.FromBytes(b, d.term.Sequence(), d.checkpointK)
	return d
}

// Charset returns the declared charset.
func (d *Document) Charset() *Charset { return d.charset }

// LineTerminator returns the declared line-terminator convention.
func (d *Document) LineTerminator() LineTerminator { return d.term }

// ByteOrderMark returns the detected byte-order mark, or nil.
func (d *Document) ByteOrderMark() []byte { return d.bom }

// Version returns the current edit version. It increases by one with
// every mutation.
func (d *Document) Version() uint64 { return d.version.Load() }

// Rows returns the number of rows; at least 1 even when empty.
func (d *Document) Rows() uint32 { return d.index.Rows() }

// Len returns the serial-addressable length: total bytes minus the BOM.
func (d *Document) Len() ByteOffset { return d.table.Len() - int64(len(d.bom)) }

// OnChange registers a listener invoked after every mutation.
func (d *Document) OnChange(l Listener) {
	d.listeners = append(d.listeners, l)
}

// bomShift returns the storage-byte prefix hidden from row's columns.
func (d *Document) bomShift(row uint32) int64 {
	if row == 0 {
		return int64(len(d.bom))
	}
	return 0
}

// rowBytes returns the stored bytes of a row (terminator included, BOM
// excluded).
func (d *Document) rowBytes(row uint32) ([]byte, error) {
	off, err := d.index.Get(row)
	if err != nil {
		return nil, err
	}
	shift := d.bomShift(row)
	return d.table.Read(off+shift, d.index.RowLen(row)-shift)
}

// GetText returns the decoded text of a row, terminator included.
func (d *Document) GetText(row uint32) (string, error) {
	raw, err := d.rowBytes(row)
	if err != nil {
		return "", err
	}
	return d.charset.Decode(raw)
}

// Serial converts (row, character column) to a serial byte offset.
func (d *Document) Serial(row, col uint32) (ByteOffset, error) {
	return docSerial(d.table, d.index, d.charset, d.bom, row, col)
}

// Pos converts a serial byte offset to a (row, character column) point.
// A serial past the end of the document clamps to the end of the last
// row; a serial falling mid-character fails with ErrInvalidOffset.
func (d *Document) Pos(serial ByteOffset) (Point, error) {
	return docPos(d.table, d.index, d.charset, d.bom, serial)
}

// Snapshot returns an immutable view of the current document state, safe
// for concurrent reads while editing continues.
func (d *Document) Snapshot() *Snapshot {
	return &Snapshot{
		table:   d.table.Snapshot(),
		index:   d.index.Clone(),
		charset: d.charset,
		term:    d.term,
		bom:     d.bom,
		version: d.version.Load(),
	}
}

// Insert inserts text at (row, character column). Terminators in the text
// are normalized to the document's convention before encoding.
func (d *Document) Insert(row, col uint32, text string) (Change, error) {
	if text == "" {
		return Change{}, nil
	}
	raw, err := d.rowBytes(row)
	if err != nil {
		return Change{}, err
	}
	byteCol, err := d.charset.ByteColumn(raw, col)
	if err != nil {
		return Change{}, err
	}

	data, err := d.charset.Encode(normalizeTerminators(text, d.term))
	if err != nil {
		return Change{}, err
	}

	rowStart, err := d.index.Get(row)
	if err != nil {
		return Change{}, err
	}
	shift := d.bomShift(row)
	storagePos := rowStart + shift + byteCol

	if err := d.table.Insert(storagePos, data); err != nil {
		return Change{}, err
	}
	if err := d.index.Insert(row, shift+byteCol, data); err != nil {
		// The table and index must never diverge; a failure here means
		// the caller raced a mutation.
		panic(fmt.Sprintf("document: index insert failed after table insert: %v", err))
	}

	serial := storagePos - int64(len(d.bom))
	ch := Change{
		Old:       Range{Start: serial, End: serial},
		New:       Range{Start: serial, End: serial + int64(len(data))},
		StartRow:  row,
		OldEndRow: row,
		NewEndRow: row + countRows(data, d.term.Sequence()),
		Version:   d.version.Add(1),
	}
	d.notify(ch)
	return ch, nil
}

// Delete removes n stored bytes starting at (row, character column).
//
// Deleting exactly the line-terminator sequence addressed at column 0 of
// row r > 0 deletes the terminator ending row r-1 instead, merging the
// two rows.
func (d *Document) Delete(row, col uint32, n int64) (Change, error) {
	if n < 0 {
		return Change{}, ErrRangeViolation
	}
	if n == 0 {
		return Change{}, nil
	}
	raw, err := d.rowBytes(row)
	if err != nil {
		return Change{}, err
	}
	byteCol, err := d.charset.ByteColumn(raw, col)
	if err != nil {
		return Change{}, err
	}

	rowStart, err := d.index.Get(row)
	if err != nil {
		return Change{}, err
	}
	shift := d.bomShift(row)

	termLen := int64(len(d.term.Sequence()))
	if row > 0 && byteCol == 0 && n == termLen {
		storagePos := rowStart - termLen
		if err := d.table.Delete(storagePos, n); err != nil {
			return Change{}, err
		}
		if err := d.index.Delete(row, 0, n); err != nil {
			panic(fmt.Sprintf("document: index delete failed after table delete: %v", err))
		}
		serial := storagePos - int64(len(d.bom))
		ch := Change{
			Old:       Range{Start: serial, End: serial + n},
			New:       Range{Start: serial, End: serial},
			StartRow:  row - 1,
			OldEndRow: row,
			NewEndRow: row - 1,
			Version:   d.version.Add(1),
		}
		d.notify(ch)
		return ch, nil
	}

	storagePos := rowStart + shift + byteCol
	if storagePos+n > d.table.Len() {
		return Change{}, ErrRangeViolation
	}
	oldEndRow, _ := d.index.Pos(storagePos + n)

	if err := d.table.Delete(storagePos, n); err != nil {
		return Change{}, err
	}
	if err := d.index.Delete(row, shift+byteCol, n); err != nil {
		panic(fmt.Sprintf("document: index delete failed after table delete: %v", err))
	}

	serial := storagePos - int64(len(d.bom))
	ch := Change{
		Old:       Range{Start: serial, End: serial + n},
		New:       Range{Start: serial, End: serial},
		StartRow:  row,
		OldEndRow: oldEndRow,
		NewEndRow: row,
		Version:   d.version.Add(1),
	}
	d.notify(ch)
	return ch, nil
}

// Compact runs the buffer's explicit garbage-collection pass. Callable
// between edits; never triggered automatically.
func (d *Document) Compact() {
	d.table.Compact()
}

func (d *Document) notify(ch Change) {
	if len(d.listeners) == 0 {
		return
	}
	snap := d.Snapshot()
	for _, l := range d.listeners {
		l(ch, snap)
	}
}

// countRows returns the number of terminator matches in b.
func countRows(b, term []byte) uint32 {
	return uint32(bytes.Count(b, term))
}
