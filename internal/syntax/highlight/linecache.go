package highlight

import (
	"hash/fnv"

	"github.com/scribe-editor/scribe/internal/syntax/lexer"
)

// lineEntry is the cached lex result for one row. A row is skipped on
// re-lex only when its content hash/length, its serial line start, and
// its incoming carry state all match the entry exactly; base ties the
// entry to the spans already committed for the row, which a skip leaves
// in place.
type lineEntry struct {
	hash   uint64
	length int
	base   int64
	start  lexer.State
	end    lexer.State
}

type lineCache struct {
	entries map[uint32]*lineEntry
}

func newLineCache() *lineCache {
	return &lineCache{entries: make(map[uint32]*lineEntry)}
}

func (c *lineCache) get(row uint32) *lineEntry { return c.entries[row] }

func (c *lineCache) put(row uint32, e *lineEntry) { c.entries[row] = e }

// shift remaps the cache for an edit: entries for rows in
// [startRow, oldEndRow] are dropped, entries past oldEndRow move by
// rowDelta and their line starts by byteDelta.
func (c *lineCache) shift(startRow, oldEndRow uint32, rowDelta, byteDelta int64) {
	next := make(map[uint32]*lineEntry, len(c.entries))
	for row, e := range c.entries {
		switch {
		case row < startRow:
			next[row] = e
		case row <= oldEndRow:
			// Edited rows must be re-lexed.
		default:
			e.base += byteDelta
			next[uint32(int64(row)+rowDelta)] = e
		}
	}
	c.entries = next
}

// truncate drops entries at or past rows.
func (c *lineCache) truncate(rows uint32) {
	for row := range c.entries {
		if row >= rows {
			delete(c.entries, row)
		}
	}
}

// hashLine is FNV-1a over the row's raw bytes.
func hashLine(b []byte) uint64 {
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64()
}
