package highlight

import "github.com/scribe-editor/scribe/internal/syntax/lexer"

// baseChunkRows is the smallest chunk size; maxChunks bounds the
// checkpoint array, doubling the chunk size for large documents.
const (
	baseChunkRows = 64
	maxChunks     = 256
)

// chunkRowsFor returns the chunk size for a document of totalRows rows:
// baseChunkRows doubled until the chunk count fits maxChunks.
func chunkRowsFor(totalRows uint32) uint32 {
	c := uint32(baseChunkRows)
	for (totalRows+c-1)/c > maxChunks {
		c *= 2
	}
	return c
}

// Checkpoint records the lexer state expected at the first row of a
// chunk. Invalid checkpoints force a re-lex of their chunk.
type Checkpoint struct {
	StartRow uint32
	State    lexer.State
	Valid    bool
}

// checkpoints is the per-chunk checkpoint array. Chunk 0 always starts
// from the zero lexer state.
type checkpoints struct {
	chunkRows uint32
	cps       []Checkpoint
}

func newCheckpoints(totalRows uint32) *checkpoints {
	c := &checkpoints{chunkRows: chunkRowsFor(totalRows)}
	c.rebuild(totalRows)
	return c
}

func (c *checkpoints) chunkFor(row uint32) int { return int(row / c.chunkRows) }

func (c *checkpoints) count() int { return len(c.cps) }

func (c *checkpoints) rowRange(chunk int, totalRows uint32) (start, end uint32) {
	start = uint32(chunk) * c.chunkRows
	end = start + c.chunkRows
	if end > totalRows {
		end = totalRows
	}
	return start, end
}

func (c *checkpoints) rebuild(totalRows uint32) {
	n := int((totalRows + c.chunkRows - 1) / c.chunkRows)
	if n == 0 {
		n = 1
	}
	c.cps = make([]Checkpoint, n)
	for i := range c.cps {
		c.cps[i].StartRow = uint32(i) * c.chunkRows
	}
	c.cps[0].Valid = true
}

// resize adapts the array to a new row count. A chunk-size change
// invalidates everything; otherwise the array grows or shrinks in place
// and surviving checkpoints keep their cached states.
func (c *checkpoints) resize(totalRows uint32) {
	if cr := chunkRowsFor(totalRows); cr != c.chunkRows {
		c.chunkRows = cr
		c.rebuild(totalRows)
		return
	}
	n := int((totalRows + c.chunkRows - 1) / c.chunkRows)
	if n == 0 {
		n = 1
	}
	for len(c.cps) < n {
		c.cps = append(c.cps, Checkpoint{StartRow: uint32(len(c.cps)) * c.chunkRows})
	}
	c.cps = c.cps[:n]
}
