package highlight

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/scribe-editor/scribe/internal/engine/document"
	"github.com/scribe-editor/scribe/internal/engine/interval"
	"github.com/scribe-editor/scribe/internal/syntax/lexer"
)

// Highlighter keeps the interval index in step with document edits.
//
// HandleEdit and Rescan are the write-triggering entry points: they remap
// cached state synchronously, then re-lex affected chunks, either inline
// (see WithSynchronous) or on a cancellable background task.
// IntervalsForLine is the renderer's read path; readers share the lock so
// a large re-lex pass never stalls rendering for long.
type Highlighter struct {
	mu       sync.RWMutex
	lx       *lexer.Lexer
	tree     *interval.Tree
	cache    *lineCache
	cps      *checkpoints
	rowSpans map[uint32][]interval.Interval
	snap     *document.Snapshot
	// gen increments with every HandleEdit/Rescan; a background pass
	// carrying an older generation discards its results instead of
	// committing them over remapped state.
	gen uint64

	sched       *scheduler
	synchronous bool
	log         *slog.Logger
	lexCalls    atomic.Uint64
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithSynchronous runs re-lex passes inline in HandleEdit instead of on
// a background task. Tests use this to make lex-call counts
// deterministic.
func WithSynchronous() Option {
	return func(h *Highlighter) { h.synchronous = true }
}

// WithLogger sets the logger for background-task diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(h *Highlighter) { h.log = log }
}

// New creates a highlighter lexing with lx.
func New(lx *lexer.Lexer, opts ...Option) *Highlighter {
	h := &Highlighter{
		lx:       lx,
		tree:     interval.New(),
		cache:    newLineCache(),
		cps:      newCheckpoints(1),
		rowSpans: make(map[uint32][]interval.Interval),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.sched = newScheduler(h.log)
	return h
}

// LexCalls returns the number of LexLine invocations so far. It is the
// instrumentation hook for verifying that edits stay local.
func (h *Highlighter) LexCalls() uint64 { return h.lexCalls.Load() }

// Wait blocks until any in-flight background pass finishes.
func (h *Highlighter) Wait() { h.sched.wait() }

// Close cancels any in-flight background pass and waits it out.
func (h *Highlighter) Close() { h.sched.stop() }

// IntervalsForLine returns the highlight spans overlapping byte columns
// [begin, end] of a row, sorted by start. Results are in serial byte
// coordinates.
func (h *Highlighter) IntervalsForLine(row uint32, begin, end int64) []Span {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.snap == nil {
		return nil
	}
	lineStart, err := h.snap.LineStart(row)
	if err != nil {
		return nil
	}
	ivs := h.tree.QueryOverlapping(lineStart+begin, lineStart+end)
	spans := make([]Span, len(ivs))
	for i, iv := range ivs {
		spans[i] = unpackSpan(iv)
	}
	return spans
}

// Rescan walks the whole snapshot from the first chunk. Rows whose
// content, line start, and carry state match their cached entry are
// skipped and keep their committed spans, so rescanning an unedited
// document performs no lexer calls and changes nothing.
func (h *Highlighter) Rescan(snap *document.Snapshot) {
	h.mu.Lock()
	h.snap = snap
	rows := snap.Rows()
	h.cache.truncate(rows)
	for row := range h.rowSpans {
		if row >= rows {
			h.dropRowLocked(row)
		}
	}
	h.cps.resize(rows)
	last := h.cps.count() - 1
	h.gen++
	gen := h.gen
	h.mu.Unlock()

	h.start(snap.Version(), snap, 0, last, gen)
}

// HandleEdit is the document change listener. It shifts the line cache,
// row spans, and interval tree to the post-edit coordinate space
// synchronously, then schedules a re-lex of the affected chunks.
func (h *Highlighter) HandleEdit(ch document.Change, snap *document.Snapshot) {
	h.mu.Lock()
	h.snap = snap
	rowDelta := int64(ch.RowDelta())
	byteDelta := int64(ch.Delta())

	for r := ch.StartRow; r <= ch.OldEndRow; r++ {
		h.dropRowLocked(r)
	}
	h.cache.shift(ch.StartRow, ch.OldEndRow, rowDelta, byteDelta)
	h.shiftSpansLocked(ch.OldEndRow, rowDelta, byteDelta)
	if byteDelta != 0 {
		h.tree.ShiftAfter(int64(ch.Old.End), byteDelta)
	}

	prevChunkRows := h.cps.chunkRows
	h.cps.resize(snap.Rows())
	startChunk := h.cps.chunkFor(ch.StartRow)
	if h.cps.chunkRows != prevChunkRows {
		// Chunk size changed: every checkpoint was rebuilt, so the pass
		// must restart from the top.
		startChunk = 0
	}
	// A cancelled earlier pass can leave invalid checkpoints behind;
	// back up to one whose state is trustworthy.
	for startChunk > 0 && !h.cps.cps[startChunk].Valid {
		startChunk--
	}
	endRow := ch.NewEndRow
	if rows := snap.Rows(); endRow >= rows {
		endRow = rows - 1
	}
	editEndChunk := h.cps.chunkFor(endRow)
	h.gen++
	gen := h.gen
	h.mu.Unlock()

	h.start(ch.Version, snap, startChunk, editEndChunk, gen)
}

func (h *Highlighter) start(version uint64, snap *document.Snapshot, startChunk, editEndChunk int, gen uint64) {
	if h.synchronous {
		h.relex(context.Background(), h.log, snap, startChunk, editEndChunk, gen)
		return
	}
	h.sched.dispatch(version, func(ctx context.Context, log *slog.Logger) {
		h.relex(ctx, log, snap, startChunk, editEndChunk, gen)
	})
}

// dropRowLocked removes a row's spans from the tree and the span map.
func (h *Highlighter) dropRowLocked(row uint32) {
	for _, iv := range h.rowSpans[row] {
		h.tree.Delete(iv)
	}
	delete(h.rowSpans, row)
}

// shiftSpansLocked remaps the row-span bookkeeping after an edit: rows
// past oldEndRow move by rowDelta and their spans by byteDelta, so the
// map stays in step with the tree after ShiftAfter.
func (h *Highlighter) shiftSpansLocked(oldEndRow uint32, rowDelta, byteDelta int64) {
	if rowDelta == 0 && byteDelta == 0 {
		return
	}
	next := make(map[uint32][]interval.Interval, len(h.rowSpans))
	for row, spans := range h.rowSpans {
		if row <= oldEndRow {
			next[row] = spans
			continue
		}
		if byteDelta != 0 {
			for i := range spans {
				spans[i].Start += byteDelta
				spans[i].End += byteDelta
			}
		}
		next[uint32(int64(row)+rowDelta)] = spans
	}
	h.rowSpans = next
}

// relex re-lexes chunks from startChunk forward. Propagation past
// editEndChunk stops as soon as a chunk's computed end state matches the
// next checkpoint's cached assumption. The context is checked between
// chunks only; a chunk is the safe yield point.
func (h *Highlighter) relex(ctx context.Context, log *slog.Logger, snap *document.Snapshot, startChunk, editEndChunk int, gen uint64) {
	total := snap.Rows()
	for chunk := startChunk; ; chunk++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		h.mu.RLock()
		if gen != h.gen || chunk >= h.cps.count() {
			h.mu.RUnlock()
			return
		}
		state := h.cps.cps[chunk].State.Clone()
		start, end := h.cps.rowRange(chunk, total)
		h.mu.RUnlock()

		if !h.lexChunk(log, snap, chunk, start, end, &state, gen) {
			return
		}

		h.mu.Lock()
		next := chunk + 1
		if gen != h.gen || next >= h.cps.count() {
			h.mu.Unlock()
			return
		}
		cp := &h.cps.cps[next]
		if chunk >= editEndChunk && cp.Valid && cp.State.Equal(state) {
			h.mu.Unlock()
			return
		}
		cp.State = state.Clone()
		cp.Valid = true
		h.mu.Unlock()
	}
}

// lexChunk lexes rows [start, end) of one chunk, committing the chunk's
// results under the write lock in one step. A panic while lexing is
// contained to the chunk: committed data stays intact, the failure is
// logged, and the pass moves on. It reports false when a newer edit
// superseded this pass, in which case the results were discarded.
func (h *Highlighter) lexChunk(log *slog.Logger, snap *document.Snapshot, chunk int, start, end uint32, state *lexer.State, gen uint64) (ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			log.Error("chunk lex failed", "chunk", chunk, "panic", r)
		}
	}()

	type rowResult struct {
		row   uint32
		spans []interval.Interval
		entry *lineEntry
	}
	var results []rowResult

	for row := start; row < end; row++ {
		raw, err := snap.RowBytes(row)
		if err != nil {
			log.Error("row read failed", "row", row, "err", err)
			return true
		}
		lineStart, err := snap.LineStart(row)
		if err != nil {
			log.Error("row offset failed", "row", row, "err", err)
			return true
		}
		hash := hashLine(raw)

		h.mu.RLock()
		e := h.cache.get(row)
		h.mu.RUnlock()
		if e != nil && e.hash == hash && e.length == len(raw) && e.base == lineStart && e.start.Equal(*state) {
			*state = e.end.Clone()
			continue
		}

		res := h.lx.LexLine(raw, row, *state)
		h.lexCalls.Add(1)

		spans := make([]interval.Interval, 0, len(res.Tokens))
		for _, tok := range res.Tokens {
			if tok.Kind == lexer.KindWhitespace || tok.Kind == lexer.KindNone {
				continue
			}
			spans = append(spans, interval.Interval{
				Start:   lineStart + int64(tok.StartCol),
				End:     lineStart + int64(tok.EndCol),
				Payload: packPayload(tok.Kind, tok.ColorIndex),
			})
		}
		results = append(results, rowResult{
			row:   row,
			spans: spans,
			entry: &lineEntry{hash: hash, length: len(raw), base: lineStart, start: state.Clone(), end: res.State.Clone()},
		})
		*state = res.State
	}

	if len(results) == 0 {
		return true
	}
	h.mu.Lock()
	if gen != h.gen {
		h.mu.Unlock()
		return false
	}
	for _, r := range results {
		h.dropRowLocked(r.row)
		for _, iv := range r.spans {
			if _, err := h.tree.Insert(iv); err != nil {
				log.Error("interval insert failed", "row", r.row, "err", err)
			}
		}
		if len(r.spans) > 0 {
			h.rowSpans[r.row] = r.spans
		}
		h.cache.put(r.row, r.entry)
	}
	h.mu.Unlock()
	return true
}
