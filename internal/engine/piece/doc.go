// Package piece implements the piece-table byte buffer that backs a
// document. The logical byte sequence is represented as an ordered list of
// pieces, each an immutable reference into an append-only source buffer:
// either the original content the table was created from, or the append log
// that receives every inserted byte.
//
// Mutations never touch source bytes in place. Insert and Delete splice the
// piece list, splitting boundary pieces as needed, and always construct a
// fresh piece slice so that snapshots taken earlier keep seeing their own
// consistent state (copy-on-write discipline).
//
// A Table is not safe for concurrent mutation. Snapshot returns an
// independent view that is safe to read from other goroutines while the
// live table keeps mutating.
package piece
