// Package document composes the piece-table byte buffer and the row index
// behind a single API, reconciling user-visible character offsets against
// stored byte offsets for the document's declared charset and
// line-terminator convention.
//
// Positions come in two coordinate systems:
//
//   - (row, column) pairs, where the column is measured in decoded
//     characters as a user sees them
//   - serial offsets: absolute byte positions from the start of the
//     document, excluding any byte-order mark
//
// The document converts between the two on demand and never stores both.
// Mutations notify registered listeners with an immutable post-edit
// snapshot; Snapshot is also the sanctioned mechanism for reading from
// other goroutines while editing continues.
package document
