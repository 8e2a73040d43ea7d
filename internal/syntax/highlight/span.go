// Package highlight keeps highlight spans consistent with a mutating
// document. It divides the document into row-aligned chunks, caches
// per-line lex results, and re-lexes only the chunks whose computed
// lexer state actually diverges from the cached expectation.
package highlight

import (
	"github.com/scribe-editor/scribe/internal/engine/interval"
	"github.com/scribe-editor/scribe/internal/syntax/lexer"
)

// Span is one highlight interval in serial byte coordinates, half-open.
type Span struct {
	Start      int64
	End        int64
	Kind       lexer.Kind
	ColorIndex uint8
}

// packPayload folds a token classification into the interval tree's
// payload word: kind in the low byte, bracket color in the next.
func packPayload(kind lexer.Kind, color uint8) uint64 {
	return uint64(kind) | uint64(color)<<8
}

func unpackSpan(iv interval.Interval) Span {
	return Span{
		Start:      iv.Start,
		End:        iv.End,
		Kind:       lexer.Kind(iv.Payload & 0xFF),
		ColorIndex: uint8(iv.Payload >> 8 & 0xFF),
	}
}
