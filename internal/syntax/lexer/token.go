// Package lexer implements the rule-driven line tokenizer. Each call
// consumes one line of text plus the carried state from the previous line
// and produces tokens, the row's syntax fragment, and the updated state.
package lexer

import "fmt"

// Kind classifies a token for highlighting.
type Kind uint8

// Token kinds, ordered roughly by rule precedence.
const (
	KindNone Kind = iota
	KindWhitespace
	KindLineComment
	KindBlockComment
	KindString
	KindNumber
	KindKeyword
	KindIdentifier
	KindBracket
	KindSymbol
)

var kindNames = [...]string{
	KindNone:         "none",
	KindWhitespace:   "whitespace",
	KindLineComment:  "comment.line",
	KindBlockComment: "comment.block",
	KindString:       "string",
	KindNumber:       "number",
	KindKeyword:      "keyword",
	KindIdentifier:   "identifier",
	KindBracket:      "bracket",
	KindSymbol:       "symbol",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Token is one lexed span within a line. Columns are byte offsets into
// the line, half-open.
type Token struct {
	Kind     Kind
	StartCol uint32
	EndCol   uint32
	// ColorIndex cycles with bracket nesting depth; zero for
	// non-bracket tokens.
	ColorIndex uint8
}

func (t Token) String() string {
	return fmt.Sprintf("%s[%d:%d)", t.Kind, t.StartCol, t.EndCol)
}
