package lexer

import "bytes"

// Result carries everything one LexLine call produces.
type Result struct {
	Tokens   []Token
	Fragment *Fragment
	State    State
}

// Lexer tokenizes lines against one language. It is stateless between
// calls; all carry-state travels through LexLine's State argument.
type Lexer struct {
	lang *Language
}

// New creates a lexer for a language.
func New(lang *Language) *Lexer {
	if lang == nil {
		lang = DefaultLanguage()
	}
	return &Lexer{lang: lang}
}

// Language returns the lexer's language.
func (lx *Lexer) Language() *Language { return lx.lang }

// LexLine tokenizes one line. line is the raw bytes of the row including
// any terminator; row is its index, used to tag bracket stack entries;
// carry is the end state of the previous row. Rules are tried in fixed
// order, first match wins: block-comment continuation, line comment,
// block-comment start, string literal, whitespace run, numeric literal,
// identifier or keyword, bracket, fallback single-character symbol.
func (lx *Lexer) LexLine(line []byte, row uint32, carry State) Result {
	st := carry.Clone()
	var tokens []Token
	var b fragmentBuilder

	emit := func(t Token) {
		tokens = append(tokens, t)
		b.leaf(t)
	}

	i := 0
	for i < len(line) {
		start := uint32(i)

		if st.Mode == ModeBlockComment {
			j := bytes.Index(line[i:], []byte(lx.lang.BlockClose))
			if j < 0 {
				emit(Token{Kind: KindBlockComment, StartCol: start, EndCol: uint32(len(line))})
				i = len(line)
				continue
			}
			i += j + len(lx.lang.BlockClose)
			st.Mode = ModeDefault
			emit(Token{Kind: KindBlockComment, StartCol: start, EndCol: uint32(i)})
			continue
		}

		if lx.lang.LineComment != "" && bytes.HasPrefix(line[i:], []byte(lx.lang.LineComment)) {
			emit(Token{Kind: KindLineComment, StartCol: start, EndCol: uint32(len(line))})
			i = len(line)
			continue
		}

		if lx.lang.BlockOpen != "" && bytes.HasPrefix(line[i:], []byte(lx.lang.BlockOpen)) {
			j := bytes.Index(line[i+len(lx.lang.BlockOpen):], []byte(lx.lang.BlockClose))
			if j < 0 {
				st.Mode = ModeBlockComment
				emit(Token{Kind: KindBlockComment, StartCol: start, EndCol: uint32(len(line))})
				i = len(line)
				continue
			}
			i += len(lx.lang.BlockOpen) + j + len(lx.lang.BlockClose)
			emit(Token{Kind: KindBlockComment, StartCol: start, EndCol: uint32(i)})
			continue
		}

		ch := line[i]

		if lx.lang.IsQuote(ch) {
			i = scanString(line, i, ch)
			emit(Token{Kind: KindString, StartCol: start, EndCol: uint32(i)})
			continue
		}

		if isSpace(ch) {
			for i < len(line) && isSpace(line[i]) {
				i++
			}
			emit(Token{Kind: KindWhitespace, StartCol: start, EndCol: uint32(i)})
			continue
		}

		if isDigit(ch) {
			for i < len(line) && isNumberByte(line[i]) {
				i++
			}
			emit(Token{Kind: KindNumber, StartCol: start, EndCol: uint32(i)})
			continue
		}

		if isIdentStart(ch) {
			for i < len(line) && isIdentByte(line[i]) {
				i++
			}
			kind := KindIdentifier
			if lx.lang.IsKeyword(string(line[start:i])) {
				kind = KindKeyword
			}
			emit(Token{Kind: kind, StartCol: start, EndCol: uint32(i)})
			continue
		}

		if lx.lang.IsOpenBracket(ch) {
			color := uint8(st.Depth() % colorCycle)
			st.push(BracketEntry{Char: ch, Row: row, Col: start, ColorIndex: color})
			i++
			t := Token{Kind: KindBracket, StartCol: start, EndCol: uint32(i), ColorIndex: color}
			tokens = append(tokens, t)
			b.openBlock(t)
			continue
		}

		if open, isClose := lx.lang.IsCloseBracket(ch); isClose {
			i++
			top, ok := st.peek()
			if !ok || top.Char != open {
				// Unmatched closer: a plain symbol, and the stack is
				// left alone.
				emit(Token{Kind: KindSymbol, StartCol: start, EndCol: uint32(i)})
				continue
			}
			st.pop()
			t := Token{Kind: KindBracket, StartCol: start, EndCol: uint32(i), ColorIndex: top.ColorIndex}
			tokens = append(tokens, t)
			if !b.closeBlock(t) {
				// Opener lives on an earlier row; record a leaf here.
				b.leaf(t)
			}
			continue
		}

		i++
		emit(Token{Kind: KindSymbol, StartCol: start, EndCol: uint32(i)})
	}

	return Result{Tokens: tokens, Fragment: b.fragment(), State: st}
}

// scanString consumes a string literal starting at the quote at i,
// honoring backslash escapes, and returns the index just past the
// closing quote. An unterminated literal runs to end of line.
func scanString(line []byte, i int, quote byte) int {
	i++
	for i < len(line) {
		switch line[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		case '\n', '\r':
			return i
		default:
			i++
		}
	}
	return len(line)
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentByte(ch byte) bool { return isIdentStart(ch) || isDigit(ch) }

func isNumberByte(ch byte) bool {
	return isDigit(ch) || ch == '.' || ch == '_' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}
