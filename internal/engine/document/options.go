package document

import "strings"

// LineTerminator specifies the document's line-terminator convention.
type LineTerminator uint8

const (
	TerminatorLF   LineTerminator = iota // Unix: \n
	TerminatorCRLF                       // Windows: \r\n
	TerminatorCR                         // Old Mac: \r
)

// String returns the escaped representation of the terminator.
func (lt LineTerminator) String() string {
	switch lt {
	case TerminatorCRLF:
		return "\\r\\n"
	case TerminatorCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Sequence returns the terminator bytes.
func (lt LineTerminator) Sequence() []byte {
	switch lt {
	case TerminatorCRLF:
		return []byte("\r\n")
	case TerminatorCR:
		return []byte("\r")
	default:
		return []byte("\n")
	}
}

// DetectLineTerminator returns the most common terminator in the text,
// defaulting to LF when none is found.
func DetectLineTerminator(text string) LineTerminator {
	var lfCount, crlfCount, crCount int

	i := 0
	for i < len(text) {
		switch {
		case i+1 < len(text) && text[i] == '\r' && text[i+1] == '\n':
			crlfCount++
			i += 2
		case text[i] == '\r':
			crCount++
			i++
		case text[i] == '\n':
			lfCount++
			i++
		default:
			i++
		}
	}

	if crlfCount > 0 && crlfCount >= lfCount && crlfCount >= crCount {
		return TerminatorCRLF
	}
	if crCount > 0 && crCount >= lfCount && crCount >= crlfCount {
		return TerminatorCR
	}
	return TerminatorLF
}

// normalizeTerminators converts all terminator styles in s to the
// document's convention.
func normalizeTerminators(s string, lt LineTerminator) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	switch lt {
	case TerminatorCRLF:
		return strings.ReplaceAll(s, "\n", "\r\n")
	case TerminatorCR:
		return strings.ReplaceAll(s, "\n", "\r")
	default:
		return s
	}
}

// Option is a functional option for configuring a Document.
type Option func(*Document)

// WithCharset sets the declared charset.
func WithCharset(cs *Charset) Option {
	return func(d *Document) {
		if cs != nil {
			d.charset = cs
		}
	}
}

// WithLineTerminator sets the line-terminator convention.
func WithLineTerminator(lt LineTerminator) Option {
	return func(d *Document) {
		d.term = lt
	}
}

// WithCheckpointInterval sets the row-index checkpoint spacing.
func WithCheckpointInterval(k int) Option {
	return func(d *Document) {
		if k > 0 {
			d.checkpointK = k
		}
	}
}
