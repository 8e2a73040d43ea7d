package document

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Charset describes a declared character encoding: how stored bytes decode
// to characters, and how wide each character is in bytes. Conversions walk
// one character at a time counting consumed bytes, which is all the
// document layer needs to reconcile character columns with byte columns.
type Charset struct {
	name string
	enc  encoding.Encoding
	// charLen returns the byte width of the first character in b.
	charLen func(b []byte) (int, error)
	bom     []byte
}

// Name returns the charset's canonical name.
func (c *Charset) Name() string { return c.name }

// BOM returns the byte-order mark this charset would use, or nil.
func (c *Charset) BOM() []byte { return c.bom }

// CharLen returns the byte width of the first character in b.
// Fails with ErrDecode when b does not start a valid character.
func (c *Charset) CharLen(b []byte) (int, error) { return c.charLen(b) }

// Decode converts stored bytes to a string. Invalid input fails with
// ErrDecode instead of being replaced with substitution characters; the
// x/text decoders substitute silently, so validity is checked by walking
// the bytes character by character first.
func (c *Charset) Decode(b []byte) (string, error) {
	for off := 0; off < len(b); {
		n, err := c.charLen(b[off:])
		if err != nil {
			return "", fmt.Errorf("%w: invalid byte sequence at offset %d", ErrDecode, off)
		}
		off += n
	}
	if c.enc == nil {
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(out), nil
}

// Encode converts a UTF-8 string to stored bytes.
func (c *Charset) Encode(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	out, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

// ByteColumn converts a character column within row bytes to a byte
// column. Fails with ErrInvalidOffset when col exceeds the row's decoded
// character count.
func (c *Charset) ByteColumn(row []byte, col uint32) (int64, error) {
	var off int64
	for i := uint32(0); i < col; i++ {
		if off >= int64(len(row)) {
			return 0, ErrInvalidOffset
		}
		n, err := c.charLen(row[off:])
		if err != nil {
			return 0, err
		}
		off += int64(n)
	}
	return off, nil
}

// CharColumn converts a byte column within row bytes to a character
// column. Fails with ErrInvalidOffset when byteCol falls mid-character.
func (c *Charset) CharColumn(row []byte, byteCol int64) (uint32, error) {
	if byteCol < 0 || byteCol > int64(len(row)) {
		return 0, ErrInvalidOffset
	}
	var off int64
	var col uint32
	for off < byteCol {
		n, err := c.charLen(row[off:])
		if err != nil {
			return 0, err
		}
		off += int64(n)
		col++
	}
	if off != byteCol {
		return 0, ErrInvalidOffset
	}
	return col, nil
}

func utf8CharLen(b []byte) (int, error) {
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return 0, ErrDecode
	}
	return size, nil
}

func singleByte(name string, cm *charmap.Charmap) *Charset {
	return &Charset{
		name: name,
		enc:  cm,
		charLen: func(b []byte) (int, error) {
			if len(b) == 0 {
				return 0, ErrDecode
			}
			if cm.DecodeByte(b[0]) == utf8.RuneError {
				return 0, ErrDecode
			}
			return 1, nil
		},
	}
}

func utf16CharLen(littleEndian bool) func(b []byte) (int, error) {
	return func(b []byte) (int, error) {
		if len(b) < 2 {
			return 0, ErrDecode
		}
		var unit uint16
		if littleEndian {
			unit = uint16(b[0]) | uint16(b[1])<<8
		} else {
			unit = uint16(b[0])<<8 | uint16(b[1])
		}
		switch {
		case unit >= 0xD800 && unit <= 0xDBFF:
			// High surrogate: the character spans two units.
			if len(b) < 4 {
				return 0, ErrDecode
			}
			var low uint16
			if littleEndian {
				low = uint16(b[2]) | uint16(b[3])<<8
			} else {
				low = uint16(b[2])<<8 | uint16(b[3])
			}
			if low < 0xDC00 || low > 0xDFFF {
				return 0, ErrDecode
			}
			return 4, nil
		case unit >= 0xDC00 && unit <= 0xDFFF:
			// Lone low surrogate.
			return 0, ErrDecode
		default:
			return 2, nil
		}
	}
}

// Built-in charsets.
var (
	UTF8 = &Charset{
		name:    "utf-8",
		enc:     unicode.UTF8,
		charLen: utf8CharLen,
		bom:     []byte{0xEF, 0xBB, 0xBF},
	}

	UTF16LE = &Charset{
		name:    "utf-16le",
		enc:     unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
		charLen: utf16CharLen(true),
		bom:     []byte{0xFF, 0xFE},
	}

	UTF16BE = &Charset{
		name:    "utf-16be",
		enc:     unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
		charLen: utf16CharLen(false),
		bom:     []byte{0xFE, 0xFF},
	}

	Latin1 = singleByte("iso-8859-1", charmap.ISO8859_1)

	Windows1252 = singleByte("windows-1252", charmap.Windows1252)
)

var charsets = map[string]*Charset{
	"utf-8":        UTF8,
	"utf8":         UTF8,
	"utf-16le":     UTF16LE,
	"utf-16be":     UTF16BE,
	"iso-8859-1":   Latin1,
	"latin-1":      Latin1,
	"latin1":       Latin1,
	"windows-1252": Windows1252,
}

// CharsetByName looks up a charset by its (case-insensitive, common-alias)
// name.
func CharsetByName(name string) (*Charset, bool) {
	cs, ok := charsets[normalizeName(name)]
	return cs, ok
}

func normalizeName(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch >= 'A' && ch <= 'Z' {
			ch += 'a' - 'A'
		}
		out = append(out, ch)
	}
	return string(out)
}

// DetectBOM returns the byte-order mark prefix of b for the given charset,
// or nil when b does not start with one.
func DetectBOM(b []byte, cs *Charset) []byte {
	if cs.bom != nil && bytes.HasPrefix(b, cs.bom) {
		return cs.bom
	}
	return nil
}
