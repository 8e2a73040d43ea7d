package document

import (
	"errors"
	"testing"
)

func TestCharsetByName(t *testing.T) {
	tests := []struct {
		in   string
		want *Charset
		ok   bool
	}{
		{"utf-8", UTF8, true},
		{"UTF8", UTF8, true},
		{"Latin1", Latin1, true},
		{"windows-1252", Windows1252, true},
		{"UTF-16LE", UTF16LE, true},
		{"koi8-r", nil, false},
	}
	for _, tt := range tests {
		cs, ok := CharsetByName(tt.in)
		if ok != tt.ok || cs != tt.want {
			t.Errorf("CharsetByName(%q) = %v, %v; want %v, %v", tt.in, cs, ok, tt.want, tt.ok)
		}
	}
}

func TestByteColumnUTF8(t *testing.T) {
	row := []byte("açb")
	for _, tt := range []struct {
		col  uint32
		want int64
	}{
		{0, 0}, {1, 1}, {2, 3}, {3, 4},
	} {
		got, err := UTF8.ByteColumn(row, tt.col)
		if err != nil {
			t.Fatalf("ByteColumn(%d): %v", tt.col, err)
		}
		if got != tt.want {
			t.Errorf("ByteColumn(%d) = %d, want %d", tt.col, got, tt.want)
		}
	}
	if _, err := UTF8.ByteColumn(row, 4); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("ByteColumn(4) err = %v, want ErrInvalidOffset", err)
	}
}

func TestCharColumnUTF8(t *testing.T) {
	row := []byte("açb")
	got, err := UTF8.CharColumn(row, 3)
	if err != nil {
		t.Fatalf("CharColumn(3): %v", err)
	}
	if got != 2 {
		t.Errorf("CharColumn(3) = %d, want 2", got)
	}
	if _, err := UTF8.CharColumn(row, 2); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("CharColumn(2) mid-character err = %v, want ErrInvalidOffset", err)
	}
	if _, err := UTF8.CharColumn(row, 99); !errors.Is(err, ErrInvalidOffset) {
		t.Errorf("CharColumn(99) err = %v, want ErrInvalidOffset", err)
	}
}

func TestUTF16CharLen(t *testing.T) {
	// "a" then U+1F600 as a surrogate pair, little-endian.
	row := []byte{0x61, 0x00, 0x3D, 0xD8, 0x00, 0xDE}
	n, err := UTF16LE.CharLen(row)
	if err != nil || n != 2 {
		t.Fatalf("CharLen(bmp) = %d, %v; want 2, nil", n, err)
	}
	n, err = UTF16LE.CharLen(row[2:])
	if err != nil || n != 4 {
		t.Fatalf("CharLen(surrogate pair) = %d, %v; want 4, nil", n, err)
	}
	off, err := UTF16LE.ByteColumn(row, 2)
	if err != nil || off != 6 {
		t.Fatalf("ByteColumn(2) = %d, %v; want 6, nil", off, err)
	}

	// Lone low surrogate is not a character.
	if _, err := UTF16LE.CharLen([]byte{0x00, 0xDC}); !errors.Is(err, ErrDecode) {
		t.Errorf("lone low surrogate err = %v, want ErrDecode", err)
	}
	// Truncated high surrogate.
	if _, err := UTF16LE.CharLen([]byte{0x3D, 0xD8}); !errors.Is(err, ErrDecode) {
		t.Errorf("truncated surrogate err = %v, want ErrDecode", err)
	}
}

func TestDecodeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		cs   *Charset
		b    []byte
	}{
		{"utf8 stray continuation", UTF8, []byte{'a', 0xFF, 0xFE, 'b'}},
		{"utf8 truncated sequence", UTF8, []byte{0xC3}},
		{"utf16le odd length", UTF16LE, []byte{0x61, 0x00, 0x61}},
		{"utf16le lone surrogate", UTF16LE, []byte{0x00, 0xDC}},
		{"windows-1252 undefined byte", Windows1252, []byte{0x81}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cs.Decode(tt.b); !errors.Is(err, ErrDecode) {
				t.Errorf("Decode(% X) err = %v, want ErrDecode", tt.b, err)
			}
		})
	}
}

func TestLatin1RoundTrip(t *testing.T) {
	raw, err := Latin1.Encode("café")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(raw) != 4 {
		t.Fatalf("encoded len = %d, want 4", len(raw))
	}
	s, err := Latin1.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s != "café" {
		t.Errorf("round trip = %q, want %q", s, "café")
	}
}

func TestDetectBOM(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
		cs   *Charset
		want int
	}{
		{"utf8 with bom", []byte{0xEF, 0xBB, 0xBF, 'a'}, UTF8, 3},
		{"utf8 without bom", []byte("abc"), UTF8, 0},
		{"utf16le", []byte{0xFF, 0xFE, 0x61, 0x00}, UTF16LE, 2},
		{"utf16be", []byte{0xFE, 0xFF, 0x00, 0x61}, UTF16BE, 2},
		{"latin1 never", []byte{0xEF, 0xBB, 0xBF}, Latin1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectBOM(tt.b, tt.cs)
			if len(got) != tt.want {
				t.Errorf("DetectBOM = %v, want %d bytes", got, tt.want)
			}
		})
	}
}
