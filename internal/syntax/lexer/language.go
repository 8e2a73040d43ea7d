package lexer

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Language describes the lexical surface of one language: its keywords,
// comment markers, string quotes, and bracket pairs.
type Language struct {
	Name         string
	Extensions   []string
	Keywords     map[string]struct{}
	LineComment  string
	BlockOpen    string
	BlockClose   string
	StringQuotes []byte
	// brackets maps a closing bracket to its opening partner.
	brackets map[byte]byte
	openSet  map[byte]bool
}

// languageDef is the on-disk shape of a language definition.
type languageDef struct {
	Name         string   `yaml:"name" json:"name"`
	Extensions   []string `yaml:"extensions" json:"extensions"`
	Keywords     []string `yaml:"keywords" json:"keywords"`
	LineComment  string   `yaml:"line_comment" json:"line_comment"`
	BlockOpen    string   `yaml:"block_comment_open" json:"block_comment_open"`
	BlockClose   string   `yaml:"block_comment_close" json:"block_comment_close"`
	StringQuotes string   `yaml:"string_quotes" json:"string_quotes"`
	Brackets     []string `yaml:"brackets" json:"brackets"`
}

func (d *languageDef) build() (*Language, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("language definition missing name")
	}
	if (d.BlockOpen == "") != (d.BlockClose == "") {
		return nil, fmt.Errorf("language %q: block comment markers must be paired", d.Name)
	}
	lang := &Language{
		Name:         d.Name,
		Extensions:   d.Extensions,
		Keywords:     make(map[string]struct{}, len(d.Keywords)),
		LineComment:  d.LineComment,
		BlockOpen:    d.BlockOpen,
		BlockClose:   d.BlockClose,
		StringQuotes: []byte(d.StringQuotes),
		brackets:     make(map[byte]byte),
		openSet:      make(map[byte]bool),
	}
	for _, kw := range d.Keywords {
		lang.Keywords[kw] = struct{}{}
	}
	for _, pair := range d.Brackets {
		if len(pair) != 2 {
			return nil, fmt.Errorf("language %q: bracket pair %q must be two characters", d.Name, pair)
		}
		lang.brackets[pair[1]] = pair[0]
		lang.openSet[pair[0]] = true
	}
	return lang, nil
}

// IsKeyword reports whether word is a keyword of the language.
func (l *Language) IsKeyword(word string) bool {
	_, ok := l.Keywords[word]
	return ok
}

// IsOpenBracket reports whether ch opens a bracket pair.
func (l *Language) IsOpenBracket(ch byte) bool { return l.openSet[ch] }

// IsCloseBracket reports whether ch closes a bracket pair, returning the
// matching opener.
func (l *Language) IsCloseBracket(ch byte) (byte, bool) {
	open, ok := l.brackets[ch]
	return open, ok
}

// IsQuote reports whether ch starts a string literal.
func (l *Language) IsQuote(ch byte) bool {
	for _, q := range l.StringQuotes {
		if q == ch {
			return true
		}
	}
	return false
}

// DefaultLanguage is a Go-flavored definition used when no language is
// configured.
func DefaultLanguage() *Language {
	def := &languageDef{
		Name:       "go",
		Extensions: []string{".go"},
		Keywords: []string{
			"break", "case", "chan", "const", "continue", "default",
			"defer", "else", "fallthrough", "for", "func", "go", "goto",
			"if", "import", "interface", "map", "package", "range",
			"return", "select", "struct", "switch", "type", "var",
		},
		LineComment:  "//",
		BlockOpen:    "/*",
		BlockClose:   "*/",
		StringQuotes: "\"'`",
		Brackets:     []string{"()", "[]", "{}"},
	}
	lang, err := def.build()
	if err != nil {
		panic(err)
	}
	return lang
}

// Registry holds loaded languages, addressable by name or file
// extension.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Language
	byExt  map[string]*Language
}

// NewRegistry creates a registry seeded with the default language.
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]*Language),
		byExt:  make(map[string]*Language),
	}
	r.Register(DefaultLanguage())
	return r
}

// Register adds a language, replacing any previous definition of the
// same name.
func (r *Registry) Register(lang *Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[strings.ToLower(lang.Name)] = lang
	for _, ext := range lang.Extensions {
		r.byExt[strings.ToLower(ext)] = lang
	}
}

// ByName looks up a language by name, case-insensitive.
func (r *Registry) ByName(name string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.byName[strings.ToLower(name)]
	return lang, ok
}

// ByExtension looks up a language by file extension (with leading dot).
func (r *Registry) ByExtension(ext string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.byExt[strings.ToLower(ext)]
	return lang, ok
}

// LoadFile loads a language definition from a YAML or JSON file and
// registers it. The format is chosen by extension.
func (r *Registry) LoadFile(path string) (*Language, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language file: %w", err)
	}
	var lang *Language
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		lang, err = ParseJSON(data)
	} else {
		lang, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	r.Register(lang)
	return lang, nil
}

// ParseYAML builds a language from a YAML definition.
func ParseYAML(data []byte) (*Language, error) {
	var def languageDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	return def.build()
}

// ParseJSON builds a language from a JSON definition.
func ParseJSON(data []byte) (*Language, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json")
	}
	doc := gjson.ParseBytes(data)
	def := languageDef{
		Name:         doc.Get("name").String(),
		LineComment:  doc.Get("line_comment").String(),
		BlockOpen:    doc.Get("block_comment_open").String(),
		BlockClose:   doc.Get("block_comment_close").String(),
		StringQuotes: doc.Get("string_quotes").String(),
	}
	for _, v := range doc.Get("extensions").Array() {
		def.Extensions = append(def.Extensions, v.String())
	}
	for _, v := range doc.Get("keywords").Array() {
		def.Keywords = append(def.Keywords, v.String())
	}
	for _, v := range doc.Get("brackets").Array() {
		def.Brackets = append(def.Brackets, v.String())
	}
	return def.build()
}
