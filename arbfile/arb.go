// Package arbfile implements reading and writing of Flutter ARB (Application
// Resource Bundle) files and the plain key→string JSON maps arbkit produces.
//
// ARB files are JSON objects with a specific structure:
//
//   - "@@locale" holds the BCP-47 language code (e.g. "en", "pt").
//   - Keys starting with "@" are metadata entries (e.g. "@greeting") and are
//     preserved verbatim. They are never translated or substituted.
//   - All other keys with string values are translatable.
//   - Any other value (numbers, objects under a plain key) is carried through
//     untouched.
//
// Round-trip fidelity: key order from the source file is preserved exactly,
// including how metadata interleaves with translatable keys.
package arbfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// File model
// ---------------------------------------------------------------------------

// entry is a single key in the ARB file.
type entry struct {
	key      string
	value    string // decoded string value (translatable entries only)
	isMeta   bool   // true for @-keys (metadata / @@locale)
	isString bool   // value is a JSON string
	rawValue []byte // original JSON value bytes (preserved for meta and non-strings)
}

// translatable reports whether the entry carries user-facing text.
func (e *entry) translatable() bool { return !e.isMeta && e.isString }

// File represents a parsed resource map.
type File struct {
	// locale is the value of @@locale.
	locale string
	// entries stores all keys in document order.
	entries []entry
	// index maps key → index in entries.
	index map[string]int
}

// New returns an empty resource map.
func New() *File {
	return &File{index: make(map[string]int)}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses an ARB file from disk.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse parses ARB content from a byte slice. The top-level value must be a
// JSON object; a repeated key keeps its first position and its last value.
func Parse(data []byte) (*File, error) {
	f := New()

	// Token streaming preserves key order, which map decoding would lose.
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing ARB: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing ARB: expected '{', got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing ARB key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing ARB: expected string key, got %T", keyTok)
		}

		var rawVal json.RawMessage
		if err := dec.Decode(&rawVal); err != nil {
			return nil, fmt.Errorf("parsing ARB value for %q: %w", key, err)
		}

		e := entry{
			key:      key,
			isMeta:   strings.HasPrefix(key, "@"),
			rawValue: append([]byte(nil), rawVal...),
		}
		var s string
		if err := json.Unmarshal(rawVal, &s); err == nil {
			e.isString = true
			e.value = s
		}
		if key == "@@locale" && e.isString {
			f.locale = s
		}

		if idx, ok := f.index[key]; ok {
			f.entries[idx] = e
			continue
		}
		f.index[key] = len(f.entries)
		f.entries = append(f.entries, e)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing ARB: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parsing ARB: unexpected data after top-level object")
	}

	return f, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Locale returns the @@locale value.
func (f *File) Locale() string { return f.locale }

// Len returns the number of entries, metadata included.
func (f *File) Len() int { return len(f.entries) }

// Keys returns all translatable (non-metadata, string-valued) keys in
// document order.
func (f *File) Keys() []string {
	var keys []string
	for i := range f.entries {
		if f.entries[i].translatable() {
			keys = append(keys, f.entries[i].key)
		}
	}
	return keys
}

// AllKeys returns every key, metadata included, in document order.
func (f *File) AllKeys() []string {
	keys := make([]string, len(f.entries))
	for i, e := range f.entries {
		keys[i] = e.key
	}
	return keys
}

// Has reports whether key exists, whatever its kind.
func (f *File) Has(key string) bool {
	_, ok := f.index[key]
	return ok
}

// Get returns the string value for a translatable key.
func (f *File) Get(key string) (string, bool) {
	if idx, ok := f.index[key]; ok && f.entries[idx].translatable() {
		return f.entries[idx].value, true
	}
	return "", false
}

// Set sets the value of an existing translatable key.
// Returns true on success, false if the key is not found or is not
// translatable.
func (f *File) Set(key, value string) bool {
	idx, ok := f.index[key]
	if !ok || !f.entries[idx].translatable() {
		return false
	}
	f.entries[idx].value = value
	f.entries[idx].rawValue = nil
	return true
}

// Add appends a translatable key, or overwrites the value of an existing
// one in place. Metadata keys are rejected.
func (f *File) Add(key, value string) error {
	if key == "" {
		return fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "@") {
		return fmt.Errorf("key %q is reserved for metadata", key)
	}
	if idx, ok := f.index[key]; ok {
		f.entries[idx] = entry{key: key, value: value, isString: true}
		return nil
	}
	f.index[key] = len(f.entries)
	f.entries = append(f.entries, entry{key: key, value: value, isString: true})
	return nil
}

// Stats returns (total, nonEmpty, percentNonEmpty) over translatable keys.
func (f *File) Stats() (int, int, float64) {
	total, filled := 0, 0
	for i := range f.entries {
		if f.entries[i].translatable() {
			total++
			if f.entries[i].value != "" {
				filled++
			}
		}
	}
	pct := 0.0
	if total > 0 {
		pct = float64(filled) / float64(total) * 100
	}
	return total, filled, pct
}

// SourceValues returns a map of key → value over translatable keys.
func (f *File) SourceValues() map[string]string {
	m := make(map[string]string, len(f.index))
	for _, e := range f.entries {
		if e.translatable() {
			m[e.key] = e.value
		}
	}
	return m
}

// Clone returns a deep copy of f.
func (f *File) Clone() *File {
	c := &File{
		locale:  f.locale,
		entries: make([]entry, len(f.entries)),
		index:   make(map[string]int, len(f.index)),
	}
	for i, e := range f.entries {
		e.rawValue = append([]byte(nil), e.rawValue...)
		c.entries[i] = e
		c.index[e.key] = i
	}
	return c
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// marshalString encodes s as JSON without escaping HTML characters, so text
// such as "Termos & Condições <b>" survives unchanged.
func marshalString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// Marshal serialises the file to JSON with 2-space indentation, in document
// order. Non-ASCII characters are written literally.
func (f *File) Marshal() ([]byte, error) {
	if len(f.entries) == 0 {
		return []byte("{}\n"), nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")

	for i, e := range f.entries {
		if i > 0 {
			buf.WriteString(",\n")
		}
		buf.WriteString("  ")
		buf.Write(marshalString(e.key))
		buf.WriteString(": ")
		if e.translatable() {
			buf.Write(marshalString(e.value))
			continue
		}
		// Metadata and non-string values: re-indent, content untouched.
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, e.rawValue, "  ", "  "); err != nil {
			return nil, fmt.Errorf("encoding %q: %w", e.key, err)
		}
		buf.Write(pretty.Bytes())
	}

	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// WriteFile serialises and writes to path, creating parent directories.
func (f *File) WriteFile(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
