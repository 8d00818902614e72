// Package keygen derives resource keys for literal strings.
//
// Two schemes are supported: content-hash keys ("key_" plus the first eight
// hex digits of the SHA-1 of the value), used when generating a resource map
// from a plain list of values, and slug keys derived from the text itself,
// used by the extractor.
package keygen

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/arbkit/arbkit/arbfile"
)

// ErrUnsupportedFormat is returned by ReadValues for input files that are
// neither .json nor .txt.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// MaxSlugLen is the maximum number of characters in a slug key.
const MaxSlugLen = 50

// HashPrefix prefixes every content-hash key.
const HashPrefix = "key_"

// hashKey returns the undisambiguated content-hash key for value.
func hashKey(value string) string {
	sum := sha1.Sum([]byte(value))
	return HashPrefix + hex.EncodeToString(sum[:])[:8]
}

// FromValue returns a content-hash key for value that is absent from
// existing. Collisions are resolved by appending 1, 2, ... directly to the
// base key. A value that is blank after trimming yields "".
func FromValue(value string, existing map[string]bool) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	base := hashKey(value)
	key := base
	for n := 1; existing[key]; n++ {
		key = base + strconv.Itoa(n)
	}
	return key
}

// Slug turns free text into an identifier: punctuation is dropped, the rest
// lower-cased, whitespace runs become "_" and the result is capped at
// MaxSlugLen characters.
func Slug(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	fields := strings.Fields(strings.ToLower(b.String()))
	slug := strings.Trim(strings.Join(fields, "_"), "_")

	if runes := []rune(slug); len(runes) > MaxSlugLen {
		slug = strings.TrimRight(string(runes[:MaxSlugLen]), "_")
	}
	return slug
}

// SlugFor returns the slug key for text given the entries accumulated so
// far. lookup reports the value already stored under a key. If the slug is
// taken by a different value, _1, _2, ... is appended until a free key or
// one holding the same text is found. Text whose slug is empty (for
// instance, all punctuation) falls back to its content-hash key.
func SlugFor(text string, lookup func(key string) (string, bool)) string {
	base := Slug(text)
	if base == "" {
		base = FromValue(text, nil)
		if base == "" {
			return ""
		}
	}
	key := base
	for n := 1; ; n++ {
		stored, ok := lookup(key)
		if !ok || stored == text {
			return key
		}
		key = base + "_" + strconv.Itoa(n)
	}
}

// Generated records one key produced by BuildFile.
type Generated struct {
	Key    string
	Value  string
	Reused bool // value seen before; key shared with the earlier entry
}

// BuildFile assigns content-hash keys to values and returns the resulting
// resource map. Blank values are skipped and repeated values reuse the key
// given to their first occurrence.
func BuildFile(values []string) (*arbfile.File, []Generated) {
	f := arbfile.New()
	existing := make(map[string]bool, len(values))
	byValue := make(map[string]string, len(values))
	var out []Generated

	for _, v := range values {
		if key, ok := byValue[v]; ok {
			out = append(out, Generated{Key: key, Value: v, Reused: true})
			continue
		}
		key := FromValue(v, existing)
		if key == "" {
			continue
		}
		// Keys produced here never start with "@" and are never empty.
		_ = f.Add(key, v)
		existing[key] = true
		byValue[v] = key
		out = append(out, Generated{Key: key, Value: v})
	}
	return f, out
}

// ReadValues loads a plain list of values.
//
//   - .json holding an array: each item; non-string items are rendered as
//     their JSON text.
//   - .json holding an object: its values in document order. warn, when
//     non-nil, is told about the fallback.
//   - .txt: one value per non-blank line, trimmed.
//
// Any other extension yields ErrUnsupportedFormat.
func ReadValues(path string, warn func(msg string)) ([]string, error) {
	ext := filepath.Ext(path)
	if ext != ".json" && ext != ".txt" {
		return nil, fmt.Errorf("%w %q: use .json or .txt", ErrUnsupportedFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if ext == ".txt" {
		var values []string
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				values = append(values, line)
			}
		}
		return values, nil
	}

	values, isObject, err := parseJSONValues(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if isObject && warn != nil {
		warn(fmt.Sprintf("%s is not a JSON array; using the object's values", path))
	}
	return values, nil
}

// parseJSONValues reads the items of a top-level array, or the values of a
// top-level object, keeping document order.
func parseJSONValues(data []byte) ([]string, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, fmt.Errorf("invalid JSON: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '[' && delim != '{') {
		return nil, false, fmt.Errorf("invalid JSON: expected an array or object, got %v", tok)
	}
	isObject := delim == '{'

	var values []string
	for dec.More() {
		if isObject {
			if _, err := dec.Token(); err != nil {
				return nil, false, fmt.Errorf("invalid JSON: %w", err)
			}
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, false, fmt.Errorf("invalid JSON: %w", err)
		}
		values = append(values, renderValue(raw))
	}
	if _, err := dec.Token(); err != nil {
		return nil, false, fmt.Errorf("invalid JSON: %w", err)
	}
	return values, isObject, nil
}

func renderValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
