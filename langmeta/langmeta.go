// Package langmeta validates language codes and renders their display
// names (native and English) and emoji flags for the CLI.
package langmeta

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto asks the translation service to detect the source language.
const Auto = "auto"

// ErrInvalidCode is returned for codes that are not valid BCP 47 tags.
var ErrInvalidCode = errors.New("invalid language code")

// Canonicalize parses code (accepting "_" as a separator and any case) and
// returns its canonical BCP 47 form, e.g. "pt_br" -> "pt-BR".
func Canonicalize(code string) (string, error) {
	tag, err := parse(code)
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

func parse(code string) (language.Tag, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if normalized == "" {
		return language.Und, fmt.Errorf("%w: empty", ErrInvalidCode)
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return language.Und, fmt.Errorf("%w %q: %v", ErrInvalidCode, code, err)
	}
	return tag, nil
}

// ValidateTarget canonicalizes a target language code. "auto" is rejected.
func ValidateTarget(code string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(code), Auto) {
		return "", fmt.Errorf("%w: %q cannot be a target language", ErrInvalidCode, Auto)
	}
	return Canonicalize(code)
}

// ValidateSource canonicalizes a source language code. Empty and "auto"
// both yield Auto.
func ValidateSource(code string) (string, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" || strings.EqualFold(trimmed, Auto) {
		return Auto, nil
	}
	return Canonicalize(trimmed)
}

// Name returns the language's name in that language ("Deutsch" for de).
// Unknown codes are returned unchanged.
func Name(code string) string {
	tag, err := parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

// EnglishName returns the English name of the language ("German" for de).
func EnglishName(code string) string {
	tag, err := parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return code
}

// Flag returns the regional-indicator emoji for the code's region, using
// the most likely region when none is given. It is empty when no
// two-letter region applies.
func Flag(code string) string {
	tag, err := parse(code)
	if err != nil {
		return ""
	}
	region, conf := tag.Region()
	if conf == language.No {
		return ""
	}
	r := region.String()
	if len(r) != 2 || r == "ZZ" {
		return ""
	}
	var b strings.Builder
	for _, c := range r {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}

// Label formats a code for console output, e.g. "🇩🇪 Deutsch (de)".
func Label(code string) string {
	name := Name(code)
	label := name
	if name != code {
		label = fmt.Sprintf("%s (%s)", name, code)
	}
	if flag := Flag(code); flag != "" {
		label = flag + " " + label
	}
	return label
}
