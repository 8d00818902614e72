// Package config also loads the .arbkit.yaml configuration file.
//
// When a .arbkit.yaml file exists in the project root, its values replace
// the built-in defaults; command-line flags still take precedence over it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arbkit/arbkit/extract"
	"github.com/arbkit/arbkit/langmeta"
	"github.com/arbkit/arbkit/substitute"
	"github.com/arbkit/arbkit/translate"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// ArbkitFile is the top-level .arbkit.yaml structure.
type ArbkitFile struct {
	// Extensions selects source files by suffix (default [".dart"]).
	Extensions []string `yaml:"extensions,omitempty"`
	// Exclude lists paths or glob patterns skipped by extract and replace.
	Exclude []string `yaml:"exclude,omitempty"`
	// IgnoreSuffixes lists generated-file suffixes extract never scans
	// (default [".g.dart"]).
	IgnoreSuffixes []string `yaml:"ignore_suffixes,omitempty"`
	// Output is the extract output file (default "translations_pt.json").
	Output string `yaml:"output,omitempty"`
	// Reference is the replacement template; "{key}" marks the key.
	Reference string `yaml:"reference,omitempty"`
	// Quotes lists the quote characters replace matches (default ["\""]).
	Quotes []string `yaml:"quotes,omitempty"`

	// SourceLang is the translation source language (default "auto").
	SourceLang string `yaml:"source_lang,omitempty"`
	// Provider is the translation provider ID (default "google").
	Provider string `yaml:"provider,omitempty"`
	// Model overrides the provider's default model.
	Model string `yaml:"model,omitempty"`
	// BaseURL overrides the provider's API base URL.
	BaseURL string `yaml:"base_url,omitempty"`
	// Proxy is an HTTP/HTTPS proxy for provider requests.
	Proxy string `yaml:"proxy,omitempty"`

	// Denylist enables the built-in file denylist for extract (default true).
	Denylist *bool `yaml:"denylist,omitempty"`
	// DenylistRules replaces the built-in denylist entries.
	DenylistRules *extract.Denylist `yaml:"denylist_rules,omitempty"`
	// Vocabulary overrides classifier word lists; unset lists keep their
	// defaults.
	Vocabulary *extract.Vocabulary `yaml:"vocabulary,omitempty"`

	// path is where the file was loaded from; empty for defaults.
	path string
}

// ArbkitFileName is the default config file name.
const ArbkitFileName = ".arbkit.yaml"

// Default returns the configuration used when no file exists.
func Default() *ArbkitFile {
	af := &ArbkitFile{}
	af.applyDefaults()
	return af
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// LoadArbkitFile loads and validates the config file at path. A missing
// file yields Default(); a malformed one is an error.
func LoadArbkitFile(path string) (*ArbkitFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var af ArbkitFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	af.path = path
	af.applyDefaults()

	if err := af.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &af, nil
}

// Path returns the file the configuration was loaded from, or "".
func (af *ArbkitFile) Path() string { return af.path }

func (af *ArbkitFile) applyDefaults() {
	if len(af.Extensions) == 0 {
		af.Extensions = []string{".dart"}
	}
	if af.IgnoreSuffixes == nil {
		af.IgnoreSuffixes = []string{".g.dart"}
	}
	if af.Output == "" {
		af.Output = extract.DefaultOutput
	}
	if len(af.Quotes) == 0 {
		af.Quotes = []string{`"`}
	}
	if af.SourceLang == "" {
		af.SourceLang = langmeta.Auto
	}
	if af.Provider == "" {
		af.Provider = translate.ProviderGoogle
	}
	if af.Denylist == nil {
		on := true
		af.Denylist = &on
	}
	af.Extensions = NormalizeExtensions(af.Extensions)
}

func (af *ArbkitFile) validate() error {
	if af.Reference != "" {
		if _, err := substitute.NewReference(af.Reference); err != nil {
			return err
		}
	}
	for _, q := range af.Quotes {
		if q != `"` && q != `'` {
			return fmt.Errorf("quotes: %q is not a quote character (valid: \", ')", q)
		}
	}
	src, err := langmeta.ValidateSource(af.SourceLang)
	if err != nil {
		return fmt.Errorf("source_lang: %w", err)
	}
	af.SourceLang = src
	if _, ok := translate.DefaultProviders()[af.Provider]; !ok {
		return fmt.Errorf("provider %q is unknown (valid: %s)", af.Provider, strings.Join(translate.ProviderIDs(), ", "))
	}
	if af.Vocabulary != nil {
		if _, err := extract.NewClassifier(af.VocabularyOrDefault()); err != nil {
			return fmt.Errorf("vocabulary: %w", err)
		}
	}
	return nil
}

// NormalizeExtensions trims entries and adds a missing leading dot: "dart" -> ".dart".
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// ---------------------------------------------------------------------------
// Derived settings
// ---------------------------------------------------------------------------

// VocabularyOrDefault returns the default vocabulary with the file's
// overrides merged in.
func (af *ArbkitFile) VocabularyOrDefault() *extract.Vocabulary {
	return extract.DefaultVocabulary().Merge(af.Vocabulary)
}

// DenylistOrNil returns the denylist extract should apply, or nil when it
// is disabled.
func (af *ArbkitFile) DenylistOrNil() *extract.Denylist {
	if af.Denylist != nil && !*af.Denylist {
		return nil
	}
	if af.DenylistRules != nil {
		return af.DenylistRules
	}
	return extract.DefaultDenylist()
}

// ApplyProvider overlays the file's model, base URL and proxy on p when
// the file selects the same provider.
func (af *ArbkitFile) ApplyProvider(p translate.Provider) translate.Provider {
	if p.ID != af.Provider {
		return p
	}
	if af.Model != "" {
		p.Model = af.Model
	}
	if af.BaseURL != "" {
		p.BaseURL = af.BaseURL
	}
	if af.Proxy != "" {
		p.Proxy = af.Proxy
	}
	return p
}

// Resolve returns path relative to the config file's directory unless it
// is absolute. Paths of a default config are returned unchanged.
func (af *ArbkitFile) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || af.path == "" {
		return path
	}
	return filepath.Join(filepath.Dir(af.path), path)
}
