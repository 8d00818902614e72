// Package pathfilter decides which files of a source tree are left alone by
// the extractor and the substitution engine.
//
// An exclusion pattern is one of:
//
//   - a plain path, absolute or relative to either the working directory or
//     the walk root ("lib/l10n.dart", "/src/app/lib/gen");
//   - a glob using gobwas/glob syntax ("**/*.freezed.dart", "lib/{gen,l10n}/*"),
//     matched against the slash-separated path relative to the walk root, or
//     against the base name when the pattern has no "/".
//
// Under New a plain pattern also matches any path that ends with it on a path
// element boundary, so "generated" excludes "lib/generated" wherever the tree
// is. NewExact drops that suffix rule.
package pathfilter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

type globPattern struct {
	src      string
	g        glob.Glob
	baseOnly bool
}

// Matcher matches paths against a fixed set of exclusion patterns.
type Matcher struct {
	root     string
	exact    map[string]bool
	suffixes []string
	globs    []globPattern
}

// New compiles patterns for a walk rooted at root. Empty patterns are
// ignored.
func New(root string, patterns []string) (*Matcher, error) {
	return compile(root, patterns, true)
}

// NewExact is like New but a plain pattern matches only the path it names.
func NewExact(root string, patterns []string) (*Matcher, error) {
	return compile(root, patterns, false)
}

func compile(root string, patterns []string, suffixes bool) (*Matcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	m := &Matcher{root: absRoot, exact: make(map[string]bool)}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if isGlob(p) {
			slashed := filepath.ToSlash(p)
			g, err := glob.Compile(slashed, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
			}
			m.globs = append(m.globs, globPattern{
				src:      p,
				g:        g,
				baseOnly: !strings.Contains(slashed, "/"),
			})
			continue
		}

		if abs, err := filepath.Abs(p); err == nil {
			m.exact[abs] = true
		}
		if !filepath.IsAbs(p) {
			m.exact[filepath.Join(absRoot, p)] = true
		}
		if suffixes {
			m.suffixes = append(m.suffixes, "/"+strings.Trim(filepath.ToSlash(filepath.Clean(p)), "/"))
		}
	}
	return m, nil
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// Empty reports whether the matcher has no patterns.
func (m *Matcher) Empty() bool {
	return m == nil || (len(m.exact) == 0 && len(m.globs) == 0)
}

// Match reports whether path is excluded. A nil Matcher excludes nothing.
func (m *Matcher) Match(path string) bool {
	if m.Empty() {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if m.exact[abs] {
		return true
	}

	slashed := filepath.ToSlash(abs)
	for _, s := range m.suffixes {
		if strings.HasSuffix(slashed, s) {
			return true
		}
	}

	if len(m.globs) == 0 {
		return false
	}
	rel, err := filepath.Rel(m.root, abs)
	if err != nil {
		rel = abs
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(abs)
	for _, gp := range m.globs {
		if gp.baseOnly {
			if gp.g.Match(base) {
				return true
			}
			continue
		}
		if gp.g.Match(rel) {
			return true
		}
	}
	return false
}

// HasSuffix reports whether name ends with any of suffixes. Used for
// extension lists, which may name compound endings such as ".g.dart".
func HasSuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// SplitList splits a comma-separated flag value, trimming blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
