// Package substitute rewrites source files so that quoted literals found in
// a resource map are replaced by references to their keys.
//
// The value→key map is applied longest value first. When one value is a
// substring of another ("Salvar" inside "Salvar alterações") the longer
// literal is replaced before the shorter one can match inside it.
package substitute

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/arbkit/arbkit/arbfile"
	"github.com/arbkit/arbkit/pathfilter"
)

// ErrDirNotFound is returned when the target directory does not exist.
var ErrDirNotFound = errors.New("target directory not found")

// DefaultReference is the expression a literal is replaced with.
const DefaultReference = "AppLocalizations.of(context)!.{key}"

// KeyPlaceholder marks where the key goes in a reference template.
const KeyPlaceholder = "{key}"

// Pair is one entry of the substitution map.
type Pair struct {
	Value string
	Key   string
}

// BuildMap inverts the translatable entries of f into value→key pairs,
// ordered by value length (in characters) from longest to shortest. When
// several keys share a value the last one wins. Empty values are skipped.
func BuildMap(f *arbfile.File) []Pair {
	var pairs []Pair
	pos := make(map[string]int)
	for _, key := range f.Keys() {
		value, _ := f.Get(key)
		if value == "" {
			continue
		}
		if i, ok := pos[value]; ok {
			pairs[i].Key = key
			continue
		}
		pos[value] = len(pairs)
		pairs = append(pairs, Pair{Value: value, Key: key})
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return utf8.RuneCountInString(pairs[i].Value) > utf8.RuneCountInString(pairs[j].Value)
	})
	return pairs
}

// Reference renders the replacement expression for a key.
type Reference struct {
	tmpl string
}

// NewReference parses a template such as "S.of(context).{key}". An empty
// template yields DefaultReference.
func NewReference(tmpl string) (Reference, error) {
	if tmpl == "" {
		tmpl = DefaultReference
	}
	if !strings.Contains(tmpl, KeyPlaceholder) {
		return Reference{}, fmt.Errorf("reference template %q has no %s placeholder", tmpl, KeyPlaceholder)
	}
	return Reference{tmpl: tmpl}, nil
}

// Render returns the expression for key.
func (r Reference) Render(key string) string {
	tmpl := r.tmpl
	if tmpl == "" {
		tmpl = DefaultReference
	}
	return strings.ReplaceAll(tmpl, KeyPlaceholder, key)
}

// Apply replaces every quoted occurrence of each pair's value with the
// rendered reference, in pair order, and returns the new content and the
// number of replacements. quotes lists the accepted quote characters;
// nil means double quotes only.
func Apply(content string, pairs []Pair, ref Reference, quotes []string) (string, int) {
	if quotes == nil {
		quotes = []string{`"`}
	}
	total := 0
	for _, p := range pairs {
		repl := ref.Render(p.Key)
		for _, q := range quotes {
			needle := q + p.Value + q
			if n := strings.Count(content, needle); n > 0 {
				content = strings.ReplaceAll(content, needle, repl)
				total += n
			}
		}
	}
	return content, total
}

// Options configures a substitution run.
type Options struct {
	// Extensions selects files by name suffix. Default: .dart.
	Extensions []string
	// Exclude lists files and directories to skip: exact paths, absolute or
	// relative to the working directory or dir, and globs.
	Exclude []string
	// Reference renders replacements. The zero value uses DefaultReference.
	Reference Reference
	// Quotes lists accepted quote characters. Default: double quote only.
	Quotes []string
	// DryRun counts substitutions without writing files.
	DryRun bool

	// OnFile is called for each file with at least one substitution.
	OnFile func(path string, n int)
	// OnWarn reports files that could not be read or written.
	OnWarn func(format string, args ...any)
}

func (o *Options) warn(format string, args ...any) {
	if o.OnWarn != nil {
		o.OnWarn(format, args...)
	}
}

// FileResult is the outcome for one modified file.
type FileResult struct {
	Path          string
	Substitutions int
}

// Summary aggregates a run.
type Summary struct {
	FilesModified int
	Substitutions int
	Files         []FileResult
}

// Run applies pairs to every selected file under dir, rewriting files whose
// content changed. A file that cannot be read or written is reported
// through OnWarn and left out of the summary.
func Run(dir string, pairs []Pair, opts Options) (*Summary, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, dir)
		}
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirNotFound, dir)
	}

	exclude, err := pathfilter.NewExact(dir, opts.Exclude)
	if err != nil {
		return nil, err
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".dart"}
	}

	sum := &Summary{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			opts.warn("Skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != dir && exclude.Match(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if exclude.Match(path) || !pathfilter.HasSuffix(d.Name(), exts) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			opts.warn("Cannot read %s: %v", path, err)
			return nil
		}
		original := string(data)
		updated, n := Apply(original, pairs, opts.Reference, opts.Quotes)
		if updated == original {
			return nil
		}
		if !opts.DryRun {
			info, err := d.Info()
			if err != nil {
				opts.warn("Cannot stat %s: %v", path, err)
				return nil
			}
			if err := os.WriteFile(path, []byte(updated), info.Mode().Perm()); err != nil {
				opts.warn("Cannot write %s: %v", path, err)
				return nil
			}
		}

		sum.FilesModified++
		sum.Substitutions += n
		sum.Files = append(sum.Files, FileResult{Path: path, Substitutions: n})
		if opts.OnFile != nil {
			opts.OnFile(path, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	return sum, nil
}
