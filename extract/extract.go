// Package extract finds user-facing string literals in Flutter/Dart sources
// and collects them into a key→text resource map.
//
// Extraction is heuristic: Scan locates every quoted literal that holds a
// letter, the Classifier rejects those that look like code (imports, log
// messages, identifiers, map keys, developer English) and the survivors are
// keyed by a slug of their text. The output is meant for human review.
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/arbkit/arbkit/arbfile"
	"github.com/arbkit/arbkit/keygen"
	"github.com/arbkit/arbkit/pathfilter"
)

// ErrDirNotFound is returned when the source directory does not exist.
var ErrDirNotFound = errors.New("source directory not found")

// DefaultOutput is the file written when no output path is given.
const DefaultOutput = "translations_pt.json"

// skipDirs contains directory names to skip during source file scanning.
var skipDirs = map[string]bool{
	".git":       true,
	".hg":        true,
	".svn":       true,
	".dart_tool": true,
	".idea":      true,
}

// GuardedDir is a directory whose files are skipped unless their path
// contains one of Allow.
type GuardedDir struct {
	Dir   string   `yaml:"dir"`
	Allow []string `yaml:"allow"`
}

// Denylist names files that never hold user-facing text: generated models,
// service layers, platform configuration.
type Denylist struct {
	// PathContains skips files whose slash path contains any entry.
	PathContains []string `yaml:"path_contains"`
	// BaseContains skips files whose base name contains any entry.
	BaseContains []string     `yaml:"base_contains"`
	Guarded      []GuardedDir `yaml:"guarded"`
}

// DefaultDenylist returns the built-in denylist.
func DefaultDenylist() *Denylist {
	return &Denylist{
		PathContains: []string{
			"lib/packages/moovz_models",
			"lib/packages/moovz_services",
			"lib/main.dart",
		},
		BaseContains: []string{
			"firebase_options.dart",
			"FirebaseParQModelDocument.dart",
			"color_extensions.dart",
		},
		Guarded: []GuardedDir{{
			Dir: "lib/packages/moovz_commons/src/repositories",
			Allow: []string{
				"FIrebaseClassSessionModelRepository.dart",
				"HeartRateZoneModelData.dart",
				"i_base_firebase_repository.dart",
			},
		}},
	}
}

// Skips reports whether path is denied. Entries are matched as substrings,
// so path should be absolute.
func (d *Denylist) Skips(path string) bool {
	if d == nil {
		return false
	}
	slashed := filepath.ToSlash(path)
	if containsAny(slashed, d.PathContains) {
		return true
	}
	if containsAny(filepath.Base(path), d.BaseContains) {
		return true
	}
	for _, g := range d.Guarded {
		if g.Dir != "" && strings.Contains(slashed, g.Dir) && !containsAny(slashed, g.Allow) {
			return true
		}
	}
	return false
}

// Options configures an extraction run.
type Options struct {
	// Extensions selects source files by name suffix. Default: .dart.
	Extensions []string
	// Exclude lists pathfilter patterns for files and directories to skip.
	Exclude []string
	// IgnoreSuffixes skips files whose path ends with any entry. Default: .g.dart.
	IgnoreSuffixes []string
	// Denylist, when set, skips the files it names.
	Denylist *Denylist
	// Classifier decides which segments are kept. Default: NewClassifier(nil).
	Classifier *Classifier

	// OnLog emits progress messages.
	OnLog func(format string, args ...any)
	// OnWarn reports files that could not be processed.
	OnWarn func(format string, args ...any)
	// OnReject is called for every rejected segment.
	OnReject func(path string, c Candidate, rule string)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) warn(format string, args ...any) {
	if o.OnWarn != nil {
		o.OnWarn(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) extensions() []string {
	if len(o.Extensions) == 0 {
		return []string{".dart"}
	}
	return o.Extensions
}

func (o *Options) ignoreSuffixes() []string {
	if o.IgnoreSuffixes == nil {
		return []string{".g.dart"}
	}
	return o.IgnoreSuffixes
}

// Result holds the outcome of an extraction.
type Result struct {
	// File is the extracted resource map, in discovery order.
	File *arbfile.File
	// Files lists the source files scanned.
	Files []string
	// Candidates counts every segment classified.
	Candidates int
	// Accepted counts segments kept, duplicates included.
	Accepted int
	// Rejections counts rejected segments per rule.
	Rejections map[string]int
}

// Accumulator collects accepted segments under slug keys. Identical text
// shares one key; different text with the same slug gets _1, _2, ...
type Accumulator struct {
	file *arbfile.File
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{file: arbfile.New()}
}

// Add stores text and returns its key. Text without a usable key is
// dropped and "" returned.
func (a *Accumulator) Add(text string) string {
	key := keygen.SlugFor(text, a.file.Get)
	if key == "" {
		return ""
	}
	if err := a.file.Add(key, text); err != nil {
		return ""
	}
	return key
}

// File returns the accumulated resource map.
func (a *Accumulator) File() *arbfile.File { return a.file }

// FindSources walks root in lexical order and returns the files selected by
// opts.
func FindSources(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, root)
		}
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	exclude, err := pathfilter.New(root, opts.Exclude)
	if err != nil {
		return nil, err
	}
	exts := opts.extensions()
	ignore := opts.ignoreSuffixes()

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			opts.warn("Skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != root && (skipDirs[d.Name()] || exclude.Match(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if !pathfilter.HasSuffix(d.Name(), exts) {
			return nil
		}
		if pathfilter.HasSuffix(path, ignore) || exclude.Match(path) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if opts.Denylist.Skips(abs) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return files, nil
}

// Extract scans the source files under root and returns the accepted
// strings. Unreadable files are reported through OnWarn and skipped.
func Extract(root string, opts Options) (*Result, error) {
	if opts.Classifier == nil {
		c, err := NewClassifier(nil)
		if err != nil {
			return nil, err
		}
		opts.Classifier = c
	}

	files, err := FindSources(root, opts)
	if err != nil {
		return nil, err
	}

	acc := NewAccumulator()
	res := &Result{Rejections: make(map[string]int)}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			opts.warn("Cannot read %s: %v", path, err)
			continue
		}
		res.Files = append(res.Files, path)

		kept := 0
		for c := range Scan(string(data)) {
			res.Candidates++
			d := opts.Classifier.Classify(c.Text, c.PreContext)
			if !d.Keep {
				res.Rejections[d.Rule]++
				if opts.OnReject != nil {
					opts.OnReject(path, c, d.Rule)
				}
				continue
			}
			if acc.Add(strings.TrimSpace(c.Text)) != "" {
				res.Accepted++
				kept++
			}
		}
		if kept > 0 {
			opts.log("%s: %d strings", path, kept)
		}
	}

	res.File = acc.File()
	return res, nil
}

// Run extracts from root and writes the resource map to output. Nothing is
// written when extraction fails.
func Run(root, output string, opts Options) (*Result, error) {
	res, err := Extract(root, opts)
	if err != nil {
		return nil, err
	}
	if output == "" {
		output = DefaultOutput
	}
	if err := res.File.WriteFile(output); err != nil {
		return nil, err
	}
	return res, nil
}
