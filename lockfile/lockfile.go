// Package lockfile implements arbkit.lock, which remembers the source
// text each translated ARB entry was produced from. The status command
// uses it to list entries whose source changed after their translation.
//
// The lock file lives in the project root next to pubspec.yaml.
package lockfile

import (
	"crypto/md5"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LockFileName is the lock file name inside the project root.
const LockFileName = "arbkit.lock"

// Version is the lock file format version.
const Version = 1

// LockFile maps an output ARB file to the checksums of the source entries
// it was translated from.
type LockFile struct {
	Version int `yaml:"version"`
	// Checksums is target -> ARB key -> md5 of EntryContent.
	Checksums map[string]map[string]string `yaml:"checksums"`

	path string
}

// Load reads the lock file in dir. A missing file yields an empty lock.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported version %d", path, lf.Version)
	}
	lf.Version = Version
	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}
	return lf, nil
}

// Save writes the lock file back to where it was loaded from.
func (lf *LockFile) Save() error {
	if lf.path == "" {
		return errors.New("lock file path not set")
	}
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}
	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// Hash computes the MD5 hex digest of s.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// EntryContent is the hashed form of an ARB entry. The key takes part so
// a renamed key counts as changed.
func EntryContent(key, value string) string {
	return key + "\x00" + value
}

// TargetKey names an output ARB file inside the lock, relative to the
// project root when possible.
func TargetKey(root, arbPath string) string {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if abs, err := filepath.Abs(arbPath); err == nil {
		arbPath = abs
	}
	if rel, err := filepath.Rel(root, arbPath); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(arbPath)
}

// IsChanged reports whether the source value of key is new or differs
// from the one recorded for target.
func (lf *LockFile) IsChanged(target, key, value string) bool {
	old, ok := lf.Checksums[target][key]
	return !ok || old != Hash(EntryContent(key, value))
}

// Update records the source value key was translated from.
func (lf *LockFile) Update(target, key, value string) {
	if lf.Checksums[target] == nil {
		lf.Checksums[target] = make(map[string]string)
	}
	lf.Checksums[target][key] = Hash(EntryContent(key, value))
}

// Has reports whether target was ever recorded.
func (lf *LockFile) Has(target string) bool {
	_, ok := lf.Checksums[target]
	return ok
}

// Stale returns the keys of values, sorted, whose non-blank source changed
// since target was translated.
func (lf *LockFile) Stale(target string, values map[string]string) []string {
	var stale []string
	for key, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if lf.IsChanged(target, key, value) {
			stale = append(stale, key)
		}
	}
	sort.Strings(stale)
	return stale
}

// Clean drops the entries of target whose key is not in keys.
func (lf *LockFile) Clean(target string, keys []string) {
	existing := lf.Checksums[target]
	if existing == nil {
		return
	}
	valid := make(map[string]bool, len(keys))
	for _, k := range keys {
		valid[k] = true
	}
	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
	if len(existing) == 0 {
		delete(lf.Checksums, target)
	}
}

// Stats returns the number of targets and the total number of keys.
func (lf *LockFile) Stats() (targets, keys int) {
	targets = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Targets returns the target names, sorted.
func (lf *LockFile) Targets() []string {
	targets := make([]string, 0, len(lf.Checksums))
	for t := range lf.Checksums {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}

// Summary returns a one-line description of the lock contents.
func (lf *LockFile) Summary() string {
	targets, keys := lf.Stats()
	if targets == 0 {
		return "empty"
	}
	parts := make([]string, 0, targets)
	for _, t := range lf.Targets() {
		parts = append(parts, fmt.Sprintf("%s: %d keys", t, len(lf.Checksums[t])))
	}
	return fmt.Sprintf("%d targets, %d keys (%s)", targets, keys, strings.Join(parts, ", "))
}
