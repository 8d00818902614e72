package lockfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newLock() *LockFile {
	return &LockFile{Version: Version, Checksums: make(map[string]map[string]string)}
}

func TestHash(t *testing.T) {
	if Hash("hello") != Hash("hello") {
		t.Error("Hash not deterministic")
	}
	if Hash("hello") == Hash("world") {
		t.Error("Hash collision")
	}
	if got := Hash(""); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("Hash(\"\") = %s", got)
	}
}

func TestEntryContent(t *testing.T) {
	if EntryContent("a", "x") == EntryContent("b", "x") {
		t.Error("different keys should produce different content")
	}
	if EntryContent("a", "x") == EntryContent("a", "y") {
		t.Error("different values should produce different content")
	}
}

func TestTargetKey(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "app")
	outside := filepath.Join(base, "other", "app_de.arb")
	tests := []struct {
		name, root, path, want string
	}{
		{"inside root", root, filepath.Join(root, "lib", "l10n", "app_de.arb"), "lib/l10n/app_de.arb"},
		{"outside root", root, outside, filepath.ToSlash(outside)},
		{"unclean path", root, filepath.Join(root, "lib", "..", "lib", "app_de.arb"), "lib/app_de.arb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetKey(tt.root, tt.path); got != tt.want {
				t.Errorf("TargetKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadNonExistent(t *testing.T) {
	dir := t.TempDir()
	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if lf.Version != Version || len(lf.Checksums) != 0 {
		t.Errorf("unexpected lock: %+v", lf)
	}
	if lf.Path() != filepath.Join(dir, LockFileName) {
		t.Errorf("Path = %q", lf.Path())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name, content string
	}{
		{"malformed", "checksums: [\n"},
		{"future version", "version: 99\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(dir); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lf.Update("lib/l10n/app_de.arb", "hello", "Hello")
	lf.Update("lib/l10n/app_de.arb", "bye", "Bye")
	lf.Update("lib/l10n/app_fr.arb", "hello", "Hello")
	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	lf2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}
	if diff := cmp.Diff(lf.Checksums, lf2.Checksums); diff != "" {
		t.Errorf("checksums mismatch (-saved +loaded):\n%s", diff)
	}
	if lf2.IsChanged("lib/l10n/app_fr.arb", "hello", "Hello") {
		t.Error("reloaded entry should be unchanged")
	}
}

func TestSaveWithoutPath(t *testing.T) {
	if err := newLock().Save(); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsChanged(t *testing.T) {
	lf := newLock()
	const target = "lib/l10n/app_de.arb"

	if !lf.IsChanged(target, "hello", "Hello") {
		t.Error("new entry should be changed")
	}
	lf.Update(target, "hello", "Hello")
	if lf.IsChanged(target, "hello", "Hello") {
		t.Error("recorded entry should be unchanged")
	}
	if !lf.IsChanged(target, "hello", "Hello!") {
		t.Error("modified value should be changed")
	}
	if !lf.IsChanged("lib/l10n/app_fr.arb", "hello", "Hello") {
		t.Error("other target should be changed")
	}
}

func TestClean(t *testing.T) {
	lf := newLock()
	lf.Update("de", "a", "A")
	lf.Update("de", "b", "B")
	lf.Update("fr", "gone", "G")

	lf.Clean("de", []string{"a"})
	lf.Clean("fr", nil)
	lf.Clean("missing", []string{"a"})

	want := map[string]map[string]string{"de": {"a": Hash(EntryContent("a", "A"))}}
	if diff := cmp.Diff(want, lf.Checksums); diff != "" {
		t.Errorf("checksums after Clean (-want +got):\n%s", diff)
	}
}

func TestStatsTargetsSummary(t *testing.T) {
	lf := newLock()
	if lf.Summary() != "empty" {
		t.Errorf("Summary = %q", lf.Summary())
	}
	lf.Update("b.arb", "x", "X")
	lf.Update("a.arb", "x", "X")
	lf.Update("a.arb", "y", "Y")

	targets, keys := lf.Stats()
	if targets != 2 || keys != 3 {
		t.Errorf("Stats = %d, %d", targets, keys)
	}
	if diff := cmp.Diff([]string{"a.arb", "b.arb"}, lf.Targets()); diff != "" {
		t.Errorf("Targets (-want +got):\n%s", diff)
	}
	if got, want := lf.Summary(), "2 targets, 3 keys (a.arb: 2 keys, b.arb: 1 keys)"; got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestHasAndStale(t *testing.T) {
	lf := newLock()
	const target = "lib/l10n/app_de.arb"
	if lf.Has(target) {
		t.Fatal("empty lock should not have target")
	}
	lf.Update(target, "hello", "Hello")
	lf.Update(target, "bye", "Bye")
	if !lf.Has(target) {
		t.Fatal("Has = false after Update")
	}

	values := map[string]string{
		"hello": "Hello",
		"bye":   "Goodbye",
		"new":   "New",
		"blank": " ",
	}
	if diff := cmp.Diff([]string{"bye", "new"}, lf.Stale(target, values)); diff != "" {
		t.Errorf("Stale (-want +got):\n%s", diff)
	}
	if got := lf.Stale(target, map[string]string{"hello": "Hello"}); len(got) != 0 {
		t.Errorf("Stale of unchanged values = %v", got)
	}
}
