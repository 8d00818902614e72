package pathfilter

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMatch(t *testing.T) {
	root := t.TempDir()
	m, err := New(root, []string{
		"lib/l10n.dart",
		"generated",
		"**/*.freezed.dart",
		"*.mocks.dart",
		"lib/{gen,tmp}/*.dart",
		filepath.Join(root, "tool"),
		"  ",
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		rel  string
		want bool
	}{
		{"lib/l10n.dart", true},
		{"lib/l10n.dart.bak", false},
		{"lib/generated", true},
		{"lib/ungenerated", false},
		{"lib/models/user.freezed.dart", true},
		{"lib/models/user.dart", false},
		{"test/api.mocks.dart", true},
		{"lib/gen/strings.dart", true},
		{"lib/gen/deep/strings.dart", false},
		{"tool", true},
		{"lib/main.dart", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := m.Match(filepath.Join(root, filepath.FromSlash(tt.rel))); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestNewExact(t *testing.T) {
	root := t.TempDir()
	m, err := NewExact(root, []string{"main.dart", "generated", "**/*.freezed.dart"})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		rel  string
		want bool
	}{
		{"main.dart", true},
		{"feature/main.dart", false},
		{"generated", true},
		{"lib/generated", false},
		{"lib/models/user.freezed.dart", true},
	}
	for _, tt := range tests {
		if got := m.Match(filepath.Join(root, filepath.FromSlash(tt.rel))); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestMatch_NilAndEmpty(t *testing.T) {
	var m *Matcher
	if m.Match("/anything") {
		t.Error("nil matcher should match nothing")
	}
	empty, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !empty.Empty() || empty.Match("/anything") {
		t.Error("empty matcher should match nothing")
	}
}

func TestHasSuffix(t *testing.T) {
	t.Parallel()
	exts := []string{".dart", ".g.dart"}
	tests := []struct {
		name string
		want bool
	}{
		{"main.dart", true},
		{"model.g.dart", true},
		{"pubspec.yaml", false},
		{"dart", false},
	}
	for _, tt := range tests {
		if got := HasSuffix(tt.name, exts); got != tt.want {
			t.Errorf("HasSuffix(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if HasSuffix("main.dart", []string{""}) {
		t.Error("empty suffix must not match")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" .dart, .kt ,,")
	if diff := cmp.Diff([]string{".dart", ".kt"}, got); diff != "" {
		t.Errorf("SplitList mismatch (-want +got):\n%s", diff)
	}
}
