package keygen

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFromValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		value    string
		existing map[string]bool
		want     string
	}{
		{"ascii", "Hello", nil, "key_f7ff9e8b"},
		{"accented", "Olá", nil, "key_528e3850"},
		{"blank", "   ", nil, ""},
		{"empty", "", nil, ""},
		{"collision", "Hello", map[string]bool{"key_f7ff9e8b": true}, "key_f7ff9e8b1"},
		{"second collision", "Hello", map[string]bool{"key_f7ff9e8b": true, "key_f7ff9e8b1": true}, "key_f7ff9e8b2"},
		{"unrelated keys", "OK", map[string]bool{"key_f7ff9e8b": true}, "key_9ce3bd42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FromValue(tt.value, tt.existing); got != tt.want {
				t.Errorf("FromValue(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFromValue_DeterministicAndFresh(t *testing.T) {
	existing := map[string]bool{}
	first := FromValue("Salvar alterações", existing)
	if again := FromValue("Salvar alterações", existing); again != first {
		t.Fatalf("not deterministic: %q vs %q", first, again)
	}
	for i := 0; i < 5; i++ {
		k := FromValue("Salvar alterações", existing)
		if existing[k] {
			t.Fatalf("key %q already present", k)
		}
		if !strings.HasPrefix(k, first) {
			t.Errorf("key %q does not extend base %q", k, first)
		}
		existing[k] = true
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"Hello", "hello"},
		{"Olá, mundo!", "olá_mundo"},
		{"  Salvar   alterações  ", "salvar_alterações"},
		{"Você tem certeza?", "você_tem_certeza"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"!!!", ""},
		{"Passo 2 de 3", "passo_2_de_3"},
		{strings.Repeat("ação ", 20), strings.TrimRight(strings.Repeat("ação_", 10), "_")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := Slug(tt.in); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlug_TruncatesRunes(t *testing.T) {
	got := Slug(strings.Repeat("é", 80))
	if n := len([]rune(got)); n != MaxSlugLen {
		t.Errorf("len = %d runes, want %d", n, MaxSlugLen)
	}
}

func TestSlugFor(t *testing.T) {
	stored := map[string]string{}
	lookup := func(k string) (string, bool) {
		v, ok := stored[k]
		return v, ok
	}
	add := func(text string) string {
		k := SlugFor(text, lookup)
		stored[k] = text
		return k
	}

	if k := add("Salvar"); k != "salvar" {
		t.Errorf("first = %q", k)
	}
	if k := add("Salvar"); k != "salvar" {
		t.Errorf("identical value should reuse key, got %q", k)
	}
	if k := add("Salvar!"); k != "salvar_1" {
		t.Errorf("different value = %q, want salvar_1", k)
	}
	if k := add("SALVAR?"); k != "salvar_2" {
		t.Errorf("third value = %q, want salvar_2", k)
	}
	if k := add("Salvar!"); k != "salvar_1" {
		t.Errorf("repeat of suffixed value = %q, want salvar_1", k)
	}
	if k := add("???"); !strings.HasPrefix(k, HashPrefix) {
		t.Errorf("punctuation-only text should fall back to hash key, got %q", k)
	}
}

func TestBuildFile_DuplicatesReuseKey(t *testing.T) {
	f, gen := BuildFile([]string{"OK", "OK", "Cancel", "  "})
	if diff := cmp.Diff([]string{"key_9ce3bd42", "key_77dfd213"}, f.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	want := []Generated{
		{Key: "key_9ce3bd42", Value: "OK"},
		{Key: "key_9ce3bd42", Value: "OK", Reused: true},
		{Key: "key_77dfd213", Value: "Cancel"},
	}
	if diff := cmp.Diff(want, gen); diff != "" {
		t.Errorf("generated mismatch (-want +got):\n%s", diff)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadValues(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		want     []string
		wantWarn bool
	}{
		{"json array", "v.json", `["Olá", "Sair", 3, true]`, []string{"Olá", "Sair", "3", "true"}, false},
		{"json object", "v.json", `{"b": "Segundo", "a": "Primeiro"}`, []string{"Segundo", "Primeiro"}, true},
		{"txt", "v.txt", "  Olá  \n\n Sair\r\n", []string{"Olá", "Sair"}, false},
		{"empty array", "v.json", `[]`, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			warned := false
			got, err := ReadValues(path, func(string) { warned = true })
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
			if warned != tt.wantWarn {
				t.Errorf("warned = %v, want %v", warned, tt.wantWarn)
			}
		})
	}
}

func TestReadValues_Errors(t *testing.T) {
	if _, err := ReadValues(writeFile(t, "v.csv", "a,b"), nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("csv: err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := ReadValues(writeFile(t, "v.json", `{"a": `), nil); err == nil {
		t.Error("malformed JSON should fail")
	}
	if _, err := ReadValues(writeFile(t, "v.json", `"just a string"`), nil); err == nil {
		t.Error("scalar JSON should fail")
	}
	if _, err := ReadValues(filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Error("missing file should fail")
	}
}
