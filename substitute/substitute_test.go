package substitute

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/arbkit/arbkit/arbfile"
	"github.com/arbkit/arbkit/extract"
)

const sampleMap = `{
  "@@locale": "pt",
  "a": "Salvar",
  "b": "Salvar alterações",
  "@b": {"description": "botão"},
  "c": "",
  "d": "Olá",
  "n": 3,
  "e": "Salvar"
}`

func mustParse(t *testing.T, s string) *arbfile.File {
	t.Helper()
	f, err := arbfile.Parse([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func mustRef(t *testing.T, tmpl string) Reference {
	t.Helper()
	r, err := NewReference(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBuildMap(t *testing.T) {
	got := BuildMap(mustParse(t, sampleMap))
	want := []Pair{
		{Value: "Salvar alterações", Key: "b"},
		{Value: "Salvar", Key: "e"},
		{Value: "Olá", Key: "d"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildMap mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMap_StableForEqualLength(t *testing.T) {
	got := BuildMap(mustParse(t, `{"x": "Um", "y": "Eu", "z": "Três"}`))
	want := []Pair{{"Três", "z"}, {"Um", "x"}, {"Eu", "y"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BuildMap mismatch (-want +got):\n%s", diff)
	}
}

func TestApply(t *testing.T) {
	pairs := BuildMap(mustParse(t, sampleMap))
	in := `Text("Salvar alterações"); Text("Salvar"); Text('Olá'); Text("Olá")`

	got, n := Apply(in, pairs, Reference{}, nil)
	want := `Text(AppLocalizations.of(context)!.b); Text(AppLocalizations.of(context)!.e); Text('Olá'); Text(AppLocalizations.of(context)!.d)`
	if got != want {
		t.Errorf("Apply =\n%s\nwant\n%s", got, want)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}

	again, n := Apply(got, pairs, Reference{}, nil)
	if again != got || n != 0 {
		t.Errorf("second pass changed content (%d substitutions)", n)
	}
}

func TestApply_LongestFirst(t *testing.T) {
	pairs := BuildMap(mustParse(t, `{"short": "a", "long": "b\", \"a"}`))
	got, n := Apply(`f("b", "a")`, pairs, mustRef(t, "S.{key}"), nil)
	if got != `f(S.long)` || n != 1 {
		t.Errorf("Apply = %q (%d), want %q (1)", got, n, `f(S.long)`)
	}
}

func TestApply_SingleQuotes(t *testing.T) {
	pairs := []Pair{{Value: "Olá", Key: "ola"}}
	got, n := Apply(`a('Olá'); b("Olá")`, pairs, mustRef(t, "S.current.{key}"), []string{`"`, `'`})
	if got != `a(S.current.ola); b(S.current.ola)` || n != 2 {
		t.Errorf("Apply = %q (%d)", got, n)
	}
}

func TestNewReference(t *testing.T) {
	if _, err := NewReference("S.of(context)"); err == nil {
		t.Error("template without placeholder should fail")
	}
	r := mustRef(t, "")
	if got := r.Render("k"); got != "AppLocalizations.of(context)!.k" {
		t.Errorf("Render = %q", got)
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRun(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"lib/a.dart":     `Text("Olá"); Text("Olá"); Text("Salvar")`,
		"lib/b.dart":     `Text("Nada")`,
		"lib/l10n.dart":  `Text("Olá")`,
		"lib/notes.txt":  `"Olá"`,
		"lib/gen/x.dart": `Text("Olá")`,
	})
	pairs := BuildMap(mustParse(t, sampleMap))

	var seen []FileResult
	sum, err := Run(root, pairs, Options{
		Exclude: []string{"lib/l10n.dart", filepath.Join(root, "lib", "gen")},
		OnFile:  func(path string, n int) { seen = append(seen, FileResult{path, n}) },
	})
	if err != nil {
		t.Fatal(err)
	}

	a := filepath.Join(root, "lib", "a.dart")
	want := &Summary{
		FilesModified: 1,
		Substitutions: 3,
		Files:         []FileResult{{Path: a, Substitutions: 3}},
	}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Files, seen); diff != "" {
		t.Errorf("OnFile mismatch (-want +got):\n%s", diff)
	}

	if got := readFile(t, a); got != "Text(AppLocalizations.of(context)!.d); Text(AppLocalizations.of(context)!.d); Text(AppLocalizations.of(context)!.e)" {
		t.Errorf("a.dart = %s", got)
	}
	untouched := map[string]string{
		"lib/l10n.dart":  `Text("Olá")`,
		"lib/notes.txt":  `"Olá"`,
		"lib/gen/x.dart": `Text("Olá")`,
	}
	for name, content := range untouched {
		if got := readFile(t, filepath.Join(root, filepath.FromSlash(name))); got != content {
			t.Errorf("%s was modified: %s", name, got)
		}
	}
}

func TestRun_DryRun(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.dart": `Text("Olá")`})
	sum, err := Run(root, []Pair{{"Olá", "ola"}}, Options{DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Substitutions != 1 || sum.FilesModified != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if got := readFile(t, filepath.Join(root, "a.dart")); got != `Text("Olá")` {
		t.Errorf("dry run wrote the file: %s", got)
	}
}

func TestRun_ExcludeMatchesExactPath(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"main.dart":         `Text("Olá")`,
		"feature/main.dart": `Text("Olá")`,
	})
	sum, err := Run(root, []Pair{{"Olá", "ola"}}, Options{Exclude: []string{"main.dart"}})
	if err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "feature", "main.dart")
	want := []FileResult{{Path: nested, Substitutions: 1}}
	if diff := cmp.Diff(want, sum.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if got := readFile(t, filepath.Join(root, "main.dart")); got != `Text("Olá")` {
		t.Errorf("excluded main.dart was modified: %s", got)
	}
}

func TestRun_KeepsFileMode(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.dart": `Text("Olá")`})
	path := filepath.Join(root, "a.dart")
	if err := os.Chmod(path, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Run(root, []Pair{{"Olá", "ola"}}, Options{}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %v, want 0600", perm)
	}
	if got := readFile(t, path); got != "Text(AppLocalizations.of(context)!.ola)" {
		t.Errorf("a.dart = %s", got)
	}
}

func TestRun_MissingDir(t *testing.T) {
	_, err := Run(filepath.Join(t.TempDir(), "nope"), nil, Options{})
	if !errors.Is(err, ErrDirNotFound) {
		t.Errorf("err = %v, want ErrDirNotFound", err)
	}
}

func TestExtractThenReplace(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"lib/home.dart": "Text(\"Olá, mundo!\");\n// ------------------------------\nText(\"Salvar alterações\");\n",
	})
	res, err := extract.Extract(root, extract.Options{})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := Run(root, BuildMap(res.File), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Substitutions != 2 {
		t.Errorf("substitutions = %d, want 2", sum.Substitutions)
	}
	want := "Text(AppLocalizations.of(context)!.olá_mundo);\n// ------------------------------\nText(AppLocalizations.of(context)!.salvar_alterações);\n"
	if got := readFile(t, filepath.Join(root, "lib", "home.dart")); got != want {
		t.Errorf("home.dart =\n%s\nwant\n%s", got, want)
	}
}
