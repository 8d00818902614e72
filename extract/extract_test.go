package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const homeDart = `import 'package:app/widgets.dart';

class HomePage {
  Widget build(BuildContext context) {
    debugPrint("Hello");
    final greeting = 'Bem-vindo, ${user.name}!';
    return Column(children: [
      Text("Olá, mundo!"),
      Text("Salvar alterações"),
      Text("Olá, mundo!"),
    ]);
  }
}
`

// writeTree creates files under a fresh temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func sampleTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"lib/home.dart":         homeDart,
		"lib/model.g.dart":      `Text("Gerado")`,
		"lib/main.dart":         `Text("Principal")`,
		"lib/l10n/strings.dart": `Text("Excluído")`,
		"lib/README.md":         `"Documentação"`,
		".dart_tool/cache.dart": `Text("Cache")`,
		"lib/user.freezed.dart": `Text("Congelado")`,
	})
}

func TestExtract(t *testing.T) {
	root := sampleTree(t)
	res, err := Extract(root, Options{
		Exclude:  []string{"lib/l10n", "**/*.freezed.dart"},
		Denylist: DefaultDenylist(),
	})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"bemvindo", "olá_mundo", "salvar_alterações"}, res.File.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := res.File.Get("bemvindo"); v != "Bem-vindo," {
		t.Errorf("bemvindo = %q", v)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "lib", "home.dart")}, res.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if res.Candidates != 7 {
		t.Errorf("Candidates = %d, want 7", res.Candidates)
	}
	if res.Accepted != 4 {
		t.Errorf("Accepted = %d, want 4", res.Accepted)
	}
	wantRejections := map[string]int{RulePackageImport: 1, RuleLogCall: 1, RuleNoLetter: 1}
	if diff := cmp.Diff(wantRejections, res.Rejections); diff != "" {
		t.Errorf("rejections mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_WithoutDenylist(t *testing.T) {
	root := sampleTree(t)
	res, err := Extract(root, Options{Exclude: []string{"lib/l10n", "**/*.freezed.dart"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.File.Get("principal"); !ok {
		t.Errorf("lib/main.dart should be scanned without a denylist; keys = %v", res.File.Keys())
	}
}

func TestExtract_RelativeRootUsesDenylist(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib/main.dart":                    `Text("Principal")`,
		"lib/packages/moovz_models/m.dart": `Text("Modelo secreto")`,
		"lib/ok.dart":                      `Text("Tudo certo")`,
	})
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(filepath.Join(root, "lib")); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	res, err := Extract(".", Options{Denylist: DefaultDenylist()})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"tudo_certo"}, res.File.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"ok.dart"}, res.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_LogVersusLabel(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.dart": `void f() { print("Hello"); }`,
		"b.dart": `final w = Button(label: "Hello");`,
	})
	res, err := Extract(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"hello"}, res.File.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_SlugCollisions(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.dart": `Text("Salvar"); Text("Salvar!"); Text("Salvar")`,
	})
	res, err := Extract(root, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"salvar": "Salvar", "salvar_1": "Salvar!"}
	if diff := cmp.Diff(want, res.File.SourceValues()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_OnReject(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.dart": "log(\"Oi\");\n// ------------------------------\nText(\"Tchau\")",
	})
	var rejected []string
	_, err := Extract(root, Options{
		OnReject: func(path string, c Candidate, rule string) {
			rejected = append(rejected, c.Text+"="+rule)
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Oi=" + RuleLogCall}, rejected); diff != "" {
		t.Errorf("rejections mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_MissingDir(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "nope"), Options{})
	if !errors.Is(err, ErrDirNotFound) {
		t.Errorf("err = %v, want ErrDirNotFound", err)
	}
}

func TestRun_WritesOutput(t *testing.T) {
	root := writeTree(t, map[string]string{"lib/a.dart": `Text("Olá, mundo!")`})
	out := filepath.Join(t.TempDir(), "out", "strings.json")

	if _, err := Run(root, out, Options{}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"olá_mundo\": \"Olá, mundo!\"\n}\n"
	if string(data) != want {
		t.Errorf("output = %q, want %q", data, want)
	}
}

func TestRun_MissingDirWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "strings.json")
	if _, err := Run(filepath.Join(t.TempDir(), "nope"), out, Options{}); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output should not exist, stat err = %v", err)
	}
}

func TestDenylist_Skips(t *testing.T) {
	t.Parallel()
	d := DefaultDenylist()
	tests := []struct {
		path string
		want bool
	}{
		{"app/lib/packages/moovz_models/user.dart", true},
		{"app/lib/packages/moovz_services/api.dart", true},
		{"app/lib/firebase_options.dart", true},
		{"app/lib/ui/color_extensions.dart", true},
		{"app/lib/main.dart", true},
		{"app/lib/packages/moovz_commons/src/repositories/user_repository.dart", true},
		{"app/lib/packages/moovz_commons/src/repositories/HeartRateZoneModelData.dart", false},
		{"app/lib/ui/home.dart", false},
	}
	for _, tt := range tests {
		if got := d.Skips(tt.path); got != tt.want {
			t.Errorf("Skips(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	var none *Denylist
	if none.Skips("lib/main.dart") {
		t.Error("nil denylist should skip nothing")
	}
}

func TestAccumulator(t *testing.T) {
	acc := NewAccumulator()
	keys := []string{acc.Add("Olá"), acc.Add("Olá"), acc.Add("olá"), acc.Add("...")}
	if keys[0] != "olá" || keys[1] != "olá" || keys[2] != "olá_1" {
		t.Errorf("keys = %v", keys)
	}
	if keys[3] == "" {
		t.Error("punctuation-only text should still get a key")
	}
	if n := acc.File().Len(); n != 3 {
		t.Errorf("Len = %d, want 3", n)
	}
}
