// Package config implements auto-detection of Flutter project settings
// from pubspec.yaml and l10n.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Project holds auto-detected project configuration.
type Project struct {
	// Root is the directory holding pubspec.yaml.
	Root string
	// Name is the package name from pubspec.yaml.
	Name string
	// Version is the package version from pubspec.yaml.
	Version string
	// Flutter is true when pubspec.yaml depends on the Flutter SDK.
	Flutter bool

	// ARBDir is the directory holding the ARB files, relative to Root.
	ARBDir string
	// TemplateARB is the template ARB file name inside ARBDir.
	TemplateARB string
	// OutputClass is the generated localizations class.
	OutputClass string
	// NullableGetter mirrors l10n.yaml's nullable-getter (default true).
	NullableGetter bool
	// HasL10nYAML reports whether l10n.yaml was found.
	HasL10nYAML bool
}

// Flutter gen-l10n defaults.
const (
	DefaultARBDir      = "lib/l10n"
	DefaultTemplateARB = "app_en.arb"
	DefaultOutputClass = "AppLocalizations"
)

type pubspec struct {
	Name         string         `yaml:"name"`
	Version      string         `yaml:"version"`
	Dependencies map[string]any `yaml:"dependencies"`
}

type l10nYAML struct {
	ARBDir         string `yaml:"arb-dir"`
	TemplateARB    string `yaml:"template-arb-file"`
	OutputClass    string `yaml:"output-class"`
	NullableGetter *bool  `yaml:"nullable-getter"`
}

// Detect inspects rootDir for pubspec.yaml and l10n.yaml. Missing files
// leave the gen-l10n defaults in place; a malformed file is an error.
func Detect(rootDir string) (*Project, error) {
	p := &Project{
		Root:           rootDir,
		ARBDir:         DefaultARBDir,
		TemplateARB:    DefaultTemplateARB,
		OutputClass:    DefaultOutputClass,
		NullableGetter: true,
	}

	var ps pubspec
	found, err := readYAML(filepath.Join(rootDir, "pubspec.yaml"), &ps)
	if err != nil {
		return nil, err
	}
	if found {
		p.Name = ps.Name
		p.Version = ps.Version
		_, p.Flutter = ps.Dependencies["flutter"]
	}

	var l10n l10nYAML
	found, err = readYAML(filepath.Join(rootDir, "l10n.yaml"), &l10n)
	if err != nil {
		return nil, err
	}
	if found {
		p.HasL10nYAML = true
		if l10n.ARBDir != "" {
			p.ARBDir = filepath.FromSlash(l10n.ARBDir)
		}
		if l10n.TemplateARB != "" {
			p.TemplateARB = l10n.TemplateARB
		}
		if l10n.OutputClass != "" {
			p.OutputClass = l10n.OutputClass
		}
		if l10n.NullableGetter != nil {
			p.NullableGetter = *l10n.NullableGetter
		}
	}
	return p, nil
}

func readYAML(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return true, nil
}

// SemVer parses Version. Flutter's "1.2.3+45" form is valid semver with
// build metadata.
func (p *Project) SemVer() (*semver.Version, error) {
	if p.Version == "" {
		return nil, fmt.Errorf("no version in pubspec.yaml")
	}
	v, err := semver.StrictNewVersion(p.Version)
	if err != nil {
		return nil, fmt.Errorf("pubspec version %q: %w", p.Version, err)
	}
	return v, nil
}

// Reference returns the replacement template matching the generated
// localizations class, e.g. "AppLocalizations.of(context)!.{key}".
func (p *Project) Reference() string {
	if p.NullableGetter {
		return p.OutputClass + ".of(context)!.{key}"
	}
	return p.OutputClass + ".of(context).{key}"
}

// AbsARBDir returns the ARB directory joined with Root.
func (p *Project) AbsARBDir() string {
	return filepath.Join(p.Root, p.ARBDir)
}

// TemplatePath returns the path of the template ARB file.
func (p *Project) TemplatePath() string {
	return filepath.Join(p.AbsARBDir(), p.TemplateARB)
}

// templatePrefix returns the part of the template name before its locale:
// "app_en.arb" -> "app_".
func (p *Project) templatePrefix() string {
	base := strings.TrimSuffix(p.TemplateARB, ".arb")
	if i := strings.LastIndex(base, "_"); i >= 0 {
		// "intl_pt_BR" keeps "intl_" when the tail is a region.
		prefix := base[:i+1]
		if j := strings.LastIndex(base[:i], "_"); j >= 0 && isRegion(base[i+1:]) {
			prefix = base[:j+1]
		}
		return prefix
	}
	return "app_"
}

func isRegion(s string) bool {
	if len(s) != 2 {
		return false
	}
	return s == strings.ToUpper(s)
}

// ARBPath returns the ARB path for lang next to the template, using
// Flutter's underscore form: "pt-BR" -> lib/l10n/app_pt_BR.arb.
func (p *Project) ARBPath(lang string) string {
	return filepath.Join(p.AbsARBDir(), p.templatePrefix()+strings.ReplaceAll(lang, "-", "_")+".arb")
}

// LangFromARB returns the language of an ARB file named after the
// template's pattern: "app_pt_BR.arb" -> "pt-BR". Other names yield "".
func (p *Project) LangFromARB(name string) string {
	prefix := p.templatePrefix()
	base := filepath.Base(name)
	if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, ".arb") {
		return ""
	}
	lang := strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".arb")
	return strings.ReplaceAll(lang, "_", "-")
}
