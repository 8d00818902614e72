// Package i18n translates arbkit's own console messages.
//
// It wraps gotext with T() and N(). Catalogs are embedded in the binary
// and selected at startup by Init.
//
// Usage:
//
//	i18n.Init("")  // LANGUAGE/LC_ALL/LC_MESSAGES/LANG
//	fmt.Println(i18n.T("Saved %s"))
//	fmt.Println(i18n.N("%d file", "%d files", count))
package i18n

import (
	"embed"
	"os"
	"strings"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// Directory structure: locales/{catalog}/LC_MESSAGES/arbkit.po
//
//go:embed all:locales
var locales embed.FS

const domain = "arbkit"

// catalogs lists the embedded catalogs. The first one is the untranslated
// fallback.
var catalogs = []struct {
	tag  language.Tag
	name string
}{
	{language.English, "en"},
	{language.BrazilianPortuguese, "pt_BR"},
}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(catalogs))
	for i, c := range catalogs {
		tags[i] = c.tag
	}
	return language.NewMatcher(tags)
}()

var (
	po      *gotext.Locale
	current = catalogs[0].name
)

// Init loads the catalog closest to lang. An empty lang is detected from
// the environment, following GNU gettext.
func Init(lang string) {
	if lang == "" {
		lang = detectLanguage()
	}
	current = catalogFor(lang)
	po = gotext.NewLocaleFSWithPath(current, locales, "locales")
	po.AddDomain(domain)
	po.SetDomain(domain)
}

// Current returns the selected catalog name, "en" before Init.
func Current() string {
	return current
}

// T translates a string. Untranslated strings are returned unchanged.
func T(msgid string) string {
	if po == nil {
		return msgid
	}
	return po.Get(msgid)
}

// N translates a string with plural forms.
func N(singular, plural string, n int) string {
	if po == nil {
		if n == 1 {
			return singular
		}
		return plural
	}
	return po.GetN(singular, plural, n)
}

// catalogFor maps a POSIX locale or BCP 47 tag to an embedded catalog.
func catalogFor(lang string) string {
	tag, err := language.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return catalogs[0].name
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return catalogs[0].name
	}
	return catalogs[idx].name
}

func detectLanguage() string {
	// GNU gettext priority: LANGUAGE > LC_ALL > LC_MESSAGES > LANG
	for _, env := range []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"} {
		if val := os.Getenv(env); val != "" {
			if env == "LANGUAGE" {
				val, _, _ = strings.Cut(val, ":")
			}
			// "pt_BR.UTF-8" -> "pt_BR"
			if idx := strings.IndexByte(val, '.'); idx >= 0 {
				val = val[:idx]
			}
			if val == "C" || val == "POSIX" || val == "" {
				continue
			}
			return val
		}
	}
	return "en"
}
