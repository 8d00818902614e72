package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule names, in evaluation order.
const (
	RuleEmpty                    = "empty"
	RuleInterpolationStart       = "interpolation-start"
	RuleNumeric                  = "numeric"
	RuleNoLetter                 = "no-letter"
	RuleURLOrPath                = "url-or-path"
	RulePackageImport            = "package-import"
	RuleSourcePath               = "source-path"
	RuleSourceLanguage           = "source-language"
	RuleLogCall                  = "log-call"
	RuleDiagnosticCall           = "diagnostic-call"
	RuleNamedLogCall             = "named-log-call"
	RuleSnakeOrConstant          = "snake-or-constant"
	RuleCamelCase                = "camel-case"
	RuleInterpolationExpression  = "interpolation-expression"
	RuleInterpolationPrefix      = "interpolation-prefix"
	RuleDollarSigil              = "dollar-sigil"
	RuleSubstringCall            = "substring-call"
	RuleUppercaseConstant        = "uppercase-constant"
	RuleGetAccessor              = "get-accessor"
	RuleAssetReference           = "asset-reference"
	RuleConstructorInterpolation = "constructor-interpolation"
	RuleContainerLookup          = "container-lookup"
	RuleBracketKey               = "bracket-key"
	RuleQueryReference           = "query-reference"
	RuleEnglishMarkers           = "english-markers"
	RuleEnglishErrors            = "english-errors"
	RuleEnglishDefaults          = "english-defaults"
	RuleEnglishIdentifiers       = "english-identifiers"
)

const callSuffix = `\s*\(\s*`

var (
	accentRe      = regexp.MustCompile(`[` + accentedLetters + `]`)
	camelRe       = regexp.MustCompile(`^[a-z].*[A-Z]`)
	constructorRe = regexp.MustCompile(`[A-Z][a-zA-Z]*\(.+?\$[a-zA-Z]`)
	openBracketRe = regexp.MustCompile(`\[\s*$`)
)

func buildRules(v *Vocabulary) ([]Rule, error) {
	logRe, err := callPattern(v.LogCalls, callSuffix)
	if err != nil {
		return nil, err
	}
	diagRe, err := callPattern(v.DiagnosticCalls, callSuffix)
	if err != nil {
		return nil, err
	}
	namedLogRe, err := callPattern(v.NamedLogCalls, callSuffix+regexp.QuoteMeta(v.NamedLogParam)+`\s*:\s*`)
	if err != nil {
		return nil, err
	}
	getRe, err := callPattern(v.GetterCalls, callSuffix)
	if err != nil {
		return nil, err
	}
	containerRe, err := callPattern(v.ContainerNames, `\s*\[\s*`)
	if err != nil {
		return nil, err
	}
	queryRe, err := callPattern(v.QueryCalls, callSuffix)
	if err != nil {
		return nil, err
	}

	noSpace := func(s string) bool { return !strings.Contains(s, " ") }
	containsAll := func(s string, subs ...string) bool {
		for _, sub := range subs {
			if sub == "" || !strings.Contains(s, sub) {
				return false
			}
		}
		return true
	}

	return []Rule{
		// Structural.
		{RuleEmpty, func(t, _ string) bool { return t == "" }},
		{RuleInterpolationStart, func(t, _ string) bool { return strings.HasPrefix(t, "${") }},
		{RuleNumeric, func(t, _ string) bool { return isNumeric(t) }},
		{RuleNoLetter, func(t, _ string) bool { return !hasLetter(t) }},
		{RuleURLOrPath, func(t, _ string) bool { return hasPrefixAny(t, v.URLPrefixes) }},

		// Imports and paths.
		{RulePackageImport, func(t, _ string) bool {
			return containsAll(t, "/", v.PackageMarker, v.SourceExtension)
		}},
		{RuleSourcePath, func(t, _ string) bool { return containsAll(t, "/", v.SourceExtension) }},
		{RuleSourceLanguage, func(t, _ string) bool { return containsAll(t, v.LanguageWord) }},

		// Call sites.
		{RuleLogCall, func(_, pre string) bool {
			return matches(logRe, pre) && !containsAny(pre, v.LogOverrides)
		}},
		{RuleDiagnosticCall, func(_, pre string) bool { return matches(diagRe, pre) }},
		{RuleNamedLogCall, func(_, pre string) bool { return matches(namedLogRe, pre) }},

		// Identifier shapes.
		{RuleSnakeOrConstant, func(t, _ string) bool {
			return strings.Contains(t, "_") && (isUpper(t) || isLower(t))
		}},
		{RuleCamelCase, func(t, _ string) bool {
			return !accentRe.MatchString(t) && camelRe.MatchString(t) && noSpace(t)
		}},

		// Interpolation residue.
		{RuleInterpolationExpression, func(t, _ string) bool {
			return strings.HasPrefix(t, "${") && strings.HasSuffix(t, "}") && noSpace(t)
		}},
		{RuleInterpolationPrefix, func(t, _ string) bool { return strings.HasPrefix(t, "${") && noSpace(t) }},
		{RuleDollarSigil, func(t, _ string) bool { return strings.HasPrefix(t, "$") && noSpace(t) }},

		{RuleSubstringCall, func(t, _ string) bool { return containsAny(t, v.SubstringMarkers) }},
		{RuleUppercaseConstant, func(t, _ string) bool {
			return !hasLower(t) && utf8.RuneCountInString(t) > 3 && !containsAny(t, v.UppercaseWhitelist)
		}},
		{RuleGetAccessor, func(_, pre string) bool {
			return matches(getRe, pre) && !containsAny(pre, v.GetterOverrides)
		}},
		{RuleAssetReference, func(t, _ string) bool { return containsAny(t, v.AssetMarkers) }},
		{RuleConstructorInterpolation, func(t, _ string) bool { return constructorRe.MatchString(t) }},

		// Data access.
		{RuleContainerLookup, func(_, pre string) bool { return matches(containerRe, pre) }},
		{RuleBracketKey, func(t, pre string) bool {
			return openBracketRe.MatchString(pre) && noSpace(t) &&
				!containsAny(t, v.BracketWhitelist) && !containsAny(pre, v.BracketOverrides)
		}},
		{RuleQueryReference, func(_, pre string) bool { return matches(queryRe, pre) }},

		// Developer-facing English.
		{RuleEnglishMarkers, func(t, _ string) bool { return v.EnglishMarkers.hit(t) }},
		{RuleEnglishErrors, func(t, _ string) bool { return v.EnglishErrors.hit(t) }},
		{RuleEnglishDefaults, func(t, _ string) bool { return v.EnglishDefaults.hit(t) }},
		{RuleEnglishIdentifiers, func(t, _ string) bool { return v.EnglishIdentifiers.hit(t) }},
	}, nil
}
