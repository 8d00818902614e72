package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Rule is a named rejection predicate. Reject receives the trimmed segment
// and the raw pre-context.
type Rule struct {
	Name   string
	Reject func(text, pre string) bool
}

// Decision is the outcome of classifying one segment. Rule names the first
// rule that rejected it and is empty when Keep is set.
type Decision struct {
	Keep bool
	Rule string
}

// Classifier decides whether a candidate segment is user-facing text. It
// runs an ordered chain of rules; a segment is kept only when no rule
// rejects it.
type Classifier struct {
	rules  []Rule
	byName map[string]int
}

// NewClassifier compiles the rule chain for v. A nil v means
// DefaultVocabulary.
func NewClassifier(v *Vocabulary) (*Classifier, error) {
	if v == nil {
		v = DefaultVocabulary()
	}
	rules, err := buildRules(v)
	if err != nil {
		return nil, err
	}
	c := &Classifier{rules: rules, byName: make(map[string]int, len(rules))}
	for i, r := range rules {
		if _, dup := c.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate rule %q", r.Name)
		}
		c.byName[r.Name] = i
	}
	return c, nil
}

// Classify runs the rule chain over segment.
func (c *Classifier) Classify(segment, pre string) Decision {
	text := strings.TrimSpace(segment)
	for _, r := range c.rules {
		if r.Reject(text, pre) {
			return Decision{Rule: r.Name}
		}
	}
	return Decision{Keep: true}
}

// ShouldExtract reports whether segment should be extracted.
func (c *Classifier) ShouldExtract(segment, pre string) bool {
	return c.Classify(segment, pre).Keep
}

// Rule returns the rule called name.
func (c *Classifier) Rule(name string) (Rule, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Rules returns the rule chain in evaluation order.
func (c *Classifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// callPattern compiles "(a|b|c)<suffix>". Names are used unquoted. An empty
// name list yields nil, which never matches.
func callPattern(names []string, suffix string) (*regexp.Regexp, error) {
	if len(names) == 0 {
		return nil, nil
	}
	re, err := regexp.Compile("(" + strings.Join(names, "|") + ")" + suffix)
	if err != nil {
		return nil, fmt.Errorf("compiling %v: %w", names, err)
	}
	return re, nil
}

func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasPrefixAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// hit reports whether text trips the word list.
func (w WordList) hit(text string) bool {
	if containsAny(text, w.Contains) {
		return true
	}
	return containsAny(strings.ToLower(text), w.LowerContains) && !containsAny(text, w.Unless)
}

// isNumeric reports whether s is non-empty and made only of numeric runes.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// isUpper reports whether s has at least one cased letter and all cased
// letters are upper case.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsLower(r), unicode.IsTitle(r):
			return false
		case unicode.IsUpper(r):
			cased = true
		}
	}
	return cased
}

// isLower reports whether s has at least one cased letter and all cased
// letters are lower case.
func isLower(s string) bool {
	cased := false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r), unicode.IsTitle(r):
			return false
		case unicode.IsLower(r):
			cased = true
		}
	}
	return cased
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func hasLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}
