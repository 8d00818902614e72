// Package translate machine-translates the string entries of an ARB file.
//
// Values are submitted one at a time, in document order, to a Translator.
// Metadata entries ("@..." keys) and non-string values are copied through
// unchanged. A failed value keeps its original text; only cancellation of
// the context stops a run.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arbkit/arbkit/arbfile"
	"github.com/arbkit/arbkit/langmeta"
)

// Translator is a machine-translation service. source may be
// langmeta.Auto.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, text, source, target string) (string, error)

// Translate calls f.
func (f TranslatorFunc) Translate(ctx context.Context, text, source, target string) (string, error) {
	return f(ctx, text, source, target)
}

// TranslationError reports a value the service failed to translate.
type TranslationError struct {
	Key  string
	Text string
	Err  error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translating %q (%s): %v", truncate(e.Text, 60), e.Key, e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }

// Options controls a translation run.
type Options struct {
	// Translator performs the calls. Required.
	Translator Translator
	// Source is the source language code. Empty means langmeta.Auto.
	Source string
	// Target is the target language code. Required.
	Target string
	// Delay is the pause between two service calls.
	Delay time.Duration
	// OnProgress is called after each value, translated or not.
	OnProgress func(done, total int)
	// OnTranslated is called for each successfully translated value.
	OnTranslated func(key, source, translated string)
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// OnError emits per-value failures.
	OnError func(format string, args ...any)
	// Verbose logs every translated value through OnLog.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) source() string {
	if o.Source == "" {
		return langmeta.Auto
	}
	return o.Source
}

// Summary counts the outcome of a run.
type Summary struct {
	// Total is the number of translatable entries.
	Total int
	// Translated counts values replaced by the service's output.
	Translated int
	// Failed counts values kept untranslated after an error.
	Failed int
	// Skipped counts empty values, which are never sent.
	Skipped int
	// Errors holds one *TranslationError per failed value.
	Errors []error
}

// TranslateFile returns a copy of src with every translatable value
// translated from opts.Source to opts.Target. Key order and the position
// of metadata entries are preserved. The returned error is non-nil only
// for invalid options or a cancelled context; in that case no file is
// returned.
func TranslateFile(ctx context.Context, src *arbfile.File, opts Options) (*arbfile.File, *Summary, error) {
	if opts.Translator == nil {
		return nil, nil, errors.New("no translator configured")
	}
	if opts.Target == "" {
		return nil, nil, errors.New("no target language")
	}

	out := src.Clone()
	keys := src.Keys()
	sum := &Summary{Total: len(keys)}
	source := opts.source()

	calls := 0
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		text, _ := src.Get(key)
		if strings.TrimSpace(text) == "" {
			sum.Skipped++
			if opts.OnProgress != nil {
				opts.OnProgress(i+1, len(keys))
			}
			continue
		}

		if calls > 0 {
			if err := pause(ctx, opts.Delay); err != nil {
				return nil, nil, err
			}
		}
		calls++
		translated, err := opts.Translator.Translate(ctx, text, source, opts.Target)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			terr := &TranslationError{Key: key, Text: text, Err: err}
			sum.Failed++
			sum.Errors = append(sum.Errors, terr)
			opts.logError("%v", terr)
		} else {
			out.Set(key, translated)
			sum.Translated++
			if opts.Verbose {
				opts.log("%s: %q -> %q", key, truncate(text, 40), truncate(translated, 40))
			}
			if opts.OnTranslated != nil {
				opts.OnTranslated(key, text, translated)
			}
		}

		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(keys))
		}
	}
	return out, sum, nil
}

// pause waits d unless ctx is cancelled first.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// SaveFile writes file to path and logs the result.
func SaveFile(file *arbfile.File, path string, opts Options) error {
	if err := file.WriteFile(path); err != nil {
		opts.logError("Error saving %s: %v", path, err)
		return err
	}
	total, filled, _ := file.Stats()
	opts.log("Saved %s (%d/%d non-empty)", path, filled, total)
	return nil
}

// truncate shortens s to maxLen characters.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
