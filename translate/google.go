package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/bregydoc/gtranslate"

	"github.com/arbkit/arbkit/langmeta"
)

// GoogleTranslator uses the public Google Translate web endpoint. It needs
// no API key and supports source language detection.
type GoogleTranslator struct {
	// Tries is the number of attempts per value. Default: 1.
	Tries int

	call func(text string, params gtranslate.TranslationParams) (string, error)
}

// NewGoogleTranslator returns a GoogleTranslator.
func NewGoogleTranslator() *GoogleTranslator {
	return &GoogleTranslator{call: gtranslate.TranslateWithParams}
}

// Translate implements Translator.
func (g *GoogleTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == "" {
		source = langmeta.Auto
	}
	call := g.call
	if call == nil {
		call = gtranslate.TranslateWithParams
	}
	tries := g.Tries
	if tries < 1 {
		tries = 1
	}

	var lastErr error
	for attempt := 0; attempt < tries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := call(text, gtranslate.TranslationParams{
			From: source,
			To:   target,
		})
		if err == nil {
			if strings.TrimSpace(out) == "" {
				return "", fmt.Errorf("google: empty translation")
			}
			return out, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("google: %w", lastErr)
}
