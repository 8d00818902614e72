package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/arbkit/arbkit/langmeta"
)

// ---------------------------------------------------------------------------
// Provider IDs
// ---------------------------------------------------------------------------

const (
	ProviderGoogle       = "google"
	ProviderOpenAI       = "openai"
	ProviderGroq         = "groq"
	ProviderOllama       = "ollama"
	ProviderCustomOpenAI = "custom-openai"
)

// SystemPrompt instructs chat models how to translate a single ARB value.
const SystemPrompt = `You are a professional translator specializing in mobile app localization. You are translating UI strings for a Flutter application.

Translate the text sent by the user from {{sourceLang}} to {{targetLang}}.

TECHNICAL REQUIREMENTS:
- Reply with the translated text ONLY: no quotes, labels, explanations or markdown.
- Keep ICU placeholders such as {name} or {count} exactly as written.
- In ICU plural/select messages translate only the message text, never the keywords (plural, select, one, other, =0).
- Preserve line breaks and punctuation patterns.
- Keep brand names and proper nouns unchanged.`

// ---------------------------------------------------------------------------
// Provider configuration
// ---------------------------------------------------------------------------

// Provider holds the configuration for a translation service.
type Provider struct {
	// ID is the provider identifier (google, openai, groq, ...).
	ID string
	// Name is the display name.
	Name string
	// BaseURL is the API base URL.
	BaseURL string
	// APIKey is the authentication key (empty for local services).
	APIKey string
	// Model is the model identifier.
	Model string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the request timeout.
	Timeout time.Duration
	// NeedsKey marks providers that reject unauthenticated requests.
	NeedsKey bool
}

// DefaultProviders returns the pre-configured provider definitions.
func DefaultProviders() map[string]Provider {
	return map[string]Provider{
		ProviderGoogle: {
			ID:      ProviderGoogle,
			Name:    "Google Translate",
			Timeout: 30 * time.Second,
		},
		ProviderOpenAI: {
			ID:       ProviderOpenAI,
			Name:     "OpenAI",
			BaseURL:  "https://api.openai.com/v1",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
			NeedsKey: true,
		},
		ProviderGroq: {
			ID:       ProviderGroq,
			Name:     "Groq",
			BaseURL:  "https://api.groq.com/openai/v1",
			Model:    "llama-3.3-70b-versatile",
			Timeout:  60 * time.Second,
			NeedsKey: true,
		},
		ProviderOllama: {
			ID:      ProviderOllama,
			Name:    "Ollama",
			BaseURL: "http://localhost:11434/v1",
			Model:   "llama3.2",
			Timeout: 120 * time.Second,
		},
		ProviderCustomOpenAI: {
			ID:      ProviderCustomOpenAI,
			Name:    "Custom OpenAI",
			Timeout: 60 * time.Second,
		},
	}
}

// ProviderIDs lists the known provider IDs in display order.
func ProviderIDs() []string {
	return []string{ProviderGoogle, ProviderOpenAI, ProviderGroq, ProviderOllama, ProviderCustomOpenAI}
}

// NewTranslator builds the Translator for p.
func NewTranslator(p Provider) (Translator, error) {
	switch p.ID {
	case ProviderGoogle:
		return NewGoogleTranslator(), nil
	case ProviderOpenAI, ProviderGroq, ProviderOllama, ProviderCustomOpenAI:
		if p.BaseURL == "" {
			return nil, fmt.Errorf("provider %s: base URL is required", p.ID)
		}
		if p.Model == "" {
			return nil, fmt.Errorf("provider %s: model is required", p.ID)
		}
		if p.NeedsKey && p.APIKey == "" {
			return nil, fmt.Errorf("provider %s: API key is required", p.ID)
		}
		return NewOpenAITranslator(p), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (known: %s)", p.ID, strings.Join(ProviderIDs(), ", "))
	}
}

// ---------------------------------------------------------------------------
// OpenAI-compatible chat completions
// ---------------------------------------------------------------------------

// OpenAITranslator translates through an OpenAI-compatible
// /chat/completions endpoint, one request per value.
type OpenAITranslator struct {
	Provider Provider
	// MaxRetries is the maximum number of retries on network errors, 429
	// and 5xx responses. Default: 3.
	MaxRetries int
	// Temperature is the sampling temperature. Default: 0.3.
	Temperature float64
	// Verbose logs each request.
	Verbose bool

	client     *http.Client
	backoff    func(attempt int) time.Duration
	retryDelay func(body []byte) time.Duration
}

// NewOpenAITranslator returns a translator for p.
func NewOpenAITranslator(p Provider) *OpenAITranslator {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAITranslator{
		Provider:   p,
		client:     makeHTTPClient(p.Proxy, timeout),
		backoff:    exponentialBackoff,
		retryDelay: parseRetryDelay,
	}
}

func (o *OpenAITranslator) maxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

func (o *OpenAITranslator) temperature() float64 {
	if o.Temperature > 0 {
		return o.Temperature
	}
	return 0.3
}

// Translate implements Translator.
func (o *OpenAITranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	out, err := o.complete(ctx, resolvePrompt(source, target), text)
	if err != nil {
		return "", err
	}
	out = cleanResponse(out, text)
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%s: empty translation", o.Provider.Name)
	}
	return out, nil
}

// resolvePrompt fills in the language names of SystemPrompt.
func resolvePrompt(source, target string) string {
	srcName := "the source language (detect it)"
	if source != "" && source != langmeta.Auto {
		srcName = promptLangName(source)
	}
	r := strings.NewReplacer("{{sourceLang}}", srcName, "{{targetLang}}", promptLangName(target))
	return r.Replace(SystemPrompt)
}

func promptLangName(code string) string {
	name := langmeta.EnglishName(code)
	if name == code {
		return code
	}
	return fmt.Sprintf("%s (%s)", name, code)
}

func (o *OpenAITranslator) endpoint() string {
	baseURL := strings.TrimRight(o.Provider.BaseURL, "/")
	if strings.HasSuffix(baseURL, "/chat/completions") {
		return baseURL
	}
	return baseURL + "/chat/completions"
}

func (o *OpenAITranslator) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	body, err := buildOpenAIChatRequest(o.Provider.Model, systemPrompt, userPrompt, o.temperature())
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	endpoint := o.endpoint()
	client := o.client
	if client == nil {
		client = makeHTTPClient(o.Provider.Proxy, o.Provider.Timeout)
	}
	backoff := o.backoff
	if backoff == nil {
		backoff = exponentialBackoff
	}
	retryDelay := o.retryDelay
	if retryDelay == nil {
		retryDelay = parseRetryDelay
	}
	maxRetries := o.maxRetries()

	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if o.Provider.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+o.Provider.APIKey)
		}

		if o.Verbose {
			log.Printf("[DEBUG] %s attempt %d: POST %s", o.Provider.Name, attempt+1, endpoint)
		}

		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if attempt < maxRetries {
				if err := sleep(ctx, backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("API request failed: %w", err)
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			delay := retryDelay(respBody)
			if o.Verbose {
				log.Printf("[WARN] 429 rate limited, waiting %v before retry (attempt %d/%d)", delay, attempt+1, maxRetries)
			}
			if attempt < maxRetries {
				if err := sleep(ctx, delay); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("rate limited after %d retries: %s", maxRetries, truncate(string(respBody), 500))
		}

		if resp.StatusCode != http.StatusOK {
			if attempt < maxRetries && resp.StatusCode >= 500 {
				if err := sleep(ctx, backoff(attempt)); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500))
		}

		return extractResponseText(respBody)
	}

	return "", fmt.Errorf("exhausted all %d retries", maxRetries)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// ---------------------------------------------------------------------------
// HTTP client with proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Request / response
// ---------------------------------------------------------------------------

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

// extractResponseText returns choices[0].message.content, or the API's
// error message.
func extractResponseText(body []byte) (string, error) {
	var raw struct {
		Error   json.RawMessage `json:"error"`
		Choices []struct {
			Message struct {
				Content *string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if len(raw.Error) > 0 && string(raw.Error) != "null" {
		var e struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(raw.Error, &e) == nil && e.Message != "" {
			return "", fmt.Errorf("API error: %s", e.Message)
		}
		return "", fmt.Errorf("API error: %s", truncate(string(raw.Error), 500))
	}

	if len(raw.Choices) > 0 && raw.Choices[0].Message.Content != nil {
		return *raw.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

// parseRetryDelay extracts the retry delay from a 429 response body: a
// RetryInfo detail's retryDelay, else an OpenAI-style "try again in Ns"
// message. Defaults to 60s + 5s buffer.
func parseRetryDelay(body []byte) time.Duration {
	const defaultDelay = 65 * time.Second

	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		return defaultDelay
	}

	for _, detail := range errResp.Error.Details {
		if strings.Contains(detail.Type, "RetryInfo") && detail.RetryDelay != "" {
			d := strings.TrimSuffix(detail.RetryDelay, "s")
			if secs, err := strconv.ParseFloat(d, 64); err == nil {
				return time.Duration(secs*1000)*time.Millisecond + 5*time.Second
			}
		}
	}

	if m := tryAgainIn.FindStringSubmatch(errResp.Error.Message); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			return time.Duration(secs*1000)*time.Millisecond + time.Second
		}
	}

	return defaultDelay
}

var (
	tryAgainIn        = regexp.MustCompile(`try again in ([0-9.]+)s`)
	markdownCodeBlock = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// cleanResponse strips wrappers chat models add around a bare answer and
// restores the original's surrounding whitespace.
func cleanResponse(out, original string) string {
	out = strings.TrimSpace(out)
	if m := markdownCodeBlock.FindStringSubmatch(out); m != nil {
		out = m[1]
	}
	for _, q := range []string{`"`, `'`, "“"} {
		closing := q
		if q == "“" {
			closing = "”"
		}
		if len(out) >= len(q)+len(closing) && strings.HasPrefix(out, q) && strings.HasSuffix(out, closing) &&
			!strings.HasPrefix(strings.TrimSpace(original), q) {
			out = out[len(q) : len(out)-len(closing)]
			break
		}
	}
	lead := original[:len(original)-len(strings.TrimLeftFunc(original, unicode.IsSpace))]
	trail := original[len(strings.TrimRightFunc(original, unicode.IsSpace)):]
	if strings.TrimSpace(original) == "" {
		trail = ""
	}
	return lead + out + trail
}
