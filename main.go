// arbkit is a localization toolkit for Flutter ARB files: string
// extraction, key generation, literal replacement and machine translation.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arbkit/arbkit/arbfile"
	"github.com/arbkit/arbkit/config"
	"github.com/arbkit/arbkit/extract"
	"github.com/arbkit/arbkit/i18n"
	"github.com/arbkit/arbkit/keygen"
	"github.com/arbkit/arbkit/langmeta"
	"github.com/arbkit/arbkit/lockfile"
	"github.com/arbkit/arbkit/settings"
	"github.com/arbkit/arbkit/substitute"
	"github.com/arbkit/arbkit/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// apiKeyEnv overrides stored API keys.
const apiKeyEnv = "ARBKIT_API_KEY"

// newTranslator is replaced in tests.
var newTranslator = translate.NewTranslator

var (
	infoTag    = color.New(color.FgBlue).SprintFunc()
	successTag = color.New(color.FgGreen).SprintFunc()
	warnTag    = color.New(color.FgYellow, color.Bold).SprintFunc()
	errorTag   = color.New(color.FgRed).SprintFunc()
	headerTag  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// out receives every console message.
var out io.Writer = color.Output

func logInfo(format string, args ...any) {
	fmt.Fprintf(out, infoTag("[INFO]")+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(out, successTag("[OK]")+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(out, warnTag("[WARN]")+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(out, errorTag("[ERROR]")+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir    string
	configPath string
	langUI     string
	noColor    bool
)

// flagAliases maps the Portuguese flag names to their English names.
var flagAliases = map[string]string{
	"pasta":   "dir",
	"saida":   "output",
	"entrada": "input",
	"idioma":  "lang",
	"fonte":   "source",
	"excluir": "exclude",
}

func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	if alias, ok := flagAliases[name]; ok {
		name = alias
	}
	return pflag.NormalizedName(name)
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "arbkit",
		Short: "Localization tooling for Flutter ARB files",
		Long: `arbkit: localization tooling for Flutter ARB files.

Commands:
  extract     Find user-visible string literals in Dart sources
  keys        Generate an ARB file from a list of plain values
  replace     Replace string literals with localization references
  translate   Machine-translate an ARB file into another language
  status      Show project info and ARB statistics
  auth        Manage translation provider API keys

Project settings are read from pubspec.yaml, l10n.yaml and .arbkit.yaml in
the --root directory. Portuguese flag names are accepted as aliases:
--pasta, --saida, --entrada, --idioma, --fonte, --excluir.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
			i18n.Init(langUI)
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <root>/.arbkit.yaml)")
	root.PersistentFlags().StringVar(&langUI, "lang-ui", "", "Language of arbkit's own messages (default: from LANG)")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	root.SetGlobalNormalizationFunc(normalizeFlagName)

	root.AddCommand(
		newExtractCmd(),
		newKeysCmd(),
		newReplaceCmd(),
		newTranslateCmd(),
		newStatusCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// Workspace (project detection + .arbkit.yaml)
// ---------------------------------------------------------------------------

type workspace struct {
	cfg  *config.ArbkitFile
	proj *config.Project
}

func loadWorkspace() (*workspace, error) {
	proj, err := config.Detect(rootDir)
	if err != nil {
		return nil, err
	}
	path := configPath
	if path == "" {
		path = filepath.Join(rootDir, config.ArbkitFileName)
	}
	cfg, err := config.LoadArbkitFile(path)
	if err != nil {
		return nil, err
	}
	return &workspace{cfg: cfg, proj: proj}, nil
}

// extensions returns the flag value when set, else the configured list.
func (w *workspace) extensions(flag []string) []string {
	if len(flag) > 0 {
		return config.NormalizeExtensions(flag)
	}
	return w.cfg.Extensions
}

func (w *workspace) exclude(flag []string) []string {
	if len(flag) > 0 {
		return flag
	}
	return w.cfg.Exclude
}

// reference picks the replacement template: flag, config file, then the
// class named in l10n.yaml.
func (w *workspace) reference(flag string) string {
	switch {
	case flag != "":
		return flag
	case w.cfg.Reference != "":
		return w.cfg.Reference
	default:
		return w.proj.Reference()
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "arbkit version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)

			proj, err := config.Detect(rootDir)
			if err != nil || proj.Name == "" {
				return
			}
			if v, err := proj.SemVer(); err == nil {
				fmt.Fprintf(out, "  project:   %s %s\n", proj.Name, v)
			} else {
				fmt.Fprintf(out, "  project:   %s (%v)\n", proj.Name, err)
			}
		},
	}
}

// ---------------------------------------------------------------------------
// extract
// ---------------------------------------------------------------------------

type extractArgs struct {
	dir, output      string
	exts, exclude    []string
	explain, verbose bool
	noDenylist       bool
}

func newExtractCmd() *cobra.Command {
	var a extractArgs

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract user-visible strings from source files",
		Long: `Scan source files for string literals that look like user-visible text
and write them to a JSON resource file with slug keys.

Logging calls, identifiers, paths, asset names and similar literals are
filtered out by an ordered list of heuristic rules. Use --explain to see
which rule rejected each literal.

Examples:
  arbkit extract --dir lib
  arbkit extract --dir lib --output lib/l10n/app_pt.arb --explain`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWorkspace()
			if err != nil {
				return err
			}
			return runExtract(w, a)
		},
	}

	cmd.Flags().StringVar(&a.dir, "dir", "", "Source folder to scan (required)")
	cmd.Flags().StringVar(&a.output, "output", "", "Output JSON file (default: translations_pt.json)")
	cmd.Flags().StringSliceVar(&a.exts, "ext", nil, "File extensions to scan, comma-separated (default: .dart)")
	cmd.Flags().StringSliceVar(&a.exclude, "exclude", nil, "Files, folders or glob patterns to skip")
	cmd.Flags().BoolVar(&a.explain, "explain", false, "Report every rejected literal and the rule that rejected it")
	cmd.Flags().BoolVar(&a.noDenylist, "no-denylist", false, "Scan files on the built-in denylist")
	cmd.Flags().BoolVar(&a.verbose, "verbose", false, "Log per-file counts")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func runExtract(w *workspace, a extractArgs) error {
	classifier, err := extract.NewClassifier(w.cfg.VocabularyOrDefault())
	if err != nil {
		return err
	}
	output := a.output
	if output == "" {
		output = w.cfg.Resolve(w.cfg.Output)
	}

	opts := extract.Options{
		Extensions:     w.extensions(a.exts),
		Exclude:        w.exclude(a.exclude),
		IgnoreSuffixes: w.cfg.IgnoreSuffixes,
		Denylist:       w.cfg.DenylistOrNil(),
		Classifier:     classifier,
		OnWarn: func(format string, args ...any) {
			logWarning(format, args...)
		},
	}
	if a.noDenylist {
		opts.Denylist = nil
	}
	if a.verbose {
		opts.OnLog = func(format string, args ...any) {
			logInfo(format, args...)
		}
	}
	if a.explain {
		opts.OnReject = func(path string, c extract.Candidate, rule string) {
			fmt.Fprintf(out, "  %s @%d  %-26s %q\n", relPath(a.dir, path), c.Offset, rule, strings.TrimSpace(c.Text))
		}
	}

	logInfo(i18n.T("Scanning %s..."), a.dir)
	res, err := extract.Run(a.dir, output, opts)
	if err != nil {
		return err
	}

	if a.explain {
		printRejections(res.Rejections)
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		abs = output
	}
	n := res.File.Len()
	logSuccess(i18n.N("%d unique string found in %d files", "%d unique strings found in %d files", n), n, len(res.Files))
	logSuccess(i18n.T("Translation file saved to %s"), abs)
	return nil
}

func printRejections(rejections map[string]int) {
	if len(rejections) == 0 {
		return
	}
	rules := make([]string, 0, len(rejections))
	for r := range rejections {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rejections[rules[i]] != rejections[rules[j]] {
			return rejections[rules[i]] > rejections[rules[j]]
		}
		return rules[i] < rules[j]
	})

	fmt.Fprintf(out, "\n%s\n", headerTag(i18n.T("Rejected literals by rule")))
	for _, r := range rules {
		fmt.Fprintf(out, "  %-26s %6d\n", r, rejections[r])
	}
	fmt.Fprintln(out)
}

// ---------------------------------------------------------------------------
// keys
// ---------------------------------------------------------------------------

func newKeysCmd() *cobra.Command {
	var input, output string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Generate an ARB file from a list of values",
		Long: `Read plain values from a .json array or a .txt file (one value per line)
and write an ARB file that gives each distinct value a content-hash key
(key_ followed by 8 hex digits of its SHA-1).

Examples:
  arbkit keys --input strings.txt --output lib/l10n/app_pt.arb
  arbkit keys --entrada strings.json --saida app_pt.arb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeys(input, output, quiet)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Values file, .json or .txt (required)")
	cmd.Flags().StringVar(&output, "output", "", "ARB file to write (required)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Do not list generated keys")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runKeys(input, output string, quiet bool) error {
	values, err := keygen.ReadValues(input, func(msg string) {
		logWarning("%s", msg)
	})
	if err != nil {
		return err
	}
	if len(values) == 0 {
		logWarning(i18n.T("No values found to process."))
		return nil
	}

	logInfo(i18n.T("Found %d values in %s. Generating keys..."), len(values), input)
	f, generated := keygen.BuildFile(values)
	if !quiet {
		for _, g := range generated {
			if g.Reused {
				continue
			}
			fmt.Fprintf(out, "  - %s: %q\n", g.Key, truncateRunes(g.Value, 50))
		}
	}

	if err := f.WriteFile(output); err != nil {
		return err
	}
	logSuccess(i18n.T("ARB file generated at %s (%d keys)"), output, f.Len())
	return nil
}

// ---------------------------------------------------------------------------
// replace
// ---------------------------------------------------------------------------

type replaceArgs struct {
	arb, dir, ref string
	exts, exclude []string
	dryRun        bool
}

func newReplaceCmd() *cobra.Command {
	var a replaceArgs

	cmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace string literals with localization references",
		Long: `Replace every quoted literal whose text is a value of the reference ARB
file with a reference to its key, longest values first.

The reference template defaults to the class configured in l10n.yaml,
e.g. AppLocalizations.of(context)!.{key}.

Examples:
  arbkit replace --dir lib
  arbkit replace --arb lib/l10n/app_pt.arb --pasta lib --excluir lib/l10n.dart
  arbkit replace --dir lib --ref "S.of(context).{key}" --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWorkspace()
			if err != nil {
				return err
			}
			return runReplace(w, a)
		},
	}

	cmd.Flags().StringVar(&a.arb, "arb", "", "Reference ARB file (default: template from l10n.yaml)")
	cmd.Flags().StringVar(&a.dir, "dir", "", "Folder whose files are rewritten (required)")
	cmd.Flags().StringSliceVar(&a.exts, "ext", nil, "File extensions to process, comma-separated (default: .dart)")
	cmd.Flags().StringSliceVar(&a.exclude, "exclude", nil, "Files, folders or glob patterns to skip")
	cmd.Flags().StringVar(&a.ref, "ref", "", "Reference template, {key} marks the key")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Count substitutions without writing files")
	_ = cmd.MarkFlagRequired("dir")

	return cmd
}

func runReplace(w *workspace, a replaceArgs) error {
	arbPath := a.arb
	if arbPath == "" {
		arbPath = w.proj.TemplatePath()
	}
	f, err := arbfile.ParseFile(arbPath)
	if err != nil {
		return err
	}
	ref, err := substitute.NewReference(w.reference(a.ref))
	if err != nil {
		return err
	}
	pairs := substitute.BuildMap(f)

	logInfo(i18n.T("Searching in %s..."), a.dir)
	sum, err := substitute.Run(a.dir, pairs, substitute.Options{
		Extensions: w.extensions(a.exts),
		Exclude:    w.exclude(a.exclude),
		Reference:  ref,
		Quotes:     w.cfg.Quotes,
		DryRun:     a.dryRun,
		OnFile: func(path string, n int) {
			fmt.Fprintf(out, "  -> "+i18n.N("%s (%d substitution)", "%s (%d substitutions)", n)+"\n", path, n)
		},
		OnWarn: func(format string, args ...any) {
			logWarning(format, args...)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s\n", headerTag(i18n.T("--- Summary ---")))
	if a.dryRun {
		logInfo(i18n.T("Dry run: no files were written"))
	}
	logSuccess(i18n.T("Done."))
	fmt.Fprintf(out, i18n.T("Files modified: %d")+"\n", sum.FilesModified)
	fmt.Fprintf(out, i18n.T("Total substitutions: %d")+"\n", sum.Substitutions)
	return nil
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	input, output, lang, source string

	provider, apiKey, model, baseURL string
	proxy                            string
	timeout                          time.Duration
	maxRetries                       int

	delay           time.Duration
	verbose, dryRun bool
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Machine-translate an ARB file",
		Long: `Translate every string value of an ARB file into another language.

Values are sent one at a time, in file order. Metadata entries (@...) are
copied unchanged. A value the service fails to translate keeps its original
text. Interrupting the run (Ctrl+C) writes nothing.

The source text of every translated value is recorded in arbkit.lock so
that "arbkit status" can point out values changed since their translation.

Providers:
  google         Google Translate (free endpoint, no key)
  openai         OpenAI (API key)
  groq           Groq (API key)
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint

Examples:
  arbkit translate --lang es
  arbkit translate --input lib/l10n/app_pt.arb --output lib/l10n/app_es.arb --lang es
  arbkit translate --entrada app_pt.arb --saida app_en.arb --idioma en --fonte pt
  arbkit translate --lang de --provider groq --delay 500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWorkspace()
			if err != nil {
				return err
			}
			return runTranslate(cmd.Context(), w, a)
		},
	}

	// Files and languages
	cmd.Flags().StringVar(&a.input, "input", "", "Source ARB file (default: template from l10n.yaml)")
	cmd.Flags().StringVar(&a.output, "output", "", "Translated ARB file (default: next to the template)")
	cmd.Flags().StringVar(&a.lang, "lang", "", "Target language code, e.g. es, pt-BR (required)")
	cmd.Flags().StringVar(&a.source, "source", "", "Source language code (default: auto)")

	// Provider selection
	cmd.Flags().StringVar(&a.provider, "provider", "", "Translation provider: "+strings.Join(translate.ProviderIDs(), ", "))
	cmd.Flags().StringVar(&a.model, "model", "", "Model name (LLM providers)")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or "+apiKeyEnv+" env var)")
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "Custom API base URL")

	// Translation behavior
	cmd.Flags().DurationVar(&a.delay, "delay", 0, "Pause between two service calls")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Show what would be translated without calling the service")
	cmd.Flags().BoolVar(&a.verbose, "verbose", false, "Log every translated value")

	// Network
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, "Request timeout (0 = provider default)")
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().IntVar(&a.maxRetries, "max-retries", 3, "Maximum retries on rate limit (429) and server errors")

	_ = cmd.MarkFlagRequired("lang")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		defaults := translate.DefaultProviders()
		completions := make([]string, 0, len(defaults))
		for _, id := range translate.ProviderIDs() {
			completions = append(completions, id+"\t"+defaults[id].Name)
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		p, _ := cmd.Flags().GetString("provider")
		switch p {
		case translate.ProviderOpenAI:
			return []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"}, cobra.ShellCompDirectiveNoFileComp
		case translate.ProviderGroq:
			return []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}, cobra.ShellCompDirectiveNoFileComp
		case translate.ProviderOllama:
			return []string{"llama3.2", "qwen2.5", "mistral", "gemma2"}, cobra.ShellCompDirectiveNoFileComp
		default:
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	})

	_ = cmd.RegisterFlagCompletionFunc("lang", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		codes := []string{"en", "es", "pt", "pt-BR", "fr", "de", "it", "ja", "ko", "zh-Hans", "ru", "ar"}
		completions := make([]string, 0, len(codes))
		for _, c := range codes {
			completions = append(completions, c+"\t"+langmeta.Name(c))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runTranslate(ctx context.Context, w *workspace, a translateArgs) error {
	target, err := langmeta.ValidateTarget(a.lang)
	if err != nil {
		return fmt.Errorf("--lang: %w", err)
	}
	source := w.cfg.SourceLang
	if a.source != "" {
		if source, err = langmeta.ValidateSource(a.source); err != nil {
			return fmt.Errorf("--source: %w", err)
		}
	}

	input := a.input
	if input == "" {
		input = w.proj.TemplatePath()
	}
	output := a.output
	if output == "" {
		output = w.proj.ARBPath(target)
	}

	src, err := arbfile.ParseFile(input)
	if err != nil {
		return err
	}

	store, err := settings.OpenDefault()
	if err != nil {
		logWarning(i18n.T("Cannot read stored credentials: %v"), err)
		store = nil
	}
	prov, err := resolveProvider(w.cfg, a, store)
	if err != nil {
		return err
	}
	if ignored := ignoredFlags(prov.ID, a); len(ignored) > 0 {
		logWarning(i18n.T("Provider '%s' ignores %s"), prov.ID, strings.Join(ignored, ", "))
	}
	if err := validateProvider(ctx, prov); err != nil {
		return err
	}
	tr, err := newTranslator(prov)
	if err != nil {
		return err
	}
	if o, ok := tr.(*translate.OpenAITranslator); ok {
		o.MaxRetries = a.maxRetries
		o.Verbose = a.verbose
	}

	srcLabel := source
	if source != langmeta.Auto {
		srcLabel = langmeta.Label(source)
	}
	logInfo(i18n.T("Provider: %s"), providerLabel(prov))
	logInfo(i18n.T("Translating from %s to %s..."), srcLabel, langmeta.Label(target))

	if a.dryRun {
		pending := 0
		for _, key := range src.Keys() {
			if text, _ := src.Get(key); strings.TrimSpace(text) != "" {
				pending++
			}
		}
		logInfo(i18n.T("%s: %d strings to translate"), output, pending)
		return nil
	}

	lock, err := lockfile.Load(rootDir)
	if err != nil {
		return err
	}
	lockTarget := lockfile.TargetKey(rootDir, output)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bar := newProgressBar(len(src.Keys()), filepath.Base(output))
	clearBar := func() { _ = bar.Clear() }

	opts := translate.Options{
		Translator: tr,
		Source:     source,
		Target:     target,
		Delay:      a.delay,
		Verbose:    a.verbose,
		OnProgress: func(done, total int) {
			_ = bar.Set(done)
		},
		OnLog: func(format string, args ...any) {
			clearBar()
			logInfo(format, args...)
		},
		OnError: func(format string, args ...any) {
			clearBar()
			logError(format, args...)
		},
		OnTranslated: func(key, text, _ string) {
			lock.Update(lockTarget, key, text)
		},
	}

	translated, sum, err := translate.TranslateFile(ctx, src, opts)
	_ = bar.Finish()
	fmt.Fprintln(out)
	if err != nil {
		if ctx.Err() != nil {
			logWarning(i18n.T("Translation interrupted, nothing was written"))
		}
		return err
	}

	if err := translate.SaveFile(translated, output, opts); err != nil {
		return err
	}
	lock.Clean(lockTarget, src.Keys())
	if err := lock.Save(); err != nil {
		return err
	}

	logSuccess(i18n.T("Translation complete! File saved to %s"), output)
	logInfo(i18n.T("Translated: %d, skipped (empty): %d, failed: %d"),
		sum.Translated, sum.Skipped, sum.Failed)
	if sum.Failed > 0 {
		logWarning(i18n.N("%d value kept its original text", "%d values kept their original text", sum.Failed), sum.Failed)
	}
	return nil
}

func newProgressBar(total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(!color.NoColor),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", desc)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func providerLabel(p translate.Provider) string {
	if p.Model == "" {
		return fmt.Sprintf("%s (%s)", p.Name, p.ID)
	}
	return fmt.Sprintf("%s (%s), model %s", p.Name, p.ID, p.Model)
}

// resolveProvider builds the provider configuration. Later sources win:
// built-in defaults, stored credential, .arbkit.yaml, flags. The API key
// comes from --api-key, then ARBKIT_API_KEY, then the credential store.
func resolveProvider(cfg *config.ArbkitFile, a translateArgs, store *settings.Store) (translate.Provider, error) {
	id := strings.ToLower(strings.TrimSpace(a.provider))
	if id == "" {
		id = cfg.Provider
	}
	prov, ok := translate.DefaultProviders()[id]
	if !ok {
		return translate.Provider{}, fmt.Errorf("unknown provider %q (valid: %s)", id, strings.Join(translate.ProviderIDs(), ", "))
	}

	var stored *settings.Credential
	if store != nil {
		stored = store.Get(id)
	}
	if stored != nil {
		if stored.BaseURL != "" {
			prov.BaseURL = stored.BaseURL
		}
		if stored.Model != "" {
			prov.Model = stored.Model
		}
	}

	prov = cfg.ApplyProvider(prov)

	if a.model != "" {
		prov.Model = a.model
	}
	if a.baseURL != "" {
		prov.BaseURL = a.baseURL
	}
	if a.proxy != "" {
		prov.Proxy = a.proxy
	}
	if a.timeout > 0 {
		prov.Timeout = a.timeout
	}

	switch {
	case a.apiKey != "":
		prov.APIKey = a.apiKey
	case os.Getenv(apiKeyEnv) != "":
		prov.APIKey = os.Getenv(apiKeyEnv)
	case stored != nil:
		prov.APIKey = stored.Key
	}
	return prov, nil
}

// ignoredFlags lists the HTTP flags that were set for a provider that does
// not use them.
func ignoredFlags(id string, a translateArgs) []string {
	if id != translate.ProviderGoogle {
		return nil
	}
	var ignored []string
	if a.proxy != "" {
		ignored = append(ignored, "--proxy")
	}
	if a.timeout > 0 {
		ignored = append(ignored, "--timeout")
	}
	return ignored
}

// validateProvider explains how to fix a provider that cannot work.
func validateProvider(ctx context.Context, prov translate.Provider) error {
	switch prov.ID {
	case translate.ProviderOpenAI, translate.ProviderGroq:
		if prov.APIKey == "" {
			return fmt.Errorf(i18n.T("provider '%s' requires an API key\n\n"+
				"Option 1: Store your API key:\n"+
				"  arbkit auth login --provider %s\n\n"+
				"Option 2: Pass key directly:\n"+
				"  --api-key YOUR_KEY or export %s=YOUR_KEY"), prov.ID, prov.ID, apiKeyEnv)
		}
	case translate.ProviderCustomOpenAI:
		if prov.BaseURL == "" {
			return errors.New(i18n.T("provider 'custom-openai' requires an endpoint URL\n\n" +
				"Option 1: Configure via auth:\n" +
				"  arbkit auth login --provider custom-openai --base-url URL\n\n" +
				"Option 2: Pass directly:\n" +
				"  --base-url https://api.example.com/v1"))
		}
		if prov.Model == "" {
			return errors.New(i18n.T("provider 'custom-openai' requires --model"))
		}
	case translate.ProviderOllama:
		if err := pingOllama(ctx, prov.BaseURL); err != nil {
			return fmt.Errorf(i18n.T("provider 'ollama' requires Ollama server to be running (%v)\n\n"+
				"Start Ollama with: ollama serve\n"+
				"Install from: https://ollama.com"), err)
		}
	}
	return nil
}

func pingOllama(ctx context.Context, baseURL string) error {
	root := strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/v1")
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show project info and ARB statistics",
		Long: `Show the detected Flutter project, its l10n settings and how complete
each ARB file in the ARB directory is.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := loadWorkspace()
			if err != nil {
				return err
			}
			return runStatus(w)
		},
	}
}

func runStatus(w *workspace) error {
	p := w.proj

	fmt.Fprintf(out, "\n%s\n", headerTag(i18n.T("Project")))
	fmt.Fprintln(out, strings.Repeat("─", 60))
	name := p.Name
	if name == "" {
		name = i18n.T("(no pubspec.yaml)")
	}
	fmt.Fprintf(out, "  %-14s %s\n", i18n.T("Name:"), name)
	if p.Version != "" {
		fmt.Fprintf(out, "  %-14s %s\n", i18n.T("Version:"), p.Version)
	}
	fmt.Fprintf(out, "  %-14s %v\n", "Flutter:", p.Flutter)
	fmt.Fprintf(out, "  %-14s %s\n", i18n.T("ARB dir:"), p.ARBDir)
	fmt.Fprintf(out, "  %-14s %s\n", i18n.T("Template:"), p.TemplateARB)
	fmt.Fprintf(out, "  %-14s %s\n", i18n.T("Reference:"), w.reference(""))
	if path := w.cfg.Path(); path != "" {
		fmt.Fprintf(out, "  %-14s %s\n", i18n.T("Config:"), path)
	}

	files, err := filepath.Glob(filepath.Join(p.AbsARBDir(), "*.arb"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	lock, err := lockfile.Load(rootDir)
	if err != nil {
		return err
	}
	var template map[string]string
	if f, err := arbfile.ParseFile(p.TemplatePath()); err == nil {
		template = f.SourceValues()
	}

	fmt.Fprintf(out, "\n%s\n", headerTag(i18n.T("ARB files")))
	fmt.Fprintln(out, strings.Repeat("─", 60))
	if len(files) == 0 {
		logWarning(i18n.T("No ARB files in %s"), p.AbsARBDir())
	}
	for _, path := range files {
		f, err := arbfile.ParseFile(path)
		if err != nil {
			logError("%v", err)
			continue
		}
		lang := f.Locale()
		if lang == "" {
			lang = p.LangFromARB(path)
		}
		label := lang
		if lang != "" {
			label = langmeta.Label(lang)
		}
		total, filled, pct := f.Stats()
		note := ""
		target := lockfile.TargetKey(rootDir, path)
		switch {
		case filepath.Base(path) == p.TemplateARB:
			note = " *"
		case template != nil && lock.Has(target):
			if n := len(lock.Stale(target, template)); n > 0 {
				note = "  " + warnTag(fmt.Sprintf(i18n.N("%d changed value", "%d changed values", n), n))
			}
		}
		fmt.Fprintf(out, "  %-24s %-28s %5d/%-5d %5.1f%%%s\n", filepath.Base(path), label, filled, total, pct, note)
	}

	fmt.Fprintf(out, "\n  %s %s\n\n", i18n.T("Lock file:"), lock.Summary())
	return nil
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Manage API keys and endpoints for translation providers.

Keys are stored in $XDG_DATA_HOME/arbkit/credentials.json (mode 0600).
The --api-key flag and the ` + apiKeyEnv + ` variable take precedence.

Examples:
  arbkit auth login --provider groq
  arbkit auth login --provider custom-openai --base-url http://localhost:8080/v1 --model m
  arbkit auth logout --provider groq
  arbkit auth list`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)
	return cmd
}

// keyProviders are the providers that store credentials.
var keyProviders = []string{
	translate.ProviderOpenAI,
	translate.ProviderGroq,
	translate.ProviderCustomOpenAI,
}

func isKeyProvider(id string) bool {
	for _, p := range keyProviders {
		if p == id {
			return true
		}
	}
	return false
}

func completeKeyProviders(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	defaults := translate.DefaultProviders()
	completions := make([]string, 0, len(keyProviders))
	for _, id := range keyProviders {
		completions = append(completions, id+"\t"+defaults[id].Name)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func newAuthLoginCmd() *cobra.Command {
	var provider, key, baseURL, model string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key for a provider",
		Long: `Store an API key for a provider. Without --key the key is read from
standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.OpenDefault()
			if err != nil {
				return err
			}
			if key == "" {
				if key, err = promptKey(cmd.InOrStdin(), provider, store.APIKey(provider)); err != nil {
					return err
				}
			}
			return authLogin(store, provider, key, baseURL, model)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider: "+strings.Join(keyProviders, ", ")+" (required)")
	cmd.Flags().StringVar(&key, "key", "", "API key (default: prompt)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Endpoint URL (custom-openai)")
	cmd.Flags().StringVar(&model, "model", "", "Default model")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeKeyProviders)

	return cmd
}

func promptKey(in io.Reader, provider, existing string) (string, error) {
	if existing != "" {
		fmt.Fprintf(out, i18n.T("  Current key: %s")+"\n", settings.MaskKey(existing))
		fmt.Fprint(out, i18n.T("  Enter new key to replace, or press Enter to keep: "))
	} else {
		fmt.Fprintf(out, i18n.T("  Enter API key for %s: "), provider)
	}
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		if existing != "" {
			return existing, nil
		}
		return "", errors.New(i18n.T("no input received"))
	}
	key := strings.TrimSpace(scanner.Text())
	if key == "" {
		key = existing
	}
	return key, nil
}

func authLogin(store *settings.Store, provider, key, baseURL, model string) error {
	if !isKeyProvider(provider) {
		return fmt.Errorf(i18n.T("provider %q does not use an API key (valid: %s)"), provider, strings.Join(keyProviders, ", "))
	}
	if key == "" && provider != translate.ProviderCustomOpenAI {
		return errors.New(i18n.T("no API key provided"))
	}
	if provider == translate.ProviderCustomOpenAI && baseURL == "" {
		if c := store.Get(provider); c != nil {
			baseURL = c.BaseURL
		}
		if baseURL == "" {
			return errors.New(i18n.T("custom-openai requires --base-url"))
		}
	}

	store.Set(provider, settings.Credential{Key: key, BaseURL: baseURL, Model: model})
	if err := store.Save(); err != nil {
		return err
	}
	logSuccess(i18n.T("Credentials for %s saved to %s"), provider, store.Path())
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  `Remove stored credentials for one provider, or for all of them when --provider is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.OpenDefault()
			if err != nil {
				return err
			}
			return authLogout(store, provider)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to logout (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeKeyProviders)
	return cmd
}

func authLogout(store *settings.Store, provider string) error {
	if provider == "" {
		for _, id := range store.Providers() {
			store.Remove(id)
		}
		if err := store.Save(); err != nil {
			return err
		}
		logSuccess(i18n.T("All stored credentials removed"))
		return nil
	}
	if !store.Remove(provider) {
		logWarning(i18n.T("No credentials stored for %s"), provider)
		return nil
	}
	if err := store.Save(); err != nil {
		return err
	}
	logSuccess(i18n.T("Credentials for %s removed"), provider)
	return nil
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.OpenDefault()
			if err != nil {
				return err
			}
			authList(store)
			return nil
		},
	}
}

func authList(store *settings.Store) {
	fmt.Fprintf(out, "\n%s\n", headerTag(i18n.T("Stored Credentials")))
	fmt.Fprintln(out, strings.Repeat("─", 60))

	for _, id := range keyProviders {
		c := store.Get(id)
		switch {
		case c != nil && c.Key != "":
			fmt.Fprintf(out, "  %-14s %s (%s)\n", id, successTag(i18n.T("configured")), settings.MaskKey(c.Key))
		case c != nil && c.BaseURL != "":
			fmt.Fprintf(out, "  %-14s %s (%s)\n", id, successTag(i18n.T("configured")), i18n.T("no key"))
		default:
			fmt.Fprintf(out, "  %-14s %s\n", id, errorTag(i18n.T("not configured")))
			continue
		}
		if c.BaseURL != "" {
			fmt.Fprintf(out, "  %14s endpoint: %s\n", "", c.BaseURL)
		}
		if c.Model != "" {
			fmt.Fprintf(out, "  %14s model: %s\n", "", c.Model)
		}
	}

	fmt.Fprintln(out)
	if env := os.Getenv(apiKeyEnv); env != "" {
		fmt.Fprintf(out, "  %s: %s %s\n", apiKeyEnv, settings.MaskKey(env), i18n.T("(overrides stored keys)"))
	} else {
		fmt.Fprintf(out, "  %s: %s\n", apiKeyEnv, i18n.T("not set"))
	}
	fmt.Fprintf(out, "  %s\n\n", store.Path())
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

// relPath returns path relative to base when possible.
func relPath(base, path string) string {
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
