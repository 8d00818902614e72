package extract

// WordList is a group of substring markers. A segment hits the list when it
// contains one of Contains, or when its lower-cased form contains one of
// LowerContains and the segment contains none of Unless.
type WordList struct {
	Contains      []string `yaml:"contains"`
	LowerContains []string `yaml:"lower_contains"`
	Unless        []string `yaml:"unless"`
}

// Vocabulary holds every word list and call name the classifier consults.
// Call and container names are regular-expression alternatives and are used
// without quoting, so "logger.e" matches any character in place of the dot.
type Vocabulary struct {
	URLPrefixes     []string `yaml:"url_prefixes"`
	PackageMarker   string   `yaml:"package_marker"`
	SourceExtension string   `yaml:"source_extension"`
	LanguageWord    string   `yaml:"language_word"`

	LogCalls        []string `yaml:"log_calls"`
	LogOverrides    []string `yaml:"log_overrides"`
	DiagnosticCalls []string `yaml:"diagnostic_calls"`
	NamedLogCalls   []string `yaml:"named_log_calls"`
	NamedLogParam   string   `yaml:"named_log_param"`

	SubstringMarkers   []string `yaml:"substring_markers"`
	UppercaseWhitelist []string `yaml:"uppercase_whitelist"`

	GetterCalls     []string `yaml:"getter_calls"`
	GetterOverrides []string `yaml:"getter_overrides"`

	AssetMarkers []string `yaml:"asset_markers"`

	ContainerNames   []string `yaml:"container_names"`
	BracketWhitelist []string `yaml:"bracket_whitelist"`
	BracketOverrides []string `yaml:"bracket_overrides"`
	QueryCalls       []string `yaml:"query_calls"`

	EnglishMarkers     WordList `yaml:"english_markers"`
	EnglishErrors      WordList `yaml:"english_errors"`
	EnglishDefaults    WordList `yaml:"english_defaults"`
	EnglishIdentifiers WordList `yaml:"english_identifiers"`
}

// DefaultVocabulary returns the word lists tuned for Portuguese Flutter
// sources.
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		URLPrefixes:     []string{"http", "/", ":"},
		PackageMarker:   "package",
		SourceExtension: ".dart",
		LanguageWord:    "dart",

		LogCalls:        []string{"log", "print", "debugPrint", "logEvent"},
		LogOverrides:    []string{"alog"},
		DiagnosticCalls: []string{"inspectWithMessage", "inspectWithMessageAndTrace", "logger.e"},
		NamedLogCalls:   []string{"logInfo", "logWarning"},
		NamedLogParam:   "title",

		SubstringMarkers:   []string{"substring"},
		UppercaseWhitelist: []string{"PAR-Q", "ANT+", "DESAFIO", "SALVAR", "PUBLICAR", "CNPJ", "CPF", "ABC?"},

		GetterCalls:     []string{"get"},
		GetterOverrides: []string{"dget", "title"},

		AssetMarkers: []string{".dart", ".onError", ".json", ".png", ".svg", "jpeg"},

		ContainerNames: []string{
			"json", "map", "data", "value", "postBody",
			"queryParameters", "reqBody", "updateData", "memberData",
		},
		BracketWhitelist: []string{"Janeiro", "Início", "Semanalmente", "Péssimo"},
		BracketOverrides: []string{"lowerCase", "upperCase"},
		QueryCalls:       []string{"collection", "where"},

		EnglishMarkers: WordList{
			Contains:      []string{"Unable", "Failed", "Error", "_getIndividualZonePercentageFromTotalTime"},
			LowerContains: []string{"user "},
		},
		EnglishErrors: WordList{
			Contains: []string{
				"Invalid", "Unknown", "parse", "session", "found", ".env", " error",
				"unauthorized", "missing", "failed",
			},
			LowerContains: []string{" text "},
			Unless:        []string{"cm."},
		},
		EnglishDefaults: WordList{
			Contains: []string{
				"default", "Could", "?.duration.inSeconds", "Notifications",
				"assets", "signup", "rovide", "ercent", "Missing", "invalid",
			},
			LowerContains: []string{"the"},
			Unless:        []string{"anos"},
		},
		EnglishIdentifiers: WordList{
			Contains: []string{
				"newStatus", "returned", "vsfFDPBurro", "2346789bcdfghjkmnpqrtwxyz",
				"path", "leadingHashSign", "json", "questions", "christmas",
			},
		},
	}
}

// Merge returns a copy of v in which every field set in o replaces the
// corresponding field. Nil lists and empty strings in o are ignored, so a
// config file only needs to name the lists it changes.
func (v *Vocabulary) Merge(o *Vocabulary) *Vocabulary {
	out := *v
	if o == nil {
		return &out
	}
	lists := []struct {
		dst *[]string
		src []string
	}{
		{&out.URLPrefixes, o.URLPrefixes},
		{&out.LogCalls, o.LogCalls},
		{&out.LogOverrides, o.LogOverrides},
		{&out.DiagnosticCalls, o.DiagnosticCalls},
		{&out.NamedLogCalls, o.NamedLogCalls},
		{&out.SubstringMarkers, o.SubstringMarkers},
		{&out.UppercaseWhitelist, o.UppercaseWhitelist},
		{&out.GetterCalls, o.GetterCalls},
		{&out.GetterOverrides, o.GetterOverrides},
		{&out.AssetMarkers, o.AssetMarkers},
		{&out.ContainerNames, o.ContainerNames},
		{&out.BracketWhitelist, o.BracketWhitelist},
		{&out.BracketOverrides, o.BracketOverrides},
		{&out.QueryCalls, o.QueryCalls},
	}
	for _, l := range lists {
		if l.src != nil {
			*l.dst = l.src
		}
	}
	strs := []struct {
		dst *string
		src string
	}{
		{&out.PackageMarker, o.PackageMarker},
		{&out.SourceExtension, o.SourceExtension},
		{&out.LanguageWord, o.LanguageWord},
		{&out.NamedLogParam, o.NamedLogParam},
	}
	for _, s := range strs {
		if s.src != "" {
			*s.dst = s.src
		}
	}
	words := []struct {
		dst *WordList
		src WordList
	}{
		{&out.EnglishMarkers, o.EnglishMarkers},
		{&out.EnglishErrors, o.EnglishErrors},
		{&out.EnglishDefaults, o.EnglishDefaults},
		{&out.EnglishIdentifiers, o.EnglishIdentifiers},
	}
	for _, w := range words {
		if w.src.Contains != nil {
			w.dst.Contains = w.src.Contains
		}
		if w.src.LowerContains != nil {
			w.dst.LowerContains = w.src.LowerContains
		}
		if w.src.Unless != nil {
			w.dst.Unless = w.src.Unless
		}
	}
	return &out
}
