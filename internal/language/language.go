package language

import "strings"

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate
	display string   // Human-readable name
	words   []string // Full word forms as providers spell them
}

var languages = []entry{
	{"es", "spa", "esp", "Spanish", []string{"spanish", "español", "espanol", "castellano", "latino"}},
	{"en", "eng", "", "English", []string{"english", "inglés", "ingles"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	// Regional tags such as es-MX or en_US.
	if idx := strings.IndexAny(code, "-_"); idx == 2 {
		return byCode2[code[:2]]
	}
	return nil
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Supported reports whether code names one of the fetchable languages.
func Supported(code string) bool {
	return lookup(code) != nil
}

// SupportedCodes lists the ISO 639-1 codes subseek can fetch.
func SupportedCodes() []string {
	out := make([]string, 0, len(languages))
	for _, e := range languages {
		out = append(out, e.code2)
	}
	return out
}

// AllFileSuffixes returns the language infixes accepted in sidecar subtitle
// names, e.g. "es" and "spa" for Spanish.
func AllFileSuffixes() []string {
	out := make([]string, 0, len(languages)*2)
	for _, e := range languages {
		out = append(out, e.code2, e.code3)
	}
	return out
}

// DetectInText scans free text (an HTML row, a flag class) for a language
// word and returns its ISO 639-1 code, or "" when none is present.
func DetectInText(text string) string {
	lowered := strings.ToLower(text)
	for _, e := range languages {
		for _, w := range e.words {
			if strings.Contains(lowered, w) {
				return e.code2
			}
		}
	}
	return ""
}
