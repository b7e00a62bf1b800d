package extract

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// Language carries the keyword sets and field label synonyms for one
// supported language. Tables are keyed by (field, language) so that
// supporting a new language is a data change in tables.yaml.
type Language struct {
	Name             string              `yaml:"name"`
	Script           string              `yaml:"script"`
	ClaimKeywords    []string            `yaml:"claim_keywords"`
	IdentityKeywords []string            `yaml:"identity_keywords"`
	SurveyKeywords   []string            `yaml:"survey_keywords"`
	Labels           map[string][]string `yaml:"labels"`
	Units            map[string][]string `yaml:"units"`
	LandTypes        map[string][]string `yaml:"land_types"`
}

type tableSet struct {
	Languages []Language `yaml:"languages"`
}

var (
	tablesOnce sync.Once
	tables     tableSet
	tablesErr  error

	labelRegexMu sync.Mutex
	labelRegexes = map[string]*regexp.Regexp{}
)

func loadTables() tableSet {
	tablesOnce.Do(func() {
		if err := yaml.Unmarshal(tablesYAML, &tables); err != nil {
			tablesErr = fmt.Errorf("parsing embedded language tables: %w", err)
		}
		if len(tables.Languages) == 0 && tablesErr == nil {
			tablesErr = fmt.Errorf("embedded language tables are empty")
		}
	})
	if tablesErr != nil {
		// The tables ship inside the binary; failing to parse them is a
		// build defect, not a runtime condition.
		panic(tablesErr)
	}
	return tables
}

// Languages returns the supported language tables in declaration order.
func Languages() []Language {
	return loadTables().Languages
}

// labelPattern returns a compiled pattern matching "<label> : <value>"
// within a line. An explicit separator is required so that a generic
// label like "name" does not swallow "Name of Village: X".
func labelPattern(label string) *regexp.Regexp {
	labelRegexMu.Lock()
	defer labelRegexMu.Unlock()
	if re, ok := labelRegexes[label]; ok {
		return re
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `\s*[:：\-–—]\s*(.+)$`)
	labelRegexes[label] = re
	return re
}

// DetectScript reports the dominant writing system of text as one of
// latin, devanagari, telugu, odia, bengali, gujarati, or "" when no
// letters are present.
func DetectScript(text string) string {
	counts := map[string]int{}
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			counts["latin"]++
		case r >= 0x0900 && r <= 0x097F:
			counts["devanagari"]++
		case r >= 0x0980 && r <= 0x09FF:
			counts["bengali"]++
		case r >= 0x0A80 && r <= 0x0AFF:
			counts["gujarati"]++
		case r >= 0x0B00 && r <= 0x0B7F:
			counts["odia"]++
		case r >= 0x0C00 && r <= 0x0C7F:
			counts["telugu"]++
		}
	}

	best, bestCount := "", 0
	for script, n := range counts {
		if n > bestCount {
			best, bestCount = script, n
		}
	}
	return best
}

// normalizeDigits rewrites Indic script numerals to ASCII so magnitude
// parsing works regardless of the numeral system the form used.
func normalizeDigits(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 0x0966 && r <= 0x096F: // Devanagari
			r = '0' + (r - 0x0966)
		case r >= 0x09E6 && r <= 0x09EF: // Bengali
			r = '0' + (r - 0x09E6)
		case r >= 0x0AE6 && r <= 0x0AEF: // Gujarati
			r = '0' + (r - 0x0AE6)
		case r >= 0x0B66 && r <= 0x0B6F: // Odia
			r = '0' + (r - 0x0B66)
		case r >= 0x0C66 && r <= 0x0C6F: // Telugu
			r = '0' + (r - 0x0C66)
		}
		b.WriteRune(r)
	}
	return b.String()
}
