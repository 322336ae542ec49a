package sentiment

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"cosmetic-insights/internal/analytics/ranking"

	"gopkg.in/yaml.v3"
)

const DefaultMinTextLength = 20

// Issue is one skin concern and the words that signal it.
type Issue struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy is the ordered list of issues the KeywordExtractor looks for.
type Taxonomy struct {
	MinTextLength int     `yaml:"min_text_length"`
	Issues        []Issue `yaml:"issues"`
}

// DefaultTaxonomy covers the common skin reactions mentioned in cosmetics
// reviews.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		MinTextLength: DefaultMinTextLength,
		Issues: []Issue{
			{Name: "rash", Keywords: []string{"rash", "redness", "itchy", "irritation", "burning"}},
			{Name: "acne", Keywords: []string{"acne", "breakout", "pimple"}},
			{Name: "dryness", Keywords: []string{"dry", "flaky", "peeling", "tight"}},
			{Name: "oiliness", Keywords: []string{"oily", "greasy"}},
			{Name: "sensitivity", Keywords: []string{"sensitive", "allergic", "reaction", "sting"}},
		},
	}
}

// LoadTaxonomy reads a YAML taxonomy file.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read issue taxonomy: %w", err)
	}
	return ParseTaxonomy(data)
}

// ParseTaxonomy decodes and checks a YAML taxonomy. Issue names are
// normalized and must be unique.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse issue taxonomy: %w", err)
	}
	if len(t.Issues) == 0 {
		return nil, fmt.Errorf("issue taxonomy has no issues")
	}
	seen := make(map[string]struct{}, len(t.Issues))
	for i, issue := range t.Issues {
		name := ranking.NormalizeKey(issue.Name)
		if name == "" {
			return nil, fmt.Errorf("issue %d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate issue %q", name)
		}
		if len(issue.Keywords) == 0 {
			return nil, fmt.Errorf("issue %q has no keywords", name)
		}
		seen[name] = struct{}{}
		t.Issues[i].Name = name
	}
	if t.MinTextLength < 0 {
		return nil, fmt.Errorf("min_text_length must not be negative")
	}
	return &t, nil
}

// KeywordExtractor reports every taxonomy issue whose keywords appear in a
// review. A keyword must start at a word boundary, so "sting" matches
// "stinging" but not "testing". Each issue is reported at most once per
// review.
type KeywordExtractor struct {
	taxonomy *Taxonomy
}

// NewKeywordExtractor uses DefaultTaxonomy when t is nil.
func NewKeywordExtractor(t *Taxonomy) *KeywordExtractor {
	if t == nil {
		t = DefaultTaxonomy()
	}
	return &KeywordExtractor{taxonomy: t}
}

// ExtractIssues searches the title and text together. Reviews whose combined
// text is shorter than the taxonomy's MinTextLength yield no issues.
func (e *KeywordExtractor) ExtractIssues(_ context.Context, r Review) ([]string, error) {
	text := strings.ToLower(strings.TrimSpace(r.Title + " " + r.Text))
	if utf8.RuneCountInString(text) < e.taxonomy.MinTextLength {
		return nil, nil
	}

	var found []string
	for _, issue := range e.taxonomy.Issues {
		for _, kw := range issue.Keywords {
			if containsWordPrefix(text, strings.ToLower(strings.TrimSpace(kw))) {
				found = append(found, issue.Name)
				break
			}
		}
	}
	return found, nil
}

// containsWordPrefix reports whether kw occurs in text at the start of a word.
func containsWordPrefix(text, kw string) bool {
	if kw == "" {
		return false
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			return false
		}
		at := from + i
		if at == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(text[:at])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		from = at + 1
	}
	return false
}
