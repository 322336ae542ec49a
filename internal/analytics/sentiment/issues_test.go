package sentiment

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordExtractor_ExtractIssues(t *testing.T) {
	e := NewKeywordExtractor(nil)

	tests := []struct {
		name   string
		review Review
		want   []string
	}{
		{
			name:   "single issue",
			review: Review{Text: "My face felt so dry after every wash"},
			want:   []string{"dryness"},
		},
		{
			name:   "issue counted once per review",
			review: Review{Text: "Dry, flaky and peeling skin everywhere"},
			want:   []string{"dryness"},
		},
		{
			name:   "several issues in taxonomy order",
			review: Review{Text: "Too greasy, and then a breakout and redness"},
			want:   []string{"rash", "acne", "oiliness"},
		},
		{
			name:   "title is searched",
			review: Review{Title: "Allergic reaction", Text: "Had to stop using it after two days"},
			want:   []string{"sensitivity"},
		},
		{
			name:   "short text skipped",
			review: Review{Title: "rash", Text: "rash, acne"},
			want:   nil,
		},
		{
			name:   "keyword inside another word ignored",
			review: Review{Text: "After weeks of testing this cream I crashed"},
			want:   nil,
		},
		{
			name:   "keyword as word prefix",
			review: Review{Text: "Stinging eyes and new pimples by morning"},
			want:   []string{"acne", "sensitivity"},
		},
		{
			name:   "short title and text together",
			review: Review{Title: "Itchy", Text: "so itchy!"},
			want:   nil,
		},
		{
			name:   "no issues",
			review: Review{Text: "Lovely texture and a pleasant smell"},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractIssues(context.Background(), tt.review)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTaxonomy(t *testing.T) {
	tax, err := ParseTaxonomy([]byte(`
min_text_length: 5
issues:
  - name: " Fragrance "
    keywords: [perfume, scent]
  - name: stickiness
    keywords: [sticky, tacky]
`))
	require.NoError(t, err)
	assert.Equal(t, 5, tax.MinTextLength)
	require.Len(t, tax.Issues, 2)
	assert.Equal(t, "fragrance", tax.Issues[0].Name)

	got, err := NewKeywordExtractor(tax).ExtractIssues(context.Background(), Review{Text: "Sticky, strong scent"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fragrance", "stickiness"}, got)
}

func TestParseTaxonomy_Invalid(t *testing.T) {
	tests := map[string]string{
		"not yaml":        "issues: [",
		"no issues":       "min_text_length: 3",
		"missing name":    "issues:\n  - keywords: [a]",
		"missing keyword": "issues:\n  - name: rash",
		"duplicate":       "issues:\n  - name: rash\n    keywords: [a]\n  - name: RASH\n    keywords: [b]",
		"negative length": "min_text_length: -1\nissues:\n  - name: rash\n    keywords: [a]",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTaxonomy([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "issues.yaml")
	require.NoError(t, os.WriteFile(path, []byte("issues:\n  - name: rash\n    keywords: [rash]\n"), 0o600))

	tax, err := LoadTaxonomy(path)
	require.NoError(t, err)
	assert.Zero(t, tax.MinTextLength)

	_, err = LoadTaxonomy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
