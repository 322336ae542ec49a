package sentiment

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// Compound score thresholds for the positive and negative labels.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// normalization constant for the compound score
const compoundAlpha = 15.0

var defaultLexicon = map[string]float64{
	"love": 3.2, "loved": 2.9, "amazing": 2.8, "excellent": 2.7, "great": 3.1,
	"good": 1.9, "nice": 1.8, "soft": 1.2, "smooth": 1.4, "gentle": 1.3,
	"hydrating": 1.5, "recommend": 1.5, "perfect": 2.7, "best": 3.2, "glowing": 2.0,
	"happy": 2.7, "fresh": 1.3, "works": 1.0, "pleasant": 2.3, "calm": 1.3,

	"bad": -2.5, "terrible": -2.5, "awful": -2.0, "horrible": -2.5, "worst": -3.1,
	"hate": -2.7, "hated": -3.2, "disappointed": -1.9, "disappointing": -2.2,
	"rash": -1.5, "irritation": -1.8, "burning": -1.6, "itchy": -1.4, "breakout": -1.6,
	"acne": -1.2, "greasy": -1.3, "sticky": -1.1, "dry": -0.9, "waste": -1.8,
	"allergic": -1.6, "sting": -1.4, "stings": -1.4, "redness": -1.3, "broke": -1.2,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "dont": {}, "don't": {}, "didn't": {}, "didnt": {},
	"isn't": {}, "isnt": {}, "wasn't": {}, "wasnt": {}, "without": {}, "doesn't": {}, "doesnt": {},
}

// RuleClassifier is a dependency-free classifier. It prefers a verdict that
// is already attached to the review, then a lexicon score of the text, then
// the star rating.
type RuleClassifier struct {
	Lexicon map[string]float64
}

// NewRuleClassifier returns a classifier using the built-in lexicon.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{Lexicon: defaultLexicon}
}

// Classify prefers a precomputed verdict, then the text lexicon, then the
// star rating.
func (c *RuleClassifier) Classify(_ context.Context, r Review) (Verdict, error) {
	if r.Sentiment != "" {
		label, err := ParseLabel(r.Sentiment)
		if err != nil {
			return Verdict{}, err
		}
		v := Verdict{Label: label}
		if r.SentimentScore != nil {
			v.Score = *r.SentimentScore
		} else {
			v.Score = labelScore(label)
		}
		return v, nil
	}
	if r.SentimentScore != nil {
		return verdictFor(*r.SentimentScore), nil
	}

	text := strings.TrimSpace(r.Title + " " + r.Text)
	if text != "" {
		if compound, hits := c.compound(text); hits > 0 {
			return verdictFor(compound), nil
		}
	}

	if rating, ok := r.StarRating(); ok {
		switch {
		case rating >= 4:
			return Verdict{Label: Positive, Score: 1}, nil
		case rating <= 2:
			return Verdict{Label: Negative, Score: -1}, nil
		default:
			return Verdict{Label: Neutral, Score: 0}, nil
		}
	}

	if text != "" {
		return Verdict{Label: Neutral, Score: 0}, nil
	}
	return Verdict{}, ErrUnclassifiable
}

// compound sums lexicon valences (flipped after a negation word) and
// squashes the sum into [-1, 1].
func (c *RuleClassifier) compound(text string) (float64, int) {
	lex := c.Lexicon
	if lex == nil {
		lex = defaultLexicon
	}
	words := tokenize(text)
	var sum float64
	hits := 0
	for i, w := range words {
		valence, ok := lex[w]
		if !ok {
			continue
		}
		hits++
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			if _, neg := negations[words[j]]; neg {
				valence = -valence * 0.74
				break
			}
		}
		sum += valence
	}
	return sum / math.Sqrt(sum*sum+compoundAlpha), hits
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func verdictFor(score float64) Verdict {
	switch {
	case score >= PositiveThreshold:
		return Verdict{Label: Positive, Score: score}
	case score <= NegativeThreshold:
		return Verdict{Label: Negative, Score: score}
	default:
		return Verdict{Label: Neutral, Score: score}
	}
}

func labelScore(l Label) float64 {
	switch l {
	case Positive:
		return 1
	case Negative:
		return -1
	}
	return 0
}
