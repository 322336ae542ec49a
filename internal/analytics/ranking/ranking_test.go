package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Water", "water"},
		{"  Water ", "water"},
		{"Sodium   Laureth\tSulfate", "sodium laureth sulfate"},
		{"   ", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "Sodium Laureth Sulfate", Display("  Sodium  Laureth Sulfate "))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 33.3, Round(100.0/3.0, 1))
	assert.Equal(t, 58.8, Round(10.0/17.0*100, 1))
	assert.Equal(t, 23.5, Round(4.0/17.0*100, 1))
	assert.Equal(t, 0.333, Round(1.0/3.0, 3))
	assert.Equal(t, 4.0, Round(4, 1))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(3, -1, 1))
	assert.Equal(t, -1.0, Clamp(-3, -1, 1))
	assert.Equal(t, 0.2, Clamp(0.2, -1, 1))
}

func TestMean(t *testing.T) {
	var m Mean
	_, ok := m.Value()
	assert.False(t, ok)

	m.Add(9)
	m.Add(3)
	v, ok := m.Value()
	assert.True(t, ok)
	assert.Equal(t, 6.0, v)
	assert.Equal(t, 2, m.Count())
}

func TestTally_Top(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		n    int
		want []Entry
	}{
		{
			name: "empty",
			n:    5,
			want: []Entry{},
		},
		{
			name: "count descending",
			keys: []string{"acne", "dryness", "dryness", "rash", "dryness", "acne"},
			n:    5,
			want: []Entry{{"dryness", 3}, {"acne", 2}, {"rash", 1}},
		},
		{
			name: "ties keep first appearance",
			keys: []string{"rash", "acne", "dryness", "acne", "rash", "dryness"},
			n:    0,
			want: []Entry{{"rash", 2}, {"acne", 2}, {"dryness", 2}},
		},
		{
			name: "case insensitive and truncated",
			keys: []string{"Dryness", "dryness ", "ACNE", "oiliness"},
			n:    2,
			want: []Entry{{"dryness", 2}, {"acne", 1}},
		},
		{
			name: "blank keys ignored",
			keys: []string{"", "  ", "rash"},
			n:    3,
			want: []Entry{{"rash", 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tally Tally
			for _, k := range tt.keys {
				tally.Add(k)
			}
			assert.Equal(t, tt.want, tally.Top(tt.n))
		})
	}
}
