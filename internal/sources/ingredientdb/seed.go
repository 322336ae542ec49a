package ingredientdb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type scoreFile struct {
	Scores []ScoreEntry `yaml:"scores"`
}

// LoadScoreFile reads a YAML score seed file.
func LoadScoreFile(path string) ([]ScoreEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read score file: %w", err)
	}
	return ParseScores(data)
}

// ParseScores decodes a seed document of the form
//
//	scores:
//	  - name: glycerin
//	    score: 9
//	    hazards: []
func ParseScores(data []byte) ([]ScoreEntry, error) {
	var f scoreFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse score file: %w", err)
	}
	if len(f.Scores) == 0 {
		return nil, fmt.Errorf("%w: no scores in file", ErrInvalidScore)
	}
	return f.Scores, nil
}
