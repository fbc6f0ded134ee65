package question

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedEntry struct {
	ID       string   `yaml:"id"`
	Question string   `yaml:"question"`
	Options  []string `yaml:"options"`
	Answer   string   `yaml:"answer"`
}

// ParseSeed decodes a YAML list of questions. Every entry must carry an id and
// pass authoring validation.
func ParseSeed(data []byte) ([]Question, error) {
	var entries []seedEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	seen := make(map[string]struct{}, len(entries))
	out := make([]Question, 0, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("parse seed: entry %d has no id", i)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("parse seed: duplicate id %q", e.ID)
		}
		seen[e.ID] = struct{}{}
		in := Input{Question: e.Question, Options: e.Options, Answer: e.Answer}
		if err := ValidateInput(in); err != nil {
			return nil, fmt.Errorf("parse seed: %s: %w", e.ID, err)
		}
		out = append(out, Question{ID: e.ID, Question: e.Question, Options: e.Options, Answer: e.Answer})
	}
	return out, nil
}

// DefaultSeed returns a fresh copy of the questions shipped with the binary.
func DefaultSeed() []Question {
	seed, err := ParseSeed(seedYAML)
	if err != nil {
		panic(err)
	}
	return seed
}
