package game

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// rulesetFile is the YAML shape of a ruleset:
//
//	beats:
//	  rock: scissors
//	  paper: rock
//	  scissors: paper
type rulesetFile struct {
	Beats map[string]string `yaml:"beats"`
}

// LoadRuleset reads a ruleset from a YAML file; an empty path yields Classic
func LoadRuleset(path string) (*Ruleset, error) {
	if path == "" {
		return Classic(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset %s: %w", path, err)
	}
	return ParseRuleset(b)
}

// ParseRuleset builds a ruleset from YAML. Move names are case-insensitive.
func ParseRuleset(data []byte) (*Ruleset, error) {
	var f rulesetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleset, err)
	}

	beats := make(map[Move]Move, len(f.Beats))
	for k, v := range f.Beats {
		beats[normalize(k)] = normalize(v)
	}
	return NewRuleset(beats)
}

func normalize(s string) Move {
	return Move(strings.ToLower(strings.TrimSpace(s)))
}
