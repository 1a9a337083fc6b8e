package vibe

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ruleFile is the YAML shape of a rule-set override file
type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// ruleSpec is one declarative rule in YAML form. Windows are
// "HH:MM-HH:MM" strings; an end at or before the start spans midnight.
type ruleSpec struct {
	Vibe       string   `yaml:"vibe"`
	Windows    []string `yaml:"windows"`
	Activities []string `yaml:"activities"`
	Priority   int      `yaml:"priority"`
	Likelihood float64  `yaml:"likelihood"`
}

// LoadRules loads a rule set from a YAML file
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses and validates a YAML rule set from byte data (useful for
// testing)
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule YAML: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rule file contains no rules")
	}

	rules := make([]Rule, 0, len(file.Rules))
	for i, spec := range file.Rules {
		rule, err := spec.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (s ruleSpec) toRule() (Rule, error) {
	target := ParseVibe(s.Vibe)
	if target == VibeUnknown && s.Vibe != "unknown" {
		return Rule{}, fmt.Errorf("unknown vibe %q", s.Vibe)
	}

	if s.Likelihood < 0 || s.Likelihood > 1 {
		return Rule{}, fmt.Errorf("likelihood %v outside [0,1]", s.Likelihood)
	}

	if len(s.Windows) == 0 {
		return Rule{}, fmt.Errorf("rule has no time windows")
	}
	var windows []TimeWindow
	for _, w := range s.Windows {
		parsed, err := parseWindow(w)
		if err != nil {
			return Rule{}, err
		}
		windows = append(windows, parsed...)
	}

	activities, err := parseActivities(s.Activities)
	if err != nil {
		return Rule{}, err
	}

	return Rule{
		Target:     target,
		Windows:    windows,
		Activities: activities,
		Priority:   s.Priority,
		Likelihood: s.Likelihood,
	}, nil
}

// parseWindow converts a "HH:MM-HH:MM" span into windows, splitting
// overnight spans the same way Windows does
func parseWindow(s string) ([]TimeWindow, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid window %q (expected HH:MM-HH:MM)", s)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid window %q: %w", s, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid window %q: %w", s, err)
	}
	return Windows(start, end), nil
}

func parseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock value %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	return hour*60 + minute, nil
}

func parseActivities(names []string) (ActivitySet, error) {
	if len(names) == 0 {
		return 0, fmt.Errorf("rule has no activities")
	}
	var set ActivitySet
	for _, name := range names {
		switch name {
		case "all":
			set |= SetAll
		case "moving":
			set |= SetMoving
		default:
			class, ok := ParseActivityClass(name)
			if !ok {
				return 0, fmt.Errorf("unknown activity %q", name)
			}
			set |= 1 << class
		}
	}
	return set, nil
}
