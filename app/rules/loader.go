package rules

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultRules returns the built-in rule set used when no rules file is
// configured.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "Detective Conan",
			Pattern:     `\[([^\]]+)\]\[名侦探柯南\]\[第(\d+)集\s+([^\]]+)\]\[([^\]]+)\]\[([^\]]+)\](?:\[([^\]]+)\])?\[([^\]]+)\]`,
			Replacement: " [$1] Detective Conan - $2 ($4 $7 $5) ",
			Priority:    1,
		},
	}
}

// Load builds an Engine from the rules file at path, or from the built-in
// rule set when path is empty. Rules without an explicit priority get
// defaultPriority. Any invalid rule fails the whole load.
func Load(path string, defaultPriority int) (*Engine, error) {
	var ruleList []Rule

	if path == "" {
		ruleList = DefaultRules()
		slog.Debug("No rules file configured, using built-in rules", "count", len(ruleList))
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rules file: %w", err)
		}

		var file rulesFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse rules file: %w", err)
		}
		ruleList = file.Rules
	}

	if err := validateRules(ruleList); err != nil {
		return nil, err
	}

	engine := NewEngine()
	for _, rule := range ruleList {
		if rule.Priority == 0 {
			rule.Priority = defaultPriority
		}
		if err := engine.Add(rule); err != nil {
			return nil, err
		}
	}

	return engine, nil
}

func validateRules(ruleList []Rule) error {
	seen := make(map[string]bool, len(ruleList))

	for i, rule := range ruleList {
		if rule.Name == "" {
			return fmt.Errorf("rule at index %d has no name", i)
		}
		if rule.Pattern == "" {
			return fmt.Errorf("rule '%s' has no pattern", rule.Name)
		}
		if seen[rule.Name] {
			return fmt.Errorf("duplicate rule name: '%s'", rule.Name)
		}
		seen[rule.Name] = true

		if rule.Priority < 0 {
			return fmt.Errorf("rule '%s' has negative priority", rule.Name)
		}
	}

	return nil
}
