package rules

import "regexp"

// Rule types

// Rule is a single title conversion rule as supplied by configuration.
// Pattern is a regular expression; Replacement may reference capture
// groups positionally with $1, $2, ... Lower priority runs earlier.
type Rule struct {
	Name        string `yaml:"name" json:"name"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" json:"replacement"`
	Priority    int    `yaml:"priority" json:"priority"`
}

type compiledRule struct {
	name        string
	re          *regexp.Regexp
	replacement string
	priority    int
}

// rulesFile is the on-disk layout of a rules YAML file.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}
