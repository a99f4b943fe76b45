package rules

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
)

// Engine holds the ordered conversion rule set. Rules are added during
// startup and the set is frozen before the first request; Convert is safe
// for concurrent use after that.
type Engine struct {
	rules []compiledRule
	specs []Rule
}

func NewEngine() *Engine {
	return &Engine{}
}

// Add compiles and appends a rule. A pattern that does not compile is a
// configuration error and the rule is rejected. Rules with equal priority
// keep their insertion order.
func (e *Engine) Add(rule Rule) error {
	re, err := regexp.Compile(rule.Pattern)
	if err != nil {
		return fmt.Errorf("invalid pattern for rule '%s': %w", rule.Name, err)
	}

	e.rules = append(e.rules, compiledRule{
		name:        rule.Name,
		re:          re,
		replacement: rule.Replacement,
		priority:    rule.Priority,
	})
	e.specs = append(e.specs, rule)

	sort.SliceStable(e.rules, func(i, j int) bool {
		return e.rules[i].priority < e.rules[j].priority
	})
	sort.SliceStable(e.specs, func(i, j int) bool {
		return e.specs[i].Priority < e.specs[j].Priority
	})

	slog.Debug("Conversion rule added", "rule", rule.Name, "priority", rule.Priority)

	return nil
}

// Convert transforms a title using the first rule (in ascending priority
// order) whose pattern matches. If no rule matches, the title is returned
// unchanged. The converted title is never re-fed to the rule set.
func (e *Engine) Convert(title string) string {
	for _, rule := range e.rules {
		match := rule.re.FindStringSubmatchIndex(title)
		if match == nil {
			continue
		}

		converted := string(rule.re.ExpandString(nil, rule.replacement, title, match))

		slog.Debug("Title converted", "rule", rule.name, "original", title, "converted", converted)

		return converted
	}

	return title
}

// Len returns the number of loaded rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Rules returns the rule set in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.specs))
	copy(out, e.specs)
	return out
}
