package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rules.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write rules file: %v", err)
	}
	return path
}

func TestLoad_BuiltInRules(t *testing.T) {
	engine, err := Load("", 100)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if engine.Len() != len(DefaultRules()) {
		t.Errorf("Expected %d built-in rules, got %d", len(DefaultRules()), engine.Len())
	}
}

func TestLoad_RulesFile(t *testing.T) {
	path := writeRulesFile(t, `rules:
  - name: "episode"
    pattern: '\[(.+?)\]\[(.+?)\]\[第(\d+)集.*?\]'
    replacement: " [$1] $2 - $3 "
    priority: 1
  - name: "fallback"
    pattern: '^\[(.+?)\] (.+)$'
    replacement: "$2"
`)

	engine, err := Load(path, 100)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if engine.Len() != 2 {
		t.Fatalf("Expected 2 rules, got %d", engine.Len())
	}

	ruleList := engine.Rules()
	if ruleList[0].Name != "episode" {
		t.Errorf("Expected 'episode' rule first, got '%s'", ruleList[0].Name)
	}

	// Omitted priority takes the configured default
	if ruleList[1].Name != "fallback" || ruleList[1].Priority != 100 {
		t.Errorf("Expected 'fallback' rule with default priority 100, got '%s' with %d", ruleList[1].Name, ruleList[1].Priority)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml"), 100); err == nil {
		t.Error("Expected error for missing rules file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeRulesFile(t, "rules: [unclosed")

	if _, err := Load(path, 100); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoad_InvalidPattern(t *testing.T) {
	path := writeRulesFile(t, `rules:
  - name: "broken"
    pattern: '[unclosed'
    replacement: "x"
`)

	if _, err := Load(path, 100); err == nil {
		t.Error("Expected error for non-compiling pattern")
	}
}

func TestLoad_DuplicateRuleName(t *testing.T) {
	path := writeRulesFile(t, `rules:
  - name: "dup"
    pattern: 'a'
    replacement: "x"
  - name: "dup"
    pattern: 'b'
    replacement: "y"
`)

	if _, err := Load(path, 100); err == nil {
		t.Error("Expected error for duplicate rule name")
	}
}

func TestLoad_MissingName(t *testing.T) {
	path := writeRulesFile(t, `rules:
  - pattern: 'a'
    replacement: "x"
`)

	if _, err := Load(path, 100); err == nil {
		t.Error("Expected error for rule without name")
	}
}

func TestLoad_MissingPattern(t *testing.T) {
	path := writeRulesFile(t, `rules:
  - name: "nopattern"
    replacement: "x"
`)

	if _, err := Load(path, 100); err == nil {
		t.Error("Expected error for rule without pattern")
	}
}
