package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRulesFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stepup_rules.yml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("could not write rules file: %v", err)
	}
	return path
}

func TestLoadStepUpRules(t *testing.T) {
	path := writeRulesFile(t, `
stepUpRules:
  - action: transfer.external
    methods: [otp, face]
  - action: payee.add
    methods: [otp]
`)

	rules, err := LoadStepUpRules(path)
	if err != nil {
		t.Fatalf("LoadStepUpRules failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	if rules[0].Action != "transfer.external" {
		t.Errorf("rules[0].Action = %s", rules[0].Action)
	}
	if len(rules[0].Methods) != 2 || rules[0].Methods[1] != "face" {
		t.Errorf("rules[0].Methods = %v", rules[0].Methods)
	}
}

func TestLoadStepUpRules_MissingFileYieldsEmptySet(t *testing.T) {
	rules, err := LoadStepUpRules(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("expected empty rule set, got %v", rules)
	}
}

func TestLoadStepUpRules_EmptyPath(t *testing.T) {
	rules, err := LoadStepUpRules("")
	if err != nil || len(rules) != 0 {
		t.Errorf("empty path should yield empty set, got %v, %v", rules, err)
	}
}

func TestLoadStepUpRules_Validation(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			name: "missing action",
			contents: `
stepUpRules:
  - methods: [otp]
`,
		},
		{
			name: "no methods",
			contents: `
stepUpRules:
  - action: transfer.external
    methods: []
`,
		},
		{
			name:     "malformed yaml",
			contents: "stepUpRules: [::",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadStepUpRules(writeRulesFile(t, tt.contents)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
