package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StepUpRule maps a protected action to the verifier methods permitted
// to satisfy its step-up challenge.
type StepUpRule struct {
	Action  string   `yaml:"action"`
	Methods []string `yaml:"methods"`
}

// LoadStepUpRules loads the step-up rules file. A missing file yields an
// empty rule set so the gate rejects every action until configured.
func LoadStepUpRules(path string) ([]StepUpRule, error) {
	if path == "" {
		return []StepUpRule{}, nil
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []StepUpRule{}, nil
		}
		return nil, fmt.Errorf("could not read step-up rules file: %w", err)
	}

	var config struct {
		Rules []StepUpRule `yaml:"stepUpRules"`
	}
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse step-up rules yaml: %w", err)
	}

	for _, rule := range config.Rules {
		if rule.Action == "" {
			return nil, fmt.Errorf("step-up rule missing action")
		}
		if len(rule.Methods) == 0 {
			return nil, fmt.Errorf("step-up rule for %q lists no methods", rule.Action)
		}
	}

	return config.Rules, nil
}
