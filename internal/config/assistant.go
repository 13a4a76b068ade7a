package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AssistantFile holds operator-editable persona and feed overrides. It lives
// in the config dir as assistant.yaml and is independent from the main config
// so it can be shipped and versioned separately.
type AssistantFile struct {
	Persona string   `yaml:"persona"`
	Feeds   []string `yaml:"feeds"`
}

// LoadAssistantFile reads the overrides file. A missing file is not an error.
func LoadAssistantFile(path string) (AssistantFile, error) {
	var out AssistantFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return out, fmt.Errorf("read assistant file: %w", err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode assistant file %s: %w", path, err)
	}
	return out, nil
}
