/*
PURPOSE:
  Defines the configuration structure and loading logic for adapter-eval.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Allow configuration of the engine address, base model, benchmark
    dataset, output directory, and decoding preset.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - CLI flags override file values (handled in internal/cli).

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine
  - Dependencies: gopkg.in/yaml.v3 (standard for Go config)

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default config files fall back to defaults silently; an
    explicitly named file that cannot be read is an error.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml.
  - Defaults mirror the published evaluation setup (Mistral-7B base,
    FLORES eng->ukr benchmark, greedy decoding).

USAGE:
  cfg, err := config.Load("adapter_eval.yaml")

RELATED FILES:
  - internal/cli/run.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for adapter-eval.
type Config struct {
	EngineURL string `yaml:"engine_url"`
	BaseModel string `yaml:"base_model"`
	Dataset   string `yaml:"dataset"`
	OutputDir string `yaml:"output_dir"`
	Preset    string `yaml:"preset"`
	// Checkpoints lists adapter checkpoints to evaluate, in order.
	Checkpoints []string `yaml:"checkpoints"`
	// MaxSeqLen bounds tokenized prompt length (tokenizer-enforced).
	MaxSeqLen int `yaml:"max_seq_len"`
	// MaxNewTokens bounds the generation budget per example.
	MaxNewTokens int `yaml:"max_new_tokens"`
	// ReturnSequences is the number of candidate sequences requested per
	// generation call. Each returned sequence becomes one result row.
	ReturnSequences int `yaml:"return_sequences"`
	// JSONL enables the results.jsonl sidecar.
	JSONL bool `yaml:"jsonl"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		EngineURL:       "http://localhost:9090",
		BaseModel:       "mistralai/Mistral-7B-v0.1",
		Dataset:         "data/flores_eng_ukr_major.csv",
		OutputDir:       "eval",
		Preset:          "greedy",
		MaxSeqLen:       1024,
		MaxNewTokens:    256,
		ReturnSequences: 1,
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		defaults := []string{"adapter_eval.yaml", "adapter-eval.yaml"}
		found := false
		for _, name := range defaults {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				found = true
				break
			}
		}
		if !found {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
