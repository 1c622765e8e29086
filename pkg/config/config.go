package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr      string       `yaml:"addr,omitempty"`
	StorePath string       `yaml:"store_path,omitempty"`
	Engine    EngineConfig `yaml:"engine,omitempty"`
	Limits    LimitsConfig `yaml:"limits,omitempty"`
	Reasoning TagConfig    `yaml:"reasoning,omitempty"`
	Censor    CensorConfig `yaml:"censor,omitempty"`
}

// EngineConfig selects the model backend. Kind is "chat", "completion", or
// "gemini"; chat and completion speak the OpenAI API against BaseURL.
type EngineConfig struct {
	Kind    string `yaml:"kind,omitempty"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// LimitsConfig holds the default token budgets for prompt assembly.
type LimitsConfig struct {
	MaxContextTokens  int `yaml:"max_context_tokens,omitempty"`
	MaxResponseTokens int `yaml:"max_response_tokens,omitempty"`
	MaxDepth          int `yaml:"max_depth,omitempty"`
	LorebookBudget    int `yaml:"lorebook_budget,omitempty"`
}

// TagConfig is the reasoning delimiter pair. Empty strings disable
// reasoning extraction.
type TagConfig struct {
	Prefix string `yaml:"prefix,omitempty"`
	Suffix string `yaml:"suffix,omitempty"`
}

type CensorConfig struct {
	Words []string `yaml:"words,omitempty"`
	Mask  string   `yaml:"mask,omitempty"`
}

// Default is the configuration used when no file is present.
func Default() Config {
	return Config{
		Addr: ":8080",
		Limits: LimitsConfig{
			MaxContextTokens:  8192,
			MaxResponseTokens: 1024,
			MaxDepth:          100,
			LorebookBudget:    1024,
		},
		Reasoning: TagConfig{Prefix: "<think>", Suffix: "</think>"},
	}
}

// Load reads a YAML config file, filling unset fields from Default. A
// missing file is not an error; the defaults come back as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
