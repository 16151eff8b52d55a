package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	// Inference endpoint (OpenAI-compatible chat completions, e.g. a
	// local Ollama server).
	LLM LLMConfig `yaml:"llm"`

	// Reconciliation engine knobs.
	Engine EngineConfig `yaml:"engine"`

	// Local results database.
	Store StoreConfig `yaml:"store"`

	// Batch run behavior.
	Batch BatchConfig `yaml:"batch"`

	// Logger configuration.
	Logger LoggerConfig `yaml:"logger"`
}

// LLMConfig configures the inference collaborator.
type LLMConfig struct {
	APIKey           string  `yaml:"api_key"`
	APIURL           string  `yaml:"api_url"`
	Model            string  `yaml:"model"`
	Temperature      float64 `yaml:"temperature"`
	TopP             float64 `yaml:"top_p"`
	HeaderMaxTokens  int     `yaml:"header_max_tokens"`
	DeepMaxTokens    int     `yaml:"deep_max_tokens"`
	TimeoutSeconds   int     `yaml:"timeout_seconds"`
	MaxRetries       int     `yaml:"max_retries"`
	RetryWaitSeconds int     `yaml:"retry_wait_seconds"`
}

// EngineConfig configures the reconciliation engine.
type EngineConfig struct {
	// "always" runs inference on every document; "on-deficiency" only
	// when pattern extraction left gaps.
	Policy           string `yaml:"policy"`
	MinSkills        int    `yaml:"min_skills"`
	PhoneWindow      int    `yaml:"phone_window"`
	DOBWindow        int    `yaml:"dob_window"`
	HeaderPromptSize int    `yaml:"header_prompt_size"`
}

// StoreConfig configures the local SQLite results database.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// BatchConfig configures batch folder runs.
type BatchConfig struct {
	InputDir   string `yaml:"input_dir"`
	OutputDir  string `yaml:"output_dir"`
	Checkpoint bool   `yaml:"checkpoint"`
}

// LoggerConfig mirrors logger.Config for YAML loading.
type LoggerConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	TimeFormat   string `yaml:"time_format"`
	ReportCaller bool   `yaml:"report_caller"`
}

// LoadConfig reads configuration from configPath, falling back to a
// small set of conventional locations when the path is empty. Missing
// file is not an error: defaults are returned so the tool works out of
// the box against a local endpoint.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			filepath.Join(os.Getenv("HOME"), ".resume-extract", "config.yaml"),
		}
		if execPath, err := os.Executable(); err == nil {
			searchPaths = append(searchPaths, filepath.Join(filepath.Dir(execPath), "config.yaml"))
		}
		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
		if configPath == "" {
			return defaultConfig(), nil
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := defaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	applyEnvOverrides(config)
	return config, nil
}

func applyEnvOverrides(config *Config) {
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	}
	if envURL := os.Getenv("LLM_API_URL"); envURL != "" {
		config.LLM.APIURL = envURL
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		config.LLM.Model = envModel
	}
}

func defaultConfig() *Config {
	config := &Config{}

	config.LLM.APIURL = "http://localhost:11434/v1/chat/completions"
	config.LLM.Model = "llama3"
	config.LLM.Temperature = 0.1
	config.LLM.TopP = 0.5
	config.LLM.HeaderMaxTokens = 300
	config.LLM.DeepMaxTokens = 3000
	config.LLM.TimeoutSeconds = 60
	config.LLM.MaxRetries = 2
	config.LLM.RetryWaitSeconds = 2

	config.Engine.Policy = "on-deficiency"
	config.Engine.MinSkills = 3
	config.Engine.PhoneWindow = 300
	config.Engine.DOBWindow = 500
	config.Engine.HeaderPromptSize = 3000

	config.Store.Path = "resume_results.db"

	config.Batch.OutputDir = "output"
	config.Batch.Checkpoint = true

	config.Logger.Level = "info"
	config.Logger.Format = "pretty"
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = false

	return config
}

// CreateSampleConfig writes a sample configuration file. Refuses to
// overwrite an existing file.
func CreateSampleConfig(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("file '%s' already exists, not overwriting", filePath)
	}

	data, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write sample config '%s': %w", filePath, err)
	}
	return nil
}
