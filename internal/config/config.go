package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultModel   = "Qwen/Qwen3-Coder-480B-A35B-Instruct"
	DefaultBaseURL = "https://router.huggingface.co/v1"
	DefaultPersona = "coder"
)

// Environment variables consulted when a profile has no API key, in order.
var apiKeyEnv = []string{"HF_TOKEN", "OPENAI_API_KEY"}

type Profile struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model"`
	Persona string `json:"persona,omitempty"`
}

// Agent tunes the conversation loop. Zero values fall back to the defaults.
type Agent struct {
	ContextLimit      int      `json:"context_limit,omitempty"`
	MaxOutputTokens   int      `json:"max_output_tokens,omitempty"`
	MaxRetries        *int     `json:"max_retries,omitempty"`
	RetryDelaySeconds float64  `json:"retry_delay_seconds,omitempty"`
	Temperature       *float32 `json:"temperature,omitempty"`
}

type Config struct {
	Profiles      map[string]Profile `json:"profiles"`
	ActiveProfile string             `json:"active_profile"`
	Agent         Agent              `json:"agent"`

	path           string
	currentProfile *Profile
}

// LoadConfig reads the config file from its default location, creating it
// with a single empty profile if it does not exist.
func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return Load(configPath)
}

// Load reads the config file at configPath.
func Load(configPath string) (*Config, error) {
	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.path = configPath

	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}

	return config, nil
}

// LoadDotEnv loads KEY=VALUE pairs from .env files into the environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) IsValid() bool {
	return c.currentProfile != nil && c.GetAPIKey() != ""
}

// GetAPIKey returns the active profile's key, falling back to HF_TOKEN and
// then OPENAI_API_KEY.
func (c *Config) GetAPIKey() string {
	if c.currentProfile != nil && c.currentProfile.APIKey != "" {
		return c.currentProfile.APIKey
	}
	for _, name := range apiKeyEnv {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}

func (c *Config) GetModel() string {
	if c.currentProfile == nil || c.currentProfile.Model == "" {
		return DefaultModel
	}
	return c.currentProfile.Model
}

func (c *Config) GetBaseURL() string {
	if c.currentProfile == nil || c.currentProfile.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.currentProfile.BaseURL
}

func (c *Config) GetPersona() string {
	if c.currentProfile == nil || c.currentProfile.Persona == "" {
		return DefaultPersona
	}
	return c.currentProfile.Persona
}

func (c *Config) ContextLimit() int {
	if c.Agent.ContextLimit > 0 {
		return c.Agent.ContextLimit
	}
	return 131072
}

func (c *Config) MaxOutputTokens() int {
	if c.Agent.MaxOutputTokens > 0 {
		return c.Agent.MaxOutputTokens
	}
	return 8192
}

func (c *Config) MaxRetries() int {
	if c.Agent.MaxRetries != nil && *c.Agent.MaxRetries >= 0 {
		return *c.Agent.MaxRetries
	}
	return 3
}

func (c *Config) RetryDelay() time.Duration {
	if c.Agent.RetryDelaySeconds > 0 {
		return time.Duration(c.Agent.RetryDelaySeconds * float64(time.Second))
	}
	return 2 * time.Second
}

func (c *Config) Temperature() float32 {
	if c.Agent.Temperature != nil {
		return *c.Agent.Temperature
	}
	return 0.1
}

// ProfileNames lists profiles in sorted order.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Switch makes name the active profile.
func (c *Config) Switch(name string) error {
	profile, exists := c.Profiles[name]
	if !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	c.currentProfile = &profile
	return nil
}

// AddProfile stores a new profile. Existing names are rejected.
func (c *Config) AddProfile(name string, profile Profile) error {
	if name == "" {
		return errors.New("profile name is empty")
	}
	if _, exists := c.Profiles[name]; exists {
		return fmt.Errorf("profile '%s' already exists", name)
	}
	c.Profiles[name] = profile
	return nil
}

// UpdateProfile replaces an existing profile.
func (c *Config) UpdateProfile(name string, profile Profile) error {
	if _, exists := c.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.Profiles[name] = profile
	if name == c.ActiveProfile {
		c.currentProfile = &profile
	}
	return nil
}

// DeleteProfile removes a profile. Deleting the active profile activates
// the first remaining one; deleting the last profile recreates "default".
func (c *Config) DeleteProfile(name string) error {
	if _, exists := c.Profiles[name]; !exists {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	delete(c.Profiles, name)

	if len(c.Profiles) == 0 {
		c.Profiles["default"] = defaultProfile()
	}
	if c.ActiveProfile == name {
		c.ActiveProfile = c.ProfileNames()[0]
	}
	return c.setCurrentProfile()
}

func getConfigPath() (string, error) {
	var configDir string

	// Use RORIAGENT_HOME if set, otherwise use user's home directory
	if home := os.Getenv("RORIAGENT_HOME"); home != "" {
		configDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".roriagent", "config.json"), nil
}

// Dir returns the directory holding the config file and the agent log.
func Dir() (string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Dir(configPath), nil
}

func ensureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

func loadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

func defaultProfile() Profile {
	return Profile{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Persona: DefaultPersona,
	}
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := &Config{
		Profiles:      map[string]Profile{"default": defaultProfile()},
		ActiveProfile: "default",
	}

	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}

	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	configPath := c.path
	if configPath == "" {
		var err error
		if configPath, err = getConfigPath(); err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
	}

	return saveConfig(c, configPath)
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// Fall back to the first profile by name.
		c.ActiveProfile = c.ProfileNames()[0]
		profile = c.Profiles[c.ActiveProfile]
	}

	c.currentProfile = &profile
	return nil
}
