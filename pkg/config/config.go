package config

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"notedit/pkg/errors"
)

// Defaults
const (
	DefaultAPIURL         = "http://localhost:8080/api/notes"
	DefaultListenAddr     = ":8080"
	DefaultRequestTimeout = 30 * time.Second
	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 20
)

// Environment variables that override the config file
const (
	EnvConfigFile     = "NOTEDIT_CONFIG"
	EnvAPIURL         = "NOTEDIT_API_URL"
	EnvRequestTimeout = "NOTEDIT_REQUEST_TIMEOUT"
	EnvListenAddr     = "NOTEDIT_LISTEN_ADDR"
	EnvNotesPath      = "NOTEDIT_NOTES_PATH"
	EnvRateLimitRPS   = "NOTEDIT_RATE_LIMIT_RPS"
	EnvRateLimitBurst = "NOTEDIT_RATE_LIMIT_BURST"
)

// Duration is a time.Duration stored as text ("30s") in the config file
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config holds application configuration
type Config struct {
	// APIURL is the root of the note API used by the editor
	APIURL string `json:"apiUrl"`
	// RequestTimeout bounds each fetch and save
	RequestTimeout Duration `json:"requestTimeout"`

	// ListenAddr, NotesPath and the rate limits configure the note server
	ListenAddr     string `json:"listenAddr"`
	NotesPath      string `json:"notesPath"`
	RateLimitRPS   int    `json:"rateLimitRps"`
	RateLimitBurst int    `json:"rateLimitBurst"`

	path string
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		RequestTimeout: Duration{DefaultRequestTimeout},
		ListenAddr:     DefaultListenAddr,
		NotesPath:      GetDefaultDataPath(),
		RateLimitRPS:   DefaultRateLimitRPS,
		RateLimitBurst: DefaultRateLimitBurst,
		path:           GetConfigFilePath(),
	}
}

// GetDefaultDataPath returns the default directory for the note server
func GetDefaultDataPath() string {
	currentUser, err := user.Current()
	if err != nil {
		return "./data"
	}
	return filepath.Join(currentUser.HomeDir, "Documents", "Notedit", "Notes")
}

// GetConfigFilePath returns the path where the config file should be stored
func GetConfigFilePath() string {
	if path := os.Getenv(EnvConfigFile); path != "" {
		return path
	}

	var configDir string
	if runtime.GOOS == "windows" {
		configDir = os.Getenv("APPDATA")
	} else {
		configDir = os.Getenv("XDG_CONFIG_HOME")
	}
	if configDir == "" {
		currentUser, err := user.Current()
		if err != nil {
			return "./config.json"
		}
		configDir = filepath.Join(currentUser.HomeDir, ".config")
	}

	return filepath.Join(configDir, "notedit", "config.json")
}

// Load reads the config file, if any, then applies .env and environment
// overrides on top of the defaults
func Load() (*Config, error) {
	return LoadFrom(GetConfigFilePath())
}

// LoadFrom is Load with an explicit config file path
func LoadFrom(path string) (*Config, error) {
	config := Default()
	config.path = path

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, errors.ErrConfigLoadFailed.WithCause(err).WithContext("path", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.ErrConfigLoadFailed.WithCause(err).WithContext("path", path)
	}

	// Load .env file if exists (not required)
	_ = godotenv.Load()

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values that cannot fall back to a default
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.ErrConfigLoadFailed.WithCause(fmt.Errorf("apiUrl is required"))
	}
	if c.RequestTimeout.Duration <= 0 {
		return errors.ErrConfigLoadFailed.WithCause(fmt.Errorf("requestTimeout must be positive"))
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return errors.ErrConfigLoadFailed.WithCause(fmt.Errorf("rate limits cannot be negative"))
	}
	return nil
}

// Path returns the file this config is loaded from and saved to
func (c *Config) Path() string {
	return c.path
}

// Save saves the configuration to file
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return errors.ErrConfigSaveFailed.WithCause(err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.ErrConfigSaveFailed.WithCause(err)
	}

	if err := os.WriteFile(c.path, data, 0644); err != nil {
		return errors.ErrConfigSaveFailed.WithCause(err).WithContext("path", c.path)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvNotesPath); v != "" {
		c.NotesPath = v
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.ErrConfigLoadFailed.WithCause(err).WithContext("env", EnvRequestTimeout)
		}
		c.RequestTimeout = Duration{d}
	}
	if err := envInt(EnvRateLimitRPS, &c.RateLimitRPS); err != nil {
		return err
	}
	return envInt(EnvRateLimitBurst, &c.RateLimitBurst)
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.ErrConfigLoadFailed.WithCause(err).WithContext("env", key)
	}
	*dst = n
	return nil
}
