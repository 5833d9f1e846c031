package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const defaultConfigTmpl = `# Simplepedia configuration file.

# Base location of the articles collection.
endpoint = "http://localhost:8080/api/articles/"

# Timeout for each request to the endpoint.
timeout = "30s"

# Go time layout used to show when an article was last edited.
time_format = "1/2/2006, 3:04:05 PM"

# Program ctrl+e opens on an extract. Empty means $VISUAL, then $EDITOR.
editor = ""

# Where the terminal UI writes its log, and how much it writes.
log_file = %q
log_level = "info"

# Used by "simplepedia serve": where the reference server keeps articles,
# and the address it listens on.
data_dir = %q
listen = ":8080"
`

// Environment variables that override the config file. They may also be set
// in a .env file in the working directory.
const (
	EnvEndpoint = "SIMPLEPEDIA_ENDPOINT"
	EnvLogLevel = "SIMPLEPEDIA_LOG_LEVEL"
	EnvDataDir  = "SIMPLEPEDIA_DATA_DIR"
	EnvListen   = "SIMPLEPEDIA_LISTEN"
)

type Config struct {
	Endpoint   string   `toml:"endpoint"`
	Timeout    Duration `toml:"timeout"`
	TimeFormat string   `toml:"time_format"`
	Editor     string   `toml:"editor"`
	LogFile    string   `toml:"log_file"`
	LogLevel   string   `toml:"log_level"`
	DataDir    string   `toml:"data_dir"`
	Listen     string   `toml:"listen"`
}

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Defaults returns the configuration used for keys absent from the file.
func Defaults() Config {
	return Config{
		Endpoint:   "http://localhost:8080/api/articles/",
		Timeout:    Duration{30 * time.Second},
		TimeFormat: "1/2/2006, 3:04:05 PM",
		LogLevel:   "info",
		Listen:     ":8080",
	}
}

// Dir returns the simplepedia configuration directory (~/.simplepedia).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".simplepedia"), nil
}

// Path returns the path to the simplepedia config file.
func Path() string {
	dir, _ := Dir()
	return filepath.Join(dir, "simplepedia.toml")
}

// Load reads the config from ~/.simplepedia/simplepedia.toml, creating a
// default config file if one doesn't exist.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config at path, creating a default file there if it
// doesn't exist, then applies environment overrides.
func LoadFrom(path string) (Config, error) {
	dir := filepath.Dir(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Config{}, fmt.Errorf("could not create config directory: %w", err)
		}
		contents := fmt.Sprintf(defaultConfigTmpl,
			filepath.Join(dir, "simplepedia.log"),
			filepath.Join(dir, "data"))
		if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
			return Config{}, fmt.Errorf("could not write default config: %w", err)
		}
	}

	cfg := Defaults()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("could not parse %s: %w", path, err)
	}

	// A missing .env file is normal.
	_ = godotenv.Load()
	applyEnv(&cfg)

	var err error
	if cfg.DataDir, err = expandHome(cfg.DataDir); err != nil {
		return Config{}, err
	}
	if cfg.LogFile, err = expandHome(cfg.LogFile); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint not configured")
	}
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("endpoint %q must be an http(s) URL", c.Endpoint)
	}
	if c.Timeout.Duration < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		cfg.Listen = v
	}
}

// Expand ~ in paths.
func expandHome(p string) (string, error) {
	if len(p) >= 2 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		return filepath.Join(home, p[2:]), nil
	}
	return p, nil
}
