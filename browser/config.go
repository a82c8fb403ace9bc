package browser

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	EnvBrowser  = "OP_BROWSERTEST_BROWSER"
	EnvHeadless = "OP_BROWSERTEST_HEADLESS"

	DefaultBrowser  = Chrome
	DefaultHeadless = true
)

// Config selects the browser and headless mode for one run. It is immutable once created.
type Config struct {
	name     string
	headless bool
}

// NewConfig accepts any browser name; the driver factory validates it.
func NewConfig(name string, headless bool) Config {
	return Config{name: name, headless: headless}
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return NewConfig(DefaultBrowser, DefaultHeadless)
}

func (c Config) BrowserName() string {
	return c.name
}

func (c Config) IsHeadless() bool {
	return c.headless
}

func (c Config) String() string {
	return fmt.Sprintf("%s (headless=%t)", c.name, c.headless)
}

// Environ renders the configuration as KEY=value pairs for a child process.
func (c Config) Environ() []string {
	return []string{
		EnvBrowser + "=" + c.name,
		EnvHeadless + "=" + strconv.FormatBool(c.headless),
	}
}

// ConfigFromEnv rebuilds the configuration a parent process passed down with Environ.
// Unset variables fall back to the defaults.
func ConfigFromEnv() (Config, error) {
	return configFromLookup(os.LookupEnv)
}

func configFromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()
	if name, ok := lookup(EnvBrowser); ok && strings.TrimSpace(name) != "" {
		cfg.name = strings.ToLower(strings.TrimSpace(name))
	}
	if raw, ok := lookup(EnvHeadless); ok && strings.TrimSpace(raw) != "" {
		headless, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s value %q: %w", EnvHeadless, raw, err)
		}
		cfg.headless = headless
	}
	return cfg, nil
}
