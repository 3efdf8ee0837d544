package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Defaults applied when the config file is missing or a key is absent.
const (
	defaultRequestURL   = "https://share.example.com/api/upload"
	defaultCleanupDays  = 180
	defaultHistoryLimit = 20
)

// Config holds the static configuration supplied once at startup. It is
// immutable after loading; components receive it by reference at
// construction time.
type Config struct {
	RequestURL     string
	ServerBase     string
	APIKey         string
	AlbumUUID      string
	WatchDir       string
	CleanupEnabled bool
	CleanupAgeDays int
	ControlPort    int
	HistoryPath    string
	HistoryLimit   int
}

// DefaultConfigPath returns the standard location of the env file.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "watchdrop.env"
	}
	return filepath.Join(home, ".watchdrop", "watchdrop.env")
}

// DefaultHistoryPath returns the standard location of the history database.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".watchdrop", "history.db")
}

// envLine matches a well-formed KEY=VALUE assignment.
var envLine = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*\s*=`)

// sanitizeEnv drops blank lines, comments and anything that is not a
// KEY=VALUE assignment. Malformed lines are ignored, not errors; the env
// codec would otherwise reject the whole file over one garbage line.
func sanitizeEnv(data []byte) string {
	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if envLine.MatchString(trimmed) {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}

// LoadConfig reads an env-format (KEY=VALUE) file. A missing file is not an
// error: the defaults are returned and validation decides whether the
// process runs inert. Unknown keys and malformed lines are ignored.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")

	v.SetDefault("CHIBISAFE_REQUEST_URL", defaultRequestURL)
	v.SetDefault("CHIBISAFE_CLEANUP_AGE_DAYS", strconv.Itoa(defaultCleanupDays))
	v.SetDefault("HISTORY_PATH", DefaultHistoryPath())
	v.SetDefault("HISTORY_LIMIT", defaultHistoryLimit)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := v.ReadConfig(strings.NewReader(sanitizeEnv(data))); err != nil {
		return nil, err
	}

	cfg := &Config{
		RequestURL:     v.GetString("CHIBISAFE_REQUEST_URL"),
		ServerBase:     v.GetString("CHIBISAFE_SERVER_BASE"),
		APIKey:         v.GetString("CHIBISAFE_API_KEY"),
		AlbumUUID:      v.GetString("CHIBISAFE_ALBUM_UUID"),
		WatchDir:       v.GetString("CHIBISAFE_WATCH_DIR"),
		CleanupEnabled: v.GetBool("CHIBISAFE_CLEANUP_ENABLED"),
		CleanupAgeDays: parseAgeDays(v.GetString("CHIBISAFE_CLEANUP_AGE_DAYS")),
		ControlPort:    v.GetInt("CONTROL_PORT"),
		HistoryPath:    v.GetString("HISTORY_PATH"),
		HistoryLimit:   v.GetInt("HISTORY_LIMIT"),
	}

	if cfg.ServerBase == "" {
		cfg.ServerBase = strings.TrimSuffix(cfg.RequestURL, "/api/upload")
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}

	return cfg, nil
}

// parseAgeDays falls back to the default for malformed or negative values.
// Zero is legitimate: it makes every remote file eligible immediately.
func parseAgeDays(s string) int {
	days, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || days < 0 {
		return defaultCleanupDays
	}
	return days
}

// IsValid reports whether the configuration is complete enough to watch and
// clean up. An invalid configuration disables both rather than failing the
// process.
func (c *Config) IsValid() bool {
	return c.APIKey != "" && c.AlbumUUID != "" && c.WatchDir != ""
}

// Redacted returns a copy safe for logging.
func (c *Config) Redacted() Config {
	out := *c
	if out.APIKey != "" {
		out.APIKey = "***"
	}
	return out
}
