// Package config reads runtime settings from the environment and an
// optional .env file, and game tuning from an optional INI file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "LILYHOP_"

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds server and simulator settings.
type Config struct {
	Addr                string
	Store               string
	DBPath              string
	StaticDir           string
	SubmitToken         string
	TuningFile          string
	LeaderboardCapacity int
	TopN                int
	MaxNameLength       int
	RequestTimeout      time.Duration
	ShutdownTimeout     time.Duration
	AutoSubmit          bool // submit named play-session scores on game over

	ServerURL         string // used by the simulator when submitting
	KeyringService    string
	KeyringAccount    string
	HighScoreFallback string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:                ":8080",
		Store:               StoreSQLite,
		DBPath:              "lilyhop.db",
		LeaderboardCapacity: 100,
		TopN:                10,
		MaxNameLength:       64,
		RequestTimeout:      60 * time.Second,
		ShutdownTimeout:     10 * time.Second,
		ServerURL:           "http://localhost:8080",
		KeyringService:      "lilyhop",
		KeyringAccount:      "local",
		HighScoreFallback:   defaultFallbackPath(),
	}
}

func defaultFallbackPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "lilyhop-highscore.json")
	}
	return filepath.Join(dir, "lilyhop", "highscore.json")
}

// Load reads envFiles (".env" when none are given) and then the
// LILYHOP_* environment. Missing env files are ignored. Variables
// already set in the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from defaults overlaid with LILYHOP_* variables.
func FromEnv() (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %q is not an integer", envPrefix, key, v))
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %q is not a boolean", envPrefix, key, v))
			return
		}
		*dst = b
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(key)
		if !ok {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %q is not a duration", envPrefix, key, v))
			return
		}
		*dst = d
	}

	str("ADDR", &cfg.Addr)
	str("STORE", &cfg.Store)
	str("DB_PATH", &cfg.DBPath)
	str("STATIC_DIR", &cfg.StaticDir)
	str("SUBMIT_TOKEN", &cfg.SubmitToken)
	str("TUNING_FILE", &cfg.TuningFile)
	num("LEADERBOARD_CAPACITY", &cfg.LeaderboardCapacity)
	num("TOP_N", &cfg.TopN)
	num("MAX_NAME_LENGTH", &cfg.MaxNameLength)
	dur("REQUEST_TIMEOUT", &cfg.RequestTimeout)
	dur("SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)
	flag("AUTO_SUBMIT", &cfg.AutoSubmit)
	str("SERVER_URL", &cfg.ServerURL)
	str("KEYRING_SERVICE", &cfg.KeyringService)
	str("KEYRING_ACCOUNT", &cfg.KeyringAccount)
	str("HIGHSCORE_FALLBACK", &cfg.HighScoreFallback)

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.Store = strings.ToLower(cfg.Store)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: addr is required")
	case c.Store != StoreSQLite && c.Store != StoreMemory:
		return fmt.Errorf("config: store must be %q or %q, got %q", StoreSQLite, StoreMemory, c.Store)
	case c.Store == StoreSQLite && c.DBPath == "":
		return errors.New("config: db path is required for the sqlite store")
	case c.LeaderboardCapacity < 1:
		return errors.New("config: leaderboard capacity must be at least 1")
	case c.TopN < 1 || c.TopN > c.LeaderboardCapacity:
		return fmt.Errorf("config: top n must be within [1, %d]", c.LeaderboardCapacity)
	case c.MaxNameLength < 1:
		return errors.New("config: max name length must be at least 1")
	case c.RequestTimeout <= 0:
		return errors.New("config: request timeout must be positive")
	}
	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}
