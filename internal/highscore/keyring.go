package highscore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const (
	defaultService = "lilyhop"
	defaultAccount = "local"
	keyHighScore   = "highscore"
)

// ErrNotFound is returned by Get when no high score has been stored.
var ErrNotFound = errors.New("highscore: not found")

// KeyringStore keeps the high score in the OS keychain, with a JSON file
// fallback for machines that have no keyring service.
type KeyringStore struct {
	service      string
	account      string
	fallbackPath string
	mu           sync.Mutex
}

// NewKeyringStore creates a slot for account under serviceName.
func NewKeyringStore(serviceName, account, fallbackPath string) *KeyringStore {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = defaultService
	}
	if strings.TrimSpace(account) == "" {
		account = defaultAccount
	}
	return &KeyringStore{
		service:      serviceName,
		account:      strings.TrimSpace(account),
		fallbackPath: fallbackPath,
	}
}

func (k *KeyringStore) key() string {
	return fmt.Sprintf("%s/%s", k.account, keyHighScore)
}

// Load returns the stored high score. A missing slot loads as 0.
func (k *KeyringStore) Load() (int, error) {
	n, err := k.Get()
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	return n, err
}

// Get returns the stored high score or ErrNotFound.
func (k *KeyringStore) Get() (int, error) {
	val, err := keyring.Get(k.service, k.key())
	if err == nil {
		return parseScore(val)
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return 0, fmt.Errorf("highscore: keyring get: %w", err)
	}

	fallback, ferr := k.getFallback()
	if ferr == nil {
		return parseScore(fallback)
	}
	if errors.Is(err, keyring.ErrNotFound) || errors.Is(ferr, ErrNotFound) {
		return 0, ErrNotFound
	}
	return 0, ferr
}

// Save overwrites the slot.
func (k *KeyringStore) Save(score int) error {
	if score < 0 {
		return fmt.Errorf("highscore: negative score %d", score)
	}
	value := strconv.Itoa(score)
	if err := keyring.Set(k.service, k.key(), value); err == nil {
		return nil
	} else if !isKeyringUnavailable(err) {
		return fmt.Errorf("highscore: keyring set: %w", err)
	}
	return k.setFallback(value)
}

// Record saves score only if it beats the stored one and reports whether
// it did.
func (k *KeyringStore) Record(score int) (bool, error) {
	current, err := k.Load()
	if err != nil {
		return false, err
	}
	if score <= current {
		return false, nil
	}
	if err := k.Save(score); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes the slot from both the keyring and the fallback file.
func (k *KeyringStore) Clear() error {
	err := keyring.Delete(k.service, k.key())
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		_ = k.deleteFallback()
		return fmt.Errorf("highscore: keyring delete: %w", err)
	}
	return k.deleteFallback()
}

func parseScore(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("highscore: corrupt value %q", raw)
	}
	return n, nil
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "the specified item could not be found in the keychain") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

// fallbackSlots maps account -> key -> value.
type fallbackSlots map[string]map[string]string

func (k *KeyringStore) setFallback(value string) error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return fmt.Errorf("highscore: keyring unavailable and no fallback path configured")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	if _, ok := data[k.account]; !ok {
		data[k.account] = map[string]string{}
	}
	data[k.account][keyHighScore] = value
	return k.writeFallbackUnlocked(data)
}

func (k *KeyringStore) getFallback() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.getFallbackUnlocked()
}

func (k *KeyringStore) getFallbackUnlocked() (string, error) {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return "", fmt.Errorf("highscore: fallback path not configured")
	}
	data, err := k.readFallbackUnlocked()
	if err != nil {
		return "", err
	}
	val, ok := data[k.account][keyHighScore]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (k *KeyringStore) deleteFallback() error {
	if strings.TrimSpace(k.fallbackPath) == "" {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	data, err := k.readFallbackUnlocked()
	if err != nil {
		return err
	}
	delete(data, k.account)
	return k.writeFallbackUnlocked(data)
}

func (k *KeyringStore) readFallbackUnlocked() (fallbackSlots, error) {
	out := fallbackSlots{}
	raw, err := os.ReadFile(k.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("highscore: read fallback: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("highscore: decode fallback: %w", err)
	}
	return out, nil
}

func (k *KeyringStore) writeFallbackUnlocked(data fallbackSlots) error {
	dir := filepath.Dir(k.fallbackPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("highscore: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("highscore: encode fallback: %w", err)
	}
	if err := os.WriteFile(k.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("highscore: write fallback: %w", err)
	}
	return nil
}
