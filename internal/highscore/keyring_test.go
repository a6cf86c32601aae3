package highscore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyringStoreLoadSave(t *testing.T) {
	keyring.MockInit()
	k := NewKeyringStore("lilyhop-test", "player", filepath.Join(t.TempDir(), "highscore.json"))

	n, err := k.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n != 0 {
		t.Fatalf("empty slot loaded as %d", n)
	}
	if _, err := k.Get(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty slot: %v", err)
	}

	if err := k.Save(42); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n, err = k.Load(); err != nil || n != 42 {
		t.Fatalf("Load = %d, %v; want 42", n, err)
	}

	if err := k.Save(-1); err == nil {
		t.Fatal("negative scores must be rejected")
	}
}

func TestKeyringStoreRecordOnlyRaises(t *testing.T) {
	keyring.MockInit()
	k := NewKeyringStore("lilyhop-test", "record", "")

	saved, err := k.Record(10)
	if err != nil || !saved {
		t.Fatalf("Record(10) = %v, %v", saved, err)
	}
	saved, err = k.Record(7)
	if err != nil || saved {
		t.Fatalf("Record(7) = %v, %v; lower score must not overwrite", saved, err)
	}
	if n, _ := k.Load(); n != 10 {
		t.Fatalf("high score = %d, want 10", n)
	}
	saved, err = k.Record(11)
	if err != nil || !saved {
		t.Fatalf("Record(11) = %v, %v", saved, err)
	}
}

func TestKeyringStoreAccountsAreSeparate(t *testing.T) {
	keyring.MockInit()
	a := NewKeyringStore("lilyhop-test", "a", "")
	b := NewKeyringStore("lilyhop-test", "b", "")

	if err := a.Save(5); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n, _ := b.Load(); n != 0 {
		t.Fatalf("account b sees %d", n)
	}
}

func TestKeyringStoreFallbackFile(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus: connection refused"))
	defer keyring.MockInit()

	path := filepath.Join(t.TempDir(), "nested", "highscore.json")
	k := NewKeyringStore("lilyhop-test", "offline", path)

	if n, err := k.Load(); err != nil || n != 0 {
		t.Fatalf("Load on missing fallback = %d, %v", n, err)
	}
	if err := k.Save(99); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("fallback file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("fallback perm = %o, want 600", perm)
	}
	if n, err := k.Load(); err != nil || n != 99 {
		t.Fatalf("Load = %d, %v; want 99", n, err)
	}

	if err := k.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, err := k.Load(); err != nil || n != 0 {
		t.Fatalf("Load after Clear = %d, %v", n, err)
	}
}

func TestKeyringUnavailableWithoutFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("secret service not running"))
	defer keyring.MockInit()

	k := NewKeyringStore("lilyhop-test", "nofallback", "")
	if err := k.Save(1); err == nil {
		t.Fatal("expected error with no keyring and no fallback path")
	}
}

func TestCorruptValue(t *testing.T) {
	keyring.MockInit()
	if err := keyring.Set("lilyhop-test", "corrupt/highscore", "lots"); err != nil {
		t.Fatal(err)
	}
	k := NewKeyringStore("lilyhop-test", "corrupt", "")
	if _, err := k.Load(); err == nil {
		t.Fatal("expected error for corrupt value")
	}
}
