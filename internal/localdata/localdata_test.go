package localdata

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}

	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}

	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
	if len(v1) == 0 {
		t.Fatal("expected at least one applied migration")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.LoadToken(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadToken on empty store: want ErrNotFound, got %v", err)
	}

	if err := s.SaveToken("tok-1"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	got, err := s.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if got != "tok-1" {
		t.Errorf("LoadToken = %q, want tok-1", got)
	}

	// Saving again replaces the single row.
	if err := s.SaveToken("tok-2"); err != nil {
		t.Fatalf("SaveToken overwrite: %v", err)
	}
	got, err = s.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken after overwrite: %v", err)
	}
	if got != "tok-2" {
		t.Errorf("LoadToken = %q, want tok-2", got)
	}

	if err := s.ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, err := s.LoadToken(); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadToken after clear: want ErrNotFound, got %v", err)
	}
}

// TestTokenExpiry backdates the stored expiry and verifies the token reads
// as absent and the row is removed.
func TestTokenExpiry(t *testing.T) {
	s := openTestStore(t)

	if err := s.SaveToken("stale"); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour).Format(time.RFC3339)
	if _, err := s.db.Exec("UPDATE session SET expires_at = ? WHERE id = 1", past); err != nil {
		t.Fatalf("backdating expiry: %v", err)
	}

	if _, err := s.LoadToken(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadToken on expired token: want ErrNotFound, got %v", err)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM session").Scan(&count); err != nil {
		t.Fatalf("counting session rows: %v", err)
	}
	if count != 0 {
		t.Errorf("expired row not deleted, %d rows remain", count)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.LoadFontSize(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadFontSize on empty store: want ErrNotFound, got %v", err)
	}

	if err := s.SaveFontSize(18); err != nil {
		t.Fatalf("SaveFontSize: %v", err)
	}
	size, err := s.LoadFontSize()
	if err != nil {
		t.Fatalf("LoadFontSize: %v", err)
	}
	if size != 18 {
		t.Errorf("LoadFontSize = %d, want 18", size)
	}

	if err := s.SaveDarkMode(true); err != nil {
		t.Fatalf("SaveDarkMode: %v", err)
	}
	dark, err := s.LoadDarkMode()
	if err != nil {
		t.Fatalf("LoadDarkMode: %v", err)
	}
	if !dark {
		t.Error("LoadDarkMode = false, want true")
	}
}

// TestPreferencesSurviveReopen verifies preferences persist across Open calls
// on the same directory.
func TestPreferencesSurviveReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := s1.SaveFontSize(21); err != nil {
		t.Fatalf("SaveFontSize: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer s2.Close()

	size, err := s2.LoadFontSize()
	if err != nil {
		t.Fatalf("LoadFontSize after reopen: %v", err)
	}
	if size != 21 {
		t.Errorf("LoadFontSize = %d, want 21", size)
	}
}
