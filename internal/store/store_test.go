package store_test

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/voicebridge/watchlink/internal/store"
)

func setupTestDB(t *testing.T) (*store.CreditStore, *store.HistoryStore, *store.LanguageStore) {
	t.Helper()
	db, err := store.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return store.NewCreditStore(db), store.NewHistoryStore(db), store.NewLanguageStore(db)
}

func TestCreditStore_GetOrCreateAccount(t *testing.T) {
	cs, _, _ := setupTestDB(t)

	account, err := cs.GetOrCreateAccount("watch-1234")
	if err != nil {
		t.Fatalf("GetOrCreateAccount failed: %v", err)
	}
	if account.Credits != 100 {
		t.Errorf("expected starter balance 100, got %d", account.Credits)
	}

	again, err := cs.GetOrCreateAccount("watch-1234")
	if err != nil {
		t.Fatalf("second GetOrCreateAccount failed: %v", err)
	}
	if again.ID != account.ID {
		t.Errorf("expected same account on second lookup, got %d and %d", account.ID, again.ID)
	}
}

func TestCreditStore_Debit(t *testing.T) {
	cs, _, _ := setupTestDB(t)
	account, _ := cs.GetOrCreateAccount("watch-1234")

	remaining, err := cs.Debit(account.ID, 1)
	if err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if remaining != 99 {
		t.Errorf("expected 99 remaining, got %d", remaining)
	}

	balance, _ := cs.Balance(account.ID)
	if balance != 99 {
		t.Errorf("expected balance 99, got %d", balance)
	}
}

func TestCreditStore_DebitInsufficient(t *testing.T) {
	cs, _, _ := setupTestDB(t)
	account, _ := cs.GetOrCreateAccount("watch-1234")

	_, err := cs.Debit(account.ID, 1000)
	if !errors.Is(err, store.ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}

	balance, _ := cs.Balance(account.ID)
	if balance != 100 {
		t.Errorf("failed debit must not change balance, got %d", balance)
	}
}

func TestCreditStore_Grant(t *testing.T) {
	cs, _, _ := setupTestDB(t)
	account, _ := cs.GetOrCreateAccount("watch-1234")

	remaining, err := cs.Grant(account.ID, 50)
	if err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if remaining != 150 {
		t.Errorf("expected 150 after grant, got %d", remaining)
	}
}

func TestHistoryStore_RecordAndRecent(t *testing.T) {
	cs, hs, _ := setupTestDB(t)
	account, _ := cs.GetOrCreateAccount("watch-1234")

	for _, text := range []string{"hello", "goodbye", "thanks"} {
		if err := hs.Record(account.ID, "req-"+text, "en", "es", text, text+"-es"); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := hs.Recent(account.ID, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].SourceText != "thanks" {
		t.Errorf("expected newest entry first, got %q", entries[0].SourceText)
	}
}

func TestHistoryStore_RecentScopedToAccount(t *testing.T) {
	cs, hs, _ := setupTestDB(t)
	a, _ := cs.GetOrCreateAccount("watch-a")
	b, _ := cs.GetOrCreateAccount("watch-b")

	_ = hs.Record(a.ID, "req-1", "en", "es", "hello", "hola")
	_ = hs.Record(b.ID, "req-2", "en", "fr", "hello", "bonjour")

	entries, err := hs.Recent(a.ID, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 || entries[0].TranslatedText != "hola" {
		t.Errorf("expected only account a's history, got %+v", entries)
	}
}

func TestLanguageStore_SaveAndGet(t *testing.T) {
	cs, _, ls := setupTestDB(t)
	account, _ := cs.GetOrCreateAccount("watch-1234")

	if _, err := ls.Get(account.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound before save, got %v", err)
	}

	if err := ls.Save(account.ID, "en", "es"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	pair, err := ls.Get(account.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if pair.SourceLang != "en" || pair.TargetLang != "es" {
		t.Errorf("unexpected pair %+v", pair)
	}

	// Saving again overwrites rather than duplicating.
	if err := ls.Save(account.ID, "ja", "de"); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	pair, _ = ls.Get(account.ID)
	if pair.SourceLang != "ja" || pair.TargetLang != "de" {
		t.Errorf("expected overwritten pair, got %+v", pair)
	}
}
