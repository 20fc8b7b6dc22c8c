package worker

import (
	"context"
	"testing"
	"time"

	"centime/internal/amqp"
	"centime/internal/core"
	memsheet "centime/internal/sheets/memory"
	"centime/internal/storage/memory"
)

func seedMirrorData(t *testing.T, store *memory.Store) core.Transaction {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	account := core.Account{
		ID: "a1", UserID: "u1", Name: "Checking", Type: core.AccountBank,
		Currency: "EUR", CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("create account: %v", err)
	}
	category := core.Category{
		ID: "c1", UserID: "u1", Name: "Groceries", Type: core.TypeExpense,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateCategory(ctx, category); err != nil {
		t.Fatalf("create category: %v", err)
	}
	transaction := core.Transaction{
		ID: "t1", UserID: "u1", AccountID: "a1", CategoryID: "c1",
		Date: core.NewDate(2024, 1, 10), Description: "Weekly shop",
		Amount: core.Money{Cents: 4250}, Type: core.TypeExpense,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := store.CreateTransaction(ctx, transaction); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return transaction
}

func TestSyncWorker_MirrorsCreatedEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedMirrorData(t, store)
	ledger := memsheet.New()
	w := NewSyncWorker(store, ledger)

	err := w.HandleLedgerEvent(ctx, &amqp.LedgerEventMessage{
		TransactionID: "t1", Action: amqp.ActionCreated, Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("HandleLedgerEvent: %v", err)
	}

	entries := ledger.Entries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.AccountName != "Checking" || e.CategoryName != "Groceries" {
		t.Errorf("names not resolved: %+v", e)
	}
	if e.Amount.Cents != 4250 || e.Type != core.TypeExpense || e.Description != "Weekly shop" {
		t.Errorf("entry = %+v", e)
	}
}

func TestSyncWorker_SkipsUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedMirrorData(t, store)
	ledger := memsheet.New()
	w := NewSyncWorker(store, ledger)

	for _, action := range []string{amqp.ActionUpdated, amqp.ActionDeleted} {
		if err := w.HandleLedgerEvent(ctx, &amqp.LedgerEventMessage{
			TransactionID: "t1", Action: action, Timestamp: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("HandleLedgerEvent(%s): %v", action, err)
		}
	}
	if got := len(ledger.Entries()); got != 0 {
		t.Errorf("entries = %d, want 0", got)
	}
}

// A create event for a transaction that no longer exists can never succeed,
// so it must be dropped rather than requeued.
func TestSyncWorker_DropsMissingTransaction(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	ledger := memsheet.New()
	w := NewSyncWorker(store, ledger)

	err := w.HandleLedgerEvent(ctx, &amqp.LedgerEventMessage{
		TransactionID: "ghost", Action: amqp.ActionCreated, Timestamp: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("HandleLedgerEvent should drop missing transactions, got %v", err)
	}
	if got := len(ledger.Entries()); got != 0 {
		t.Errorf("entries = %d, want 0", got)
	}
}
