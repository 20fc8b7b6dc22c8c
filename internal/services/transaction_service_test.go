package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"centime/internal/core"
	"centime/internal/storage/memory"
)

type fixture struct {
	store        *memory.Store
	accounts     *AccountService
	categories   *CategoryService
	recipients   *RecipientService
	transactions *TransactionService
}

func newFixture(t *testing.T, events EventPublisher) *fixture {
	t.Helper()
	store := memory.New()
	return &fixture{
		store:        store,
		accounts:     NewAccountService(store),
		categories:   NewCategoryService(store),
		recipients:   NewRecipientService(store),
		transactions: NewTransactionService(store, events),
	}
}

func (f *fixture) account(t *testing.T, userID, balance string) core.Account {
	t.Helper()
	a, err := f.accounts.Create(context.Background(), userID, CreateAccountParams{
		Name: "Checking", Type: "bank", Balance: balance, Currency: "EUR",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func (f *fixture) category(t *testing.T, userID, typ string) core.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), userID, CreateCategoryParams{
		Name: "General", Type: typ,
	})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}

func (f *fixture) balance(t *testing.T, userID, accountID string) int64 {
	t.Helper()
	a, err := f.accounts.Get(context.Background(), accountID, userID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	return a.Balance.Cents
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	fail   error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, transactionID, action string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.events = append(p.events, action+":"+transactionID)
	return nil
}

func TestTransactionLedger_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	account := f.account(t, "u1", "0")
	income := f.category(t, "u1", "income")
	expense := f.category(t, "u1", "expense")

	// Income of 100 lands the balance at 100.
	salary, err := f.transactions.Create(ctx, "u1", CreateTransactionParams{
		AccountID: account.ID, CategoryID: income.ID,
		Date: "2024-01-05", Description: "Salary", Amount: "100.00", Type: "income",
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if got := f.balance(t, "u1", account.ID); got != 10000 {
		t.Fatalf("balance after income = %d, want 10000", got)
	}

	// Expense of 30 drops it to 70.
	groceries, err := f.transactions.Create(ctx, "u1", CreateTransactionParams{
		AccountID: account.ID, CategoryID: expense.ID,
		Date: "2024-01-10", Description: "Groceries", Amount: "30.00", Type: "expense",
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := f.balance(t, "u1", account.ID); got != 7000 {
		t.Fatalf("balance after expense = %d, want 7000", got)
	}

	// Raising the expense to 50 nets the balance to 50.
	newAmount := "50.00"
	if _, err := f.transactions.Update(ctx, groceries.ID, "u1", UpdateTransactionParams{Amount: &newAmount}); err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if got := f.balance(t, "u1", account.ID); got != 5000 {
		t.Fatalf("balance after update = %d, want 5000", got)
	}

	// Deleting the income leaves only the -50 expense.
	if err := f.transactions.Delete(ctx, salary.ID, "u1"); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if got := f.balance(t, "u1", account.ID); got != -5000 {
		t.Fatalf("balance after delete = %d, want -5000", got)
	}
}

func TestTransactionUpdate_TypeFlip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	account := f.account(t, "u1", "0")
	expense := f.category(t, "u1", "expense")

	tx, err := f.transactions.Create(ctx, "u1", CreateTransactionParams{
		AccountID: account.ID, CategoryID: expense.ID,
		Date: "2024-01-10", Amount: "25.00", Type: "expense",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := f.balance(t, "u1", account.ID); got != -2500 {
		t.Fatalf("balance = %d, want -2500", got)
	}

	// Flipping expense to income swings the balance by twice the amount.
	newType := "income"
	if _, err := f.transactions.Update(ctx, tx.ID, "u1", UpdateTransactionParams{Type: &newType}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := f.balance(t, "u1", account.ID); got != 2500 {
		t.Fatalf("balance after flip = %d, want 2500", got)
	}
}

// The update response and a subsequent read must report the same UpdatedAt.
func TestTransactionUpdate_BumpsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	account := f.account(t, "u1", "0")
	expense := f.category(t, "u1", "expense")

	tx, err := f.transactions.Create(ctx, "u1", CreateTransactionParams{
		AccountID: account.ID, CategoryID: expense.ID,
		Date: "2024-01-10", Amount: "25.00", Type: "expense",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	time.Sleep(time.Millisecond)
	desc := "renamed"
	updated, err := f.transactions.Update(ctx, tx.ID, "u1", UpdateTransactionParams{Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.UpdatedAt.After(tx.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: created %v, updated %v", tx.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(tx.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v vs %v", tx.CreatedAt, updated.CreatedAt)
	}

	got, err := f.transactions.Get(ctx, tx.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Errorf("stored UpdatedAt %v disagrees with update response %v", got.UpdatedAt, updated.UpdatedAt)
	}
}

func TestTransactionUpdate_CrossAccountMove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	source := f.account(t, "u1", "100.00")
	target := f.account(t, "u1", "0")
	expense := f.category(t, "u1", "expense")

	tx, err := f.transactions.Create(ctx, "u1", CreateTransactionParams{
		AccountID: source.ID, CategoryID: expense.ID,
		Date: "2024-01-10", Amount: "40.00", Type: "expense",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := f.balance(t, "u1", source.ID); got != 6000 {
		t.Fatalf("source balance = %d, want 6000", got)
	}

	// Moving the expense restores the source and charges the target.
	if _, err := f.transactions.Update(ctx, tx.ID, "u1", UpdateTransactionParams{AccountID: &target.ID}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := f.balance(t, "u1", source.ID); got != 10000 {
		t.Errorf("source after move = %d, want 10000", got)
	}
	if got := f.balance(t, "u1", target.ID); got != -4000 {
		t.Errorf("target after move = %d, want -4000", got)
	}

	moved, err := f.transactions.Get(ctx, tx.ID, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if moved.AccountID != target.ID {
		t.Errorf("AccountID = %s, want %s", moved.AccountID, target.ID)
	}
}

func TestTransactionCreate_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	account := f.account(t, "u1", "0")
	expense := f.category(t, "u1", "expense")

	base := CreateTransactionParams{
		AccountID: account.ID, CategoryID: expense.ID,
		Date: "2024-01-10", Amount: "10.00", Type: "expense",
	}

	t.Run("bad amount", func(t *testing.T) {
		p := base
		p.Amount = "-10.00"
		if _, err := f.transactions.Create(ctx, "u1", p); !errors.Is(err, core.ErrValidation) {
			t.Errorf("err = %v, want ErrValidation", err)
		}
	})
	t.Run("bad date", func(t *testing.T) {
		p := base
		p.Date = "10/01/2024"
		if _, err := f.transactions.Create(ctx, "u1", p); !errors.Is(err, core.ErrValidation) {
			t.Errorf("err = %v, want ErrValidation", err)
		}
	})
	t.Run("bad type", func(t *testing.T) {
		p := base
		p.Type = "transfer"
		if _, err := f.transactions.Create(ctx, "u1", p); !errors.Is(err, core.ErrValidation) {
			t.Errorf("err = %v, want ErrValidation", err)
		}
	})
	t.Run("unknown account is NotFound", func(t *testing.T) {
		p := base
		p.AccountID = "missing"
		if _, err := f.transactions.Create(ctx, "u1", p); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
	t.Run("failed create leaves balance untouched", func(t *testing.T) {
		p := base
		p.Amount = "bad"
		_, _ = f.transactions.Create(ctx, "u1", p)
		if got := f.balance(t, "u1", account.ID); got != 0 {
			t.Errorf("balance = %d, want 0", got)
		}
	})
}

func TestTransactionOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	account := f.account(t, "alice", "0")
	expense := f.category(t, "alice", "expense")

	tx, err := f.transactions.Create(ctx, "alice", CreateTransactionParams{
		AccountID: account.ID, CategoryID: expense.ID,
		Date: "2024-01-10", Amount: "10.00", Type: "expense",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Someone else's transaction is Forbidden, not NotFound.
	if _, err := f.transactions.Get(ctx, tx.ID, "mallory"); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("Get as other user = %v, want ErrForbidden", err)
	}
	if err := f.transactions.Delete(ctx, tx.ID, "mallory"); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("Delete as other user = %v, want ErrForbidden", err)
	}
	// A transaction that never existed is NotFound.
	if _, err := f.transactions.Get(ctx, "missing", "mallory"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}

	// Referencing another user's account on create is Forbidden.
	mAccount := f.account(t, "mallory", "0")
	mCategory := f.category(t, "mallory", "expense")
	if _, err := f.transactions.Create(ctx, "mallory", CreateTransactionParams{
		AccountID: account.ID, CategoryID: mCategory.ID,
		Date: "2024-01-10", Amount: "10.00", Type: "expense",
	}); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("create on foreign account = %v, want ErrForbidden", err)
	}
	// Moving a transaction onto another user's account is Forbidden too.
	mTx, err := f.transactions.Create(ctx, "mallory", CreateTransactionParams{
		AccountID: mAccount.ID, CategoryID: mCategory.ID,
		Date: "2024-01-10", Amount: "10.00", Type: "expense",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.transactions.Update(ctx, mTx.ID, "mallory", UpdateTransactionParams{AccountID: &account.ID}); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("move to foreign account = %v, want ErrForbidden", err)
	}
}

func TestCategoryDelete_GuardedByTransactions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	account := f.account(t, "u1", "0")
	expense := f.category(t, "u1", "expense")

	tx, err := f.transactions.Create(ctx, "u1", CreateTransactionParams{
		AccountID: account.ID, CategoryID: expense.ID,
		Date: "2024-01-10", Amount: "10.00", Type: "expense",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.categories.Delete(ctx, expense.ID, "u1"); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("delete referenced category = %v, want ErrForbidden", err)
	}

	// Once the transaction is gone the category can go too.
	if err := f.transactions.Delete(ctx, tx.ID, "u1"); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if err := f.categories.Delete(ctx, expense.ID, "u1"); err != nil {
		t.Fatalf("delete category: %v", err)
	}
}

func TestTransactionEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	f := newFixture(t, pub)
	account := f.account(t, "u1", "0")
	expense := f.category(t, "u1", "expense")

	tx, err := f.transactions.Create(ctx, "u1", CreateTransactionParams{
		AccountID: account.ID, CategoryID: expense.ID,
		Date: "2024-01-10", Amount: "10.00", Type: "expense",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	desc := "renamed"
	if _, err := f.transactions.Update(ctx, tx.ID, "u1", UpdateTransactionParams{Description: &desc}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := f.transactions.Delete(ctx, tx.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{"created:" + tx.ID, "updated:" + tx.ID, "deleted:" + tx.ID}
	if len(pub.events) != len(want) {
		t.Fatalf("events = %v, want %v", pub.events, want)
	}
	for i := range want {
		if pub.events[i] != want[i] {
			t.Errorf("events[%d] = %s, want %s", i, pub.events[i], want[i])
		}
	}
}

func TestTransactionEvents_PublishFailureDoesNotFailRequest(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{fail: errors.New("broker down")}
	f := newFixture(t, pub)
	account := f.account(t, "u1", "0")
	expense := f.category(t, "u1", "expense")

	if _, err := f.transactions.Create(ctx, "u1", CreateTransactionParams{
		AccountID: account.ID, CategoryID: expense.ID,
		Date: "2024-01-10", Amount: "10.00", Type: "expense",
	}); err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}
	if got := f.balance(t, "u1", account.ID); got != -1000 {
		t.Errorf("balance = %d, want -1000", got)
	}
}
