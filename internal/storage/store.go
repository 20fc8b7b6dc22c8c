// Package storage defines the persistence port consumed by the services and
// its SQLite implementation. A full in-memory implementation lives in the
// memory subpackage and backs tests and the dev backend.
package storage

import (
	"context"

	"centime/internal/core"
)

// Store is the transactional persistence interface. Every method is scoped
// to explicit ids; nothing holds hidden global state. InTx runs fn against a
// transaction-bound Store so multi-statement writes commit or roll back as
// one unit -- the ledger updater depends on this.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	CreateUser(ctx context.Context, u core.User) error
	UserByID(ctx context.Context, id string) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)

	CreateSession(ctx context.Context, s core.Session) error
	SessionByToken(ctx context.Context, token string) (core.Session, error)
	DeleteSession(ctx context.Context, token string) error

	CreateAccount(ctx context.Context, a core.Account) error
	AccountByID(ctx context.Context, id string) (core.Account, error)
	AccountsByUser(ctx context.Context, userID string) ([]core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) error
	DeleteAccount(ctx context.Context, id string) error

	CreateCategory(ctx context.Context, c core.Category) error
	CategoryByID(ctx context.Context, id string) (core.Category, error)
	CategoriesByUser(ctx context.Context, userID string) ([]core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) error
	DeleteCategory(ctx context.Context, id string) error

	CreateRecipient(ctx context.Context, r core.Recipient) error
	RecipientByID(ctx context.Context, id string) (core.Recipient, error)
	// RecipientsByUser lists newest-first.
	RecipientsByUser(ctx context.Context, userID string) ([]core.Recipient, error)
	UpdateRecipient(ctx context.Context, r core.Recipient) error
	DeleteRecipient(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, t core.Transaction) error
	TransactionByID(ctx context.Context, id string) (core.Transaction, error)
	// TransactionsByUser lists date-descending with recipient names joined.
	TransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	CountTransactionsByCategory(ctx context.Context, categoryID string) (int64, error)
	TransactionsInRange(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error)

	// Read-side aggregates for the statistics service. Ranges are inclusive
	// on both ends.
	SumAmounts(ctx context.Context, userID string, txType core.TransactionType, from, to core.Date) (core.Money, error)
	SumByCategory(ctx context.Context, userID string, txType core.TransactionType, from, to core.Date) ([]core.CategoryTotal, error)
	SumByAccount(ctx context.Context, userID string, txType core.TransactionType, from, to core.Date) ([]core.AccountTotal, error)
	TopExpenseCategories(ctx context.Context, userID string, from, to core.Date, limit int) ([]core.CategoryTotal, error)
}

// Lookup failures are reported by wrapping core.ErrNotFound so services can
// distinguish a missing row from an infrastructure failure without importing
// database/sql.
