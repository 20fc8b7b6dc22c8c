package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"centime/internal/core"
	"centime/internal/storage"
)

// Ledger event actions published after successful transaction mutations.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventPublisher emits ledger events for downstream consumers (the sheets
// mirror worker). Publishing is best-effort: the write already committed, so
// a publish failure is logged and never fails the request.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, transactionID, action string) error
}

// TransactionService owns the ledger consistency invariant: every create,
// update and delete keeps the affected account balances equal to the signed
// sum of their transactions, with the transaction row mutation and the
// balance mutation(s) committed as one atomic unit.
type TransactionService struct {
	store  storage.Store
	events EventPublisher
}

// NewTransactionService builds the service. events may be nil when no broker
// is configured.
func NewTransactionService(store storage.Store, events EventPublisher) *TransactionService {
	return &TransactionService{store: store, events: events}
}

type CreateTransactionParams struct {
	AccountID   string
	CategoryID  string
	RecipientID string // optional
	Date        string // YYYY-MM-DD
	Description string
	Amount      string // positive decimal
	Type        string // income | expense
}

// UpdateTransactionParams carries partial fields; nil means untouched. The
// recipient reference is immutable after creation, matching the original
// API surface.
type UpdateTransactionParams struct {
	AccountID   *string
	CategoryID  *string
	Date        *string
	Description *string
	Amount      *string
	Type        *string
}

// Create validates that the referenced account, category and (if given)
// recipient exist and belong to the caller, then writes the transaction row
// and the adjusted account balance in one atomic unit.
func (s *TransactionService) Create(ctx context.Context, userID string, p CreateTransactionParams) (core.Transaction, error) {
	if _, err := loadOwned(ctx, s.store.AccountByID, p.AccountID, userID, "account"); err != nil {
		return core.Transaction{}, boundary(ctx, "create transaction", err)
	}
	if _, err := loadOwned(ctx, s.store.CategoryByID, p.CategoryID, userID, "category"); err != nil {
		return core.Transaction{}, boundary(ctx, "create transaction", err)
	}
	if p.RecipientID != "" {
		if _, err := loadOwned(ctx, s.store.RecipientByID, p.RecipientID, userID, "recipient"); err != nil {
			return core.Transaction{}, boundary(ctx, "create transaction", err)
		}
	}

	amount, err := core.ParseAmount(p.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(p.Date)
	if err != nil {
		return core.Transaction{}, err
	}

	now := time.Now().UTC()
	transaction := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   p.AccountID,
		CategoryID:  p.CategoryID,
		RecipientID: p.RecipientID,
		Date:        date,
		Description: strings.TrimSpace(p.Description),
		Amount:      amount,
		Type:        core.TransactionType(p.Type),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := transaction.Validate(); err != nil {
		return core.Transaction{}, err
	}

	err = s.store.InTx(ctx, func(st storage.Store) error {
		// The balance is re-read inside the transaction so concurrent writes
		// to the same account serialize on the database.
		account, err := st.AccountByID(ctx, transaction.AccountID)
		if err != nil {
			return err
		}
		if err := st.CreateTransaction(ctx, transaction); err != nil {
			return err
		}
		account.Balance = account.Balance.Add(transaction.Signed())
		account.UpdatedAt = now
		return st.UpdateAccount(ctx, account)
	})
	if err != nil {
		return core.Transaction{}, boundary(ctx, "create transaction", err)
	}

	s.publish(ctx, transaction.ID, EventCreated)
	return transaction, nil
}

// List returns the user's transactions newest date first, recipient names
// joined.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	transactions, err := s.store.TransactionsByUser(ctx, userID)
	if err != nil {
		return nil, boundary(ctx, "list transactions", err)
	}
	return transactions, nil
}

func (s *TransactionService) Get(ctx context.Context, id, userID string) (core.Transaction, error) {
	transaction, err := loadOwned(ctx, s.store.TransactionByID, id, userID, "transaction")
	if err != nil {
		return core.Transaction{}, boundary(ctx, "get transaction", err)
	}
	return transaction, nil
}

// Update may move a transaction across four independent axes: amount, type,
// category and account. The original effect is reversed on the original
// account and the new effect applied to the target account; when these are
// the same account both steps net against one row, otherwise two rows move.
// Everything commits atomically.
func (s *TransactionService) Update(ctx context.Context, id, userID string, p UpdateTransactionParams) (core.Transaction, error) {
	current, err := loadOwned(ctx, s.store.TransactionByID, id, userID, "transaction")
	if err != nil {
		return core.Transaction{}, boundary(ctx, "update transaction", err)
	}

	updated := current
	updated.RecipientName = ""

	if p.AccountID != nil && *p.AccountID != current.AccountID {
		if _, err := loadOwned(ctx, s.store.AccountByID, *p.AccountID, userID, "new account"); err != nil {
			return core.Transaction{}, boundary(ctx, "update transaction", err)
		}
		updated.AccountID = *p.AccountID
	}
	if p.CategoryID != nil && *p.CategoryID != current.CategoryID {
		if _, err := loadOwned(ctx, s.store.CategoryByID, *p.CategoryID, userID, "new category"); err != nil {
			return core.Transaction{}, boundary(ctx, "update transaction", err)
		}
		updated.CategoryID = *p.CategoryID
	}
	if p.Date != nil {
		date, err := core.ParseDate(*p.Date)
		if err != nil {
			return core.Transaction{}, err
		}
		updated.Date = date
	}
	if p.Description != nil {
		updated.Description = strings.TrimSpace(*p.Description)
	}
	if p.Amount != nil {
		amount, err := core.ParseAmount(*p.Amount)
		if err != nil {
			return core.Transaction{}, err
		}
		updated.Amount = amount
	}
	if p.Type != nil {
		updated.Type = core.TransactionType(*p.Type)
	}
	if err := updated.Validate(); err != nil {
		return core.Transaction{}, err
	}
	updated.UpdatedAt = time.Now().UTC()

	err = s.store.InTx(ctx, func(st storage.Store) error {
		original, err := st.AccountByID(ctx, current.AccountID)
		if err != nil {
			return err
		}

		// Reverse the original contribution on the original account.
		reversed := original.Balance.Sub(current.Signed())

		if updated.AccountID == current.AccountID {
			// Same account: reversal and new effect net on one row.
			original.Balance = reversed.Add(updated.Signed())
			original.UpdatedAt = updated.UpdatedAt
			if err := st.UpdateAccount(ctx, original); err != nil {
				return err
			}
		} else {
			original.Balance = reversed
			original.UpdatedAt = updated.UpdatedAt
			if err := st.UpdateAccount(ctx, original); err != nil {
				return err
			}
			target, err := st.AccountByID(ctx, updated.AccountID)
			if err != nil {
				return err
			}
			target.Balance = target.Balance.Add(updated.Signed())
			target.UpdatedAt = updated.UpdatedAt
			if err := st.UpdateAccount(ctx, target); err != nil {
				return err
			}
		}

		return st.UpdateTransaction(ctx, updated)
	})
	if err != nil {
		return core.Transaction{}, boundary(ctx, "update transaction", err)
	}

	s.publish(ctx, updated.ID, EventUpdated)
	return updated, nil
}

// Delete reverses the transaction's effect on its account balance and
// removes the row, atomically.
func (s *TransactionService) Delete(ctx context.Context, id, userID string) error {
	transaction, err := loadOwned(ctx, s.store.TransactionByID, id, userID, "transaction")
	if err != nil {
		return boundary(ctx, "delete transaction", err)
	}

	err = s.store.InTx(ctx, func(st storage.Store) error {
		account, err := st.AccountByID(ctx, transaction.AccountID)
		if err != nil {
			return err
		}
		account.Balance = account.Balance.Sub(transaction.Signed())
		account.UpdatedAt = time.Now().UTC()
		if err := st.UpdateAccount(ctx, account); err != nil {
			return err
		}
		return st.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return boundary(ctx, "delete transaction", err)
	}

	s.publish(ctx, id, EventDeleted)
	return nil
}

func (s *TransactionService) publish(ctx context.Context, transactionID, action string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, transactionID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"transaction_id", transactionID, "action", action, "error", err)
	}
}
