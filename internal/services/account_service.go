package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"centime/internal/core"
	"centime/internal/storage"
)

// AccountService manages bank/cash/credit/investment accounts. The balance
// written here is the opening balance; from then on only the transaction
// ledger updater moves it alongside transaction writes (except for the
// explicit balance override on update, preserved from the original API).
type AccountService struct {
	store storage.Store
}

func NewAccountService(store storage.Store) *AccountService {
	return &AccountService{store: store}
}

type CreateAccountParams struct {
	Name     string
	Type     string
	Balance  string // decimal, may be negative or zero
	Currency string
}

type UpdateAccountParams struct {
	Name     *string
	Type     *string
	Balance  *string
	Currency *string
}

func (s *AccountService) Create(ctx context.Context, userID string, p CreateAccountParams) (core.Account, error) {
	balance, err := core.ParseSignedAmount(p.Balance)
	if err != nil {
		return core.Account{}, err
	}

	now := time.Now().UTC()
	account := core.Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(p.Name),
		Type:      core.AccountType(p.Type),
		Balance:   balance,
		Currency:  strings.TrimSpace(p.Currency),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return core.Account{}, boundary(ctx, "create account", err)
	}
	return account, nil
}

func (s *AccountService) List(ctx context.Context, userID string) ([]core.Account, error) {
	accounts, err := s.store.AccountsByUser(ctx, userID)
	if err != nil {
		return nil, boundary(ctx, "list accounts", err)
	}
	return accounts, nil
}

func (s *AccountService) Get(ctx context.Context, id, userID string) (core.Account, error) {
	account, err := loadOwned(ctx, s.store.AccountByID, id, userID, "account")
	if err != nil {
		return core.Account{}, boundary(ctx, "get account", err)
	}
	return account, nil
}

// Update applies only the provided fields; absent fields stay untouched.
func (s *AccountService) Update(ctx context.Context, id, userID string, p UpdateAccountParams) (core.Account, error) {
	account, err := loadOwned(ctx, s.store.AccountByID, id, userID, "account")
	if err != nil {
		return core.Account{}, boundary(ctx, "update account", err)
	}

	if p.Name != nil {
		account.Name = strings.TrimSpace(*p.Name)
	}
	if p.Type != nil {
		account.Type = core.AccountType(*p.Type)
	}
	if p.Balance != nil {
		balance, err := core.ParseSignedAmount(*p.Balance)
		if err != nil {
			return core.Account{}, err
		}
		account.Balance = balance
	}
	if p.Currency != nil {
		account.Currency = strings.TrimSpace(*p.Currency)
	}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return core.Account{}, boundary(ctx, "update account", err)
	}
	return account, nil
}

func (s *AccountService) Delete(ctx context.Context, id, userID string) error {
	if _, err := loadOwned(ctx, s.store.AccountByID, id, userID, "account"); err != nil {
		return boundary(ctx, "delete account", err)
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return boundary(ctx, "delete account", err)
	}
	return nil
}
