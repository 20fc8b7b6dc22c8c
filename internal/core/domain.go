package core

import (
	"strings"
	"time"
)

// Account types mirror the stored enum values exactly.
const (
	AccountBank       AccountType = "bank"
	AccountCash       AccountType = "cash"
	AccountCredit     AccountType = "credit"
	AccountInvestment AccountType = "investment"
)

// Transaction (and category) types. Income adds to an account balance,
// expense subtracts.
const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

type (
	AccountType     string
	TransactionType string

	User struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		FirstName    string    `json:"firstName"`
		LastName     string    `json:"lastName"`
		CreatedAt    time.Time `json:"createdAt"`
	}

	// Session is an opaque login token bound to a user.
	Session struct {
		Token     string
		UserID    string
		ExpiresAt time.Time
		CreatedAt time.Time
	}

	// Account's Balance is a derived cache: at rest it always equals the
	// signed sum of the account's transactions. The ledger updater in the
	// transaction service is the only writer that may move it alongside a
	// transaction mutation.
	Account struct {
		ID        string      `json:"id"`
		UserID    string      `json:"userId"`
		Name      string      `json:"name"`
		Type      AccountType `json:"type"`
		Balance   Money       `json:"balance"`
		Currency  string      `json:"currency"`
		CreatedAt time.Time   `json:"createdAt"`
		UpdatedAt time.Time   `json:"updatedAt"`
	}

	Category struct {
		ID        string          `json:"id"`
		UserID    string          `json:"userId"`
		Name      string          `json:"name"`
		Type      TransactionType `json:"type"`
		CreatedAt time.Time       `json:"createdAt"`
		UpdatedAt time.Time       `json:"updatedAt"`
	}

	Recipient struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"createdAt"`
	}

	// Transaction.Amount is always a positive magnitude; Type carries the
	// sign. RecipientID is empty when no recipient is attached.
	// RecipientName is populated on reads that join the recipient row.
	Transaction struct {
		ID            string          `json:"id"`
		UserID        string          `json:"userId"`
		AccountID     string          `json:"accountId"`
		CategoryID    string          `json:"categoryId"`
		RecipientID   string          `json:"recipientId,omitempty"`
		RecipientName string          `json:"recipientName,omitempty"`
		Date          Date            `json:"date"`
		Description   string          `json:"description"`
		Amount        Money           `json:"amount"`
		Type          TransactionType `json:"type"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}
)

// Valid reports whether t is one of the enumerated account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountBank, AccountCash, AccountCredit, AccountInvestment:
		return true
	}
	return false
}

// Valid reports whether t is income or expense.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// Owner returns the owning user id; every owned entity implements this so
// the ownership guard can be written once.
func (a Account) Owner() string     { return a.UserID }
func (c Category) Owner() string    { return c.UserID }
func (r Recipient) Owner() string   { return r.UserID }
func (t Transaction) Owner() string { return t.UserID }

// Signed returns the transaction's contribution to its account balance:
// +amount for income, -amount for expense.
func (t Transaction) Signed() Money {
	if t.Type == TypeIncome {
		return t.Amount
	}
	return Money{Cents: -t.Amount.Cents}
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if strings.TrimSpace(a.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if !c.Type.Valid() {
		return ErrInvalidEntryType
	}
	return nil
}

func (r Recipient) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidEntryType
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
