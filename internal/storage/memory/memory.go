// Package memory provides an in-memory Store used by tests and the dev
// backend. Semantics match the SQLite store, including all-or-nothing InTx
// behavior, which is implemented with a snapshot-and-restore of the data set.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"centime/internal/core"
	"centime/internal/storage"
)

type data struct {
	users        map[string]core.User
	sessions     map[string]core.Session
	accounts     map[string]core.Account
	categories   map[string]core.Category
	recipients   map[string]core.Recipient
	transactions map[string]core.Transaction
	seq          int64
	order        map[string]int64 // insertion order for stable secondary sort
}

// Store is the in-memory implementation of storage.Store.
type Store struct {
	mu sync.Mutex
	d  *data
	// inTx marks transaction views handed to InTx callbacks; they share the
	// parent's data and must not re-lock the mutex the parent holds.
	inTx bool
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{d: &data{
		users:        make(map[string]core.User),
		sessions:     make(map[string]core.Session),
		accounts:     make(map[string]core.Account),
		categories:   make(map[string]core.Category),
		recipients:   make(map[string]core.Recipient),
		transactions: make(map[string]core.Transaction),
		order:        make(map[string]int64),
	}}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (d *data) snapshot() *data {
	clone := &data{
		users:        make(map[string]core.User, len(d.users)),
		sessions:     make(map[string]core.Session, len(d.sessions)),
		accounts:     make(map[string]core.Account, len(d.accounts)),
		categories:   make(map[string]core.Category, len(d.categories)),
		recipients:   make(map[string]core.Recipient, len(d.recipients)),
		transactions: make(map[string]core.Transaction, len(d.transactions)),
		seq:          d.seq,
		order:        make(map[string]int64, len(d.order)),
	}
	for k, v := range d.users {
		clone.users[k] = v
	}
	for k, v := range d.sessions {
		clone.sessions[k] = v
	}
	for k, v := range d.accounts {
		clone.accounts[k] = v
	}
	for k, v := range d.categories {
		clone.categories[k] = v
	}
	for k, v := range d.recipients {
		clone.recipients[k] = v
	}
	for k, v := range d.transactions {
		clone.transactions[k] = v
	}
	for k, v := range d.order {
		clone.order[k] = v
	}
	return clone
}

// InTx holds the store lock for the whole callback and restores the previous
// data set when fn fails, so partial writes are never observable.
func (s *Store) InTx(ctx context.Context, fn func(storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.d.snapshot()
	view := &Store{d: s.d, inTx: true}
	if err := fn(view); err != nil {
		*s.d = *snap
		return err
	}
	return nil
}

func (s *Store) track(id string) {
	s.d.seq++
	s.d.order[id] = s.d.seq
}

// Users

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	defer s.lock()()
	s.d.users[u.ID] = u
	s.track(u.ID)
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (core.User, error) {
	defer s.lock()()
	u, ok := s.d.users[id]
	if !ok {
		return core.User{}, core.NotFoundf("user")
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (core.User, error) {
	defer s.lock()()
	for _, u := range s.d.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, core.NotFoundf("user")
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, sess core.Session) error {
	defer s.lock()()
	s.d.sessions[sess.Token] = sess
	return nil
}

func (s *Store) SessionByToken(ctx context.Context, token string) (core.Session, error) {
	defer s.lock()()
	sess, ok := s.d.sessions[token]
	if !ok {
		return core.Session{}, core.NotFoundf("session")
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	defer s.lock()()
	delete(s.d.sessions, token)
	return nil
}

// Accounts

func (s *Store) CreateAccount(ctx context.Context, a core.Account) error {
	defer s.lock()()
	s.d.accounts[a.ID] = a
	s.track(a.ID)
	return nil
}

func (s *Store) AccountByID(ctx context.Context, id string) (core.Account, error) {
	defer s.lock()()
	a, ok := s.d.accounts[id]
	if !ok {
		return core.Account{}, core.NotFoundf("account")
	}
	return a, nil
}

func (s *Store) AccountsByUser(ctx context.Context, userID string) ([]core.Account, error) {
	defer s.lock()()
	var accounts []core.Account
	for _, a := range s.d.accounts {
		if a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return s.d.order[accounts[i].ID] < s.d.order[accounts[j].ID]
	})
	return accounts, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a core.Account) error {
	defer s.lock()()
	if _, ok := s.d.accounts[a.ID]; !ok {
		return core.NotFoundf("account")
	}
	s.d.accounts[a.ID] = a
	return nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	defer s.lock()()
	delete(s.d.accounts, id)
	// Cascade, matching the schema's ON DELETE CASCADE.
	for txID, t := range s.d.transactions {
		if t.AccountID == id {
			delete(s.d.transactions, txID)
		}
	}
	return nil
}

// Categories

func (s *Store) CreateCategory(ctx context.Context, c core.Category) error {
	defer s.lock()()
	s.d.categories[c.ID] = c
	s.track(c.ID)
	return nil
}

func (s *Store) CategoryByID(ctx context.Context, id string) (core.Category, error) {
	defer s.lock()()
	c, ok := s.d.categories[id]
	if !ok {
		return core.Category{}, core.NotFoundf("category")
	}
	return c, nil
}

func (s *Store) CategoriesByUser(ctx context.Context, userID string) ([]core.Category, error) {
	defer s.lock()()
	var categories []core.Category
	for _, c := range s.d.categories {
		if c.UserID == userID {
			categories = append(categories, c)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		return s.d.order[categories[i].ID] < s.d.order[categories[j].ID]
	})
	return categories, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	defer s.lock()()
	if _, ok := s.d.categories[c.ID]; !ok {
		return core.NotFoundf("category")
	}
	s.d.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	defer s.lock()()
	delete(s.d.categories, id)
	return nil
}

// Recipients

func (s *Store) CreateRecipient(ctx context.Context, r core.Recipient) error {
	defer s.lock()()
	s.d.recipients[r.ID] = r
	s.track(r.ID)
	return nil
}

func (s *Store) RecipientByID(ctx context.Context, id string) (core.Recipient, error) {
	defer s.lock()()
	r, ok := s.d.recipients[id]
	if !ok {
		return core.Recipient{}, core.NotFoundf("recipient")
	}
	return r, nil
}

func (s *Store) RecipientsByUser(ctx context.Context, userID string) ([]core.Recipient, error) {
	defer s.lock()()
	var recipients []core.Recipient
	for _, r := range s.d.recipients {
		if r.UserID == userID {
			recipients = append(recipients, r)
		}
	}
	// Newest-first.
	sort.Slice(recipients, func(i, j int) bool {
		return s.d.order[recipients[i].ID] > s.d.order[recipients[j].ID]
	})
	return recipients, nil
}

func (s *Store) UpdateRecipient(ctx context.Context, r core.Recipient) error {
	defer s.lock()()
	if _, ok := s.d.recipients[r.ID]; !ok {
		return core.NotFoundf("recipient")
	}
	s.d.recipients[r.ID] = r
	return nil
}

func (s *Store) DeleteRecipient(ctx context.Context, id string) error {
	defer s.lock()()
	delete(s.d.recipients, id)
	// Null out references, matching ON DELETE SET NULL.
	for txID, t := range s.d.transactions {
		if t.RecipientID == id {
			t.RecipientID = ""
			t.RecipientName = ""
			s.d.transactions[txID] = t
		}
	}
	return nil
}

// Transactions

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) error {
	defer s.lock()()
	s.d.transactions[t.ID] = t
	s.track(t.ID)
	return nil
}

func (s *Store) withRecipientName(t core.Transaction) core.Transaction {
	if t.RecipientID != "" {
		if r, ok := s.d.recipients[t.RecipientID]; ok {
			t.RecipientName = r.Name
		}
	}
	return t
}

func (s *Store) TransactionByID(ctx context.Context, id string) (core.Transaction, error) {
	defer s.lock()()
	t, ok := s.d.transactions[id]
	if !ok {
		return core.Transaction{}, core.NotFoundf("transaction")
	}
	return s.withRecipientName(t), nil
}

func (s *Store) TransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	defer s.lock()()
	var transactions []core.Transaction
	for _, t := range s.d.transactions {
		if t.UserID == userID {
			transactions = append(transactions, s.withRecipientName(t))
		}
	}
	sort.Slice(transactions, func(i, j int) bool {
		if !transactions[i].Date.Equal(transactions[j].Date.Time) {
			return transactions[i].Date.After(transactions[j].Date)
		}
		return s.d.order[transactions[i].ID] > s.d.order[transactions[j].ID]
	})
	return transactions, nil
}

func inRange(t core.Transaction, from, to core.Date) bool {
	return !t.Date.Before(from) && !t.Date.After(to)
}

func (s *Store) TransactionsInRange(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error) {
	defer s.lock()()
	var transactions []core.Transaction
	for _, t := range s.d.transactions {
		if t.UserID == userID && inRange(t, from, to) {
			transactions = append(transactions, s.withRecipientName(t))
		}
	}
	sort.Slice(transactions, func(i, j int) bool {
		if !transactions[i].Date.Equal(transactions[j].Date.Time) {
			return transactions[i].Date.Before(transactions[j].Date)
		}
		return s.d.order[transactions[i].ID] < s.d.order[transactions[j].ID]
	})
	return transactions, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	defer s.lock()()
	if _, ok := s.d.transactions[t.ID]; !ok {
		return core.NotFoundf("transaction")
	}
	t.RecipientName = ""
	s.d.transactions[t.ID] = t
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	defer s.lock()()
	delete(s.d.transactions, id)
	return nil
}

func (s *Store) CountTransactionsByCategory(ctx context.Context, categoryID string) (int64, error) {
	defer s.lock()()
	var count int64
	for _, t := range s.d.transactions {
		if t.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// Aggregates

func (s *Store) SumAmounts(ctx context.Context, userID string, txType core.TransactionType, from, to core.Date) (core.Money, error) {
	defer s.lock()()
	var cents int64
	for _, t := range s.d.transactions {
		if t.UserID == userID && t.Type == txType && inRange(t, from, to) {
			cents += t.Amount.Cents
		}
	}
	return core.Money{Cents: cents}, nil
}

func (s *Store) SumByCategory(ctx context.Context, userID string, txType core.TransactionType, from, to core.Date) ([]core.CategoryTotal, error) {
	defer s.lock()()
	sums := make(map[string]int64)
	for _, t := range s.d.transactions {
		if t.UserID == userID && t.Type == txType && inRange(t, from, to) {
			sums[t.CategoryID] += t.Amount.Cents
		}
	}
	var totals []core.CategoryTotal
	for id, cents := range sums {
		totals = append(totals, core.CategoryTotal{
			CategoryID:   id,
			CategoryName: s.d.categories[id].Name,
			Amount:       core.Money{Cents: cents},
		})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].CategoryName < totals[j].CategoryName
	})
	return totals, nil
}

func (s *Store) SumByAccount(ctx context.Context, userID string, txType core.TransactionType, from, to core.Date) ([]core.AccountTotal, error) {
	defer s.lock()()
	sums := make(map[string]int64)
	for _, t := range s.d.transactions {
		if t.UserID == userID && t.Type == txType && inRange(t, from, to) {
			sums[t.AccountID] += t.Amount.Cents
		}
	}
	var totals []core.AccountTotal
	for id, cents := range sums {
		a := s.d.accounts[id]
		totals = append(totals, core.AccountTotal{
			AccountID:   id,
			AccountName: a.Name,
			Currency:    a.Currency,
			Amount:      core.Money{Cents: cents},
		})
	}
	sort.Slice(totals, func(i, j int) bool {
		return totals[i].AccountName < totals[j].AccountName
	})
	return totals, nil
}

func (s *Store) TopExpenseCategories(ctx context.Context, userID string, from, to core.Date, limit int) ([]core.CategoryTotal, error) {
	totals, err := s.SumByCategory(ctx, userID, core.TypeExpense, from, to)
	if err != nil {
		return nil, err
	}
	// Descending by amount; ties broken by category id for a stable order.
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Amount.Cents != totals[j].Amount.Cents {
			return totals[i].Amount.Cents > totals[j].Amount.Cents
		}
		return totals[i].CategoryID < totals[j].CategoryID
	})
	if len(totals) > limit {
		totals = totals[:limit]
	}
	return totals, nil
}
