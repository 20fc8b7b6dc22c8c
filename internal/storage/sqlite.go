package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"centime/internal/core"

	_ "modernc.org/sqlite"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so every query method works
// identically inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
	q  dbtx
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the database at dbPath and runs
// pending migrations.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, q: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InTx runs fn against a transaction-bound store. Nested calls reuse the
// surrounding transaction.
func (s *SQLiteStore) InTx(ctx context.Context, fn func(Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := &SQLiteStore{db: s.db, q: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func notFound(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFoundf(resource)
	}
	return err
}

// Users

func (s *SQLiteStore) CreateUser(ctx context.Context, u core.User) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (core.User, error) {
	var u core.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &createdAt); err != nil {
		return core.User{}, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (core.User, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, email, password_hash, first_name, last_name, created_at FROM users WHERE id = ?`, id)
	u, err := s.scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return u, nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (core.User, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, email, password_hash, first_name, last_name, created_at FROM users WHERE email = ?`, email)
	u, err := s.scanUser(row)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return u, nil
}

// Sessions

func (s *SQLiteStore) CreateSession(ctx context.Context, sess core.Session) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID, sess.ExpiresAt.Format(time.RFC3339), sess.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SessionByToken(ctx context.Context, token string) (core.Session, error) {
	var sess core.Session
	var expiresAt, createdAt string
	err := s.q.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ?`, token).
		Scan(&sess.Token, &sess.UserID, &expiresAt, &createdAt)
	if err != nil {
		return core.Session{}, notFound(err, "session")
	}
	sess.ExpiresAt, _ = time.Parse(time.RFC3339, expiresAt)
	sess.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return sess, nil
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, token string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Accounts

func (s *SQLiteStore) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, name, type, balance_cents, currency, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, string(a.Type), a.Balance.Cents, a.Currency,
		a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func scanAccount(scan func(...any) error) (core.Account, error) {
	var a core.Account
	var typ, createdAt, updatedAt string
	if err := scan(&a.ID, &a.UserID, &a.Name, &typ, &a.Balance.Cents, &a.Currency, &createdAt, &updatedAt); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return a, nil
}

const accountColumns = `id, user_id, name, type, balance_cents, currency, created_at, updated_at`

func (s *SQLiteStore) AccountByID(ctx context.Context, id string) (core.Account, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row.Scan)
	if err != nil {
		return core.Account{}, notFound(err, "account")
	}
	return a, nil
}

func (s *SQLiteStore) AccountsByUser(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (s *SQLiteStore) UpdateAccount(ctx context.Context, a core.Account) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE accounts SET name = ?, type = ?, balance_cents = ?, currency = ?, updated_at = ?
		 WHERE id = ?`,
		a.Name, string(a.Type), a.Balance.Cents, a.Currency, a.UpdatedAt.UTC().Format(time.RFC3339), a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteAccount(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// Categories

func (s *SQLiteStore) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Type),
		c.CreatedAt.Format(time.RFC3339), c.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func scanCategory(scan func(...any) error) (core.Category, error) {
	var c core.Category
	var typ, createdAt, updatedAt string
	if err := scan(&c.ID, &c.UserID, &c.Name, &typ, &createdAt, &updatedAt); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return c, nil
}

func (s *SQLiteStore) CategoryByID(ctx context.Context, id string) (core.Category, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, name, type, created_at, updated_at FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row.Scan)
	if err != nil {
		return core.Category{}, notFound(err, "category")
	}
	return c, nil
}

func (s *SQLiteStore) CategoriesByUser(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, name, type, created_at, updated_at FROM categories
		 WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) UpdateCategory(ctx context.Context, c core.Category) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE categories SET name = ?, type = ?, updated_at = ? WHERE id = ?`,
		c.Name, string(c.Type), c.UpdatedAt.UTC().Format(time.RFC3339), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// Recipients

func (s *SQLiteStore) CreateRecipient(ctx context.Context, r core.Recipient) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO recipients (id, user_id, name, created_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.UserID, r.Name, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert recipient: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecipientByID(ctx context.Context, id string) (core.Recipient, error) {
	var r core.Recipient
	var createdAt string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at FROM recipients WHERE id = ?`, id).
		Scan(&r.ID, &r.UserID, &r.Name, &createdAt)
	if err != nil {
		return core.Recipient{}, notFound(err, "recipient")
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return r, nil
}

func (s *SQLiteStore) RecipientsByUser(ctx context.Context, userID string) ([]core.Recipient, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM recipients
		 WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query recipients: %w", err)
	}
	defer rows.Close()

	var recipients []core.Recipient
	for rows.Next() {
		var r core.Recipient
		var createdAt string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

func (s *SQLiteStore) UpdateRecipient(ctx context.Context, r core.Recipient) error {
	_, err := s.q.ExecContext(ctx, `UPDATE recipients SET name = ? WHERE id = ?`, r.Name, r.ID)
	if err != nil {
		return fmt.Errorf("update recipient: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteRecipient(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM recipients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipient: %w", err)
	}
	return nil
}

// Transactions

func (s *SQLiteStore) CreateTransaction(ctx context.Context, t core.Transaction) error {
	recipientID := sql.NullString{String: t.RecipientID, Valid: t.RecipientID != ""}
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, account_id, category_id, recipient_id, date, description, amount_cents, type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.AccountID, t.CategoryID, recipientID, t.Date.String(), t.Description,
		t.Amount.Cents, string(t.Type), t.CreatedAt.Format(time.RFC3339), t.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

const transactionColumns = `t.id, t.user_id, t.account_id, t.category_id, t.recipient_id,
	r.name, t.date, t.description, t.amount_cents, t.type, t.created_at, t.updated_at`

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var t core.Transaction
	var recipientID, recipientName sql.NullString
	var date, typ, createdAt, updatedAt string
	err := scan(&t.ID, &t.UserID, &t.AccountID, &t.CategoryID, &recipientID,
		&recipientName, &date, &t.Description, &t.Amount.Cents, &typ, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.RecipientID = recipientID.String
	t.RecipientName = recipientName.String
	t.Type = core.TransactionType(typ)
	t.Date, _ = core.ParseDate(date)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return t, nil
}

func (s *SQLiteStore) TransactionByID(ctx context.Context, id string) (core.Transaction, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions t
		 LEFT JOIN recipients r ON r.id = t.recipient_id
		 WHERE t.id = ?`, id)
	t, err := scanTransaction(row.Scan)
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction")
	}
	return t, nil
}

func (s *SQLiteStore) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *SQLiteStore) TransactionsByUser(ctx context.Context, userID string) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions t
		 LEFT JOIN recipients r ON r.id = t.recipient_id
		 WHERE t.user_id = ? ORDER BY t.date DESC, t.created_at DESC`, userID)
}

func (s *SQLiteStore) TransactionsInRange(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT `+transactionColumns+` FROM transactions t
		 LEFT JOIN recipients r ON r.id = t.recipient_id
		 WHERE t.user_id = ? AND t.date >= ? AND t.date <= ?
		 ORDER BY t.date, t.created_at`, userID, from.String(), to.String())
}

func (s *SQLiteStore) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	recipientID := sql.NullString{String: t.RecipientID, Valid: t.RecipientID != ""}
	_, err := s.q.ExecContext(ctx,
		`UPDATE transactions SET account_id = ?, category_id = ?, recipient_id = ?, date = ?,
		 description = ?, amount_cents = ?, type = ?, updated_at = ? WHERE id = ?`,
		t.AccountID, t.CategoryID, recipientID, t.Date.String(), t.Description,
		t.Amount.Cents, string(t.Type), t.UpdatedAt.UTC().Format(time.RFC3339), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CountTransactionsByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count transactions by category: %w", err)
	}
	return count, nil
}

// Aggregates

func (s *SQLiteStore) SumAmounts(ctx context.Context, userID string, txType core.TransactionType, from, to core.Date) (core.Money, error) {
	var cents int64
	err := s.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
		 WHERE user_id = ? AND type = ? AND date >= ? AND date <= ?`,
		userID, string(txType), from.String(), to.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum amounts: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (s *SQLiteStore) SumByCategory(ctx context.Context, userID string, txType core.TransactionType, from, to core.Date) ([]core.CategoryTotal, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT t.category_id, c.name, SUM(t.amount_cents) FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND t.type = ? AND t.date >= ? AND t.date <= ?
		 GROUP BY t.category_id, c.name
		 ORDER BY c.name`,
		userID, string(txType), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &ct.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func (s *SQLiteStore) SumByAccount(ctx context.Context, userID string, txType core.TransactionType, from, to core.Date) ([]core.AccountTotal, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT t.account_id, a.name, a.currency, SUM(t.amount_cents) FROM transactions t
		 JOIN accounts a ON a.id = t.account_id
		 WHERE t.user_id = ? AND t.type = ? AND t.date >= ? AND t.date <= ?
		 GROUP BY t.account_id, a.name, a.currency
		 ORDER BY a.name`,
		userID, string(txType), from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("sum by account: %w", err)
	}
	defer rows.Close()

	var totals []core.AccountTotal
	for rows.Next() {
		var at core.AccountTotal
		if err := rows.Scan(&at.AccountID, &at.AccountName, &at.Currency, &at.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan account total: %w", err)
		}
		totals = append(totals, at)
	}
	return totals, rows.Err()
}

func (s *SQLiteStore) TopExpenseCategories(ctx context.Context, userID string, from, to core.Date, limit int) ([]core.CategoryTotal, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT t.category_id, c.name, SUM(t.amount_cents) AS total FROM transactions t
		 JOIN categories c ON c.id = t.category_id
		 WHERE t.user_id = ? AND t.type = 'expense' AND t.date >= ? AND t.date <= ?
		 GROUP BY t.category_id, c.name
		 ORDER BY total DESC, t.category_id
		 LIMIT ?`,
		userID, from.String(), to.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("top expense categories: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.CategoryName, &ct.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}
