package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the SQL ledger store. Amounts are stored as integer
// cents and dates as YYYY-MM-DD text so lexical order is calendar order.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (user_id, category, description, amount_cents, date, payment_method)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Category, e.Description, e.Amount.Cents, e.Date.String(), e.Method)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"user_id", e.UserID,
		"category", e.Category,
		"amount_cents", e.Amount.Cents,
		"date", e.Date.String())
	return id, nil
}

func (r *SQLiteRepository) InsertIncome(ctx context.Context, in core.Income) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO income (user_id, source, amount_cents, date, category, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.UserID, in.Source, in.Amount.Cents, in.Date.String(), in.Category, in.Notes)
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("income id: %w", err)
	}

	slog.DebugContext(ctx, "Income saved to SQLite",
		"id", id,
		"user_id", in.UserID,
		"source", in.Source,
		"amount_cents", in.Amount.Cents,
		"date", in.Date.String())
	return id, nil
}

func (r *SQLiteRepository) InsertTransactionMirror(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	var sourceID sql.NullInt64
	if t.SourceID > 0 {
		sourceID = sql.NullInt64{Int64: t.SourceID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, type, category, description, amount_cents, date, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, string(t.Type), t.Category, t.Description, t.Amount.Cents, t.Date.String(), sourceID)
	if err != nil {
		return 0, fmt.Errorf("insert transaction mirror: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) SumIncome(ctx context.Context, userID int64, rng ledger.DateRange) (core.Money, error) {
	where, args := rangeClause("user_id = ?", []any{userID}, rng)
	return r.sum(ctx, "SELECT COALESCE(SUM(amount_cents), 0) FROM income WHERE "+where, args)
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID int64, category string, rng ledger.DateRange) (core.Money, error) {
	cond := "user_id = ?"
	args := []any{userID}
	if category != "" {
		cond += " AND category = ? COLLATE NOCASE"
		args = append(args, category)
	}
	where, args := rangeClause(cond, args, rng)
	return r.sum(ctx, "SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE "+where, args)
}

func (r *SQLiteRepository) sum(ctx context.Context, query string, args []any) (core.Money, error) {
	var cents int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return core.Money{}, fmt.Errorf("sum amounts: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func rangeClause(cond string, args []any, rng ledger.DateRange) (string, []any) {
	if !rng.From.IsZero() {
		cond += " AND date >= ?"
		args = append(args, rng.From.String())
	}
	if !rng.To.IsZero() {
		cond += " AND date <= ?"
		args = append(args, rng.To.String())
	}
	return cond, args
}

func (r *SQLiteRepository) ExpenseBreakdown(ctx context.Context, userID int64, limit int) ([]core.CategoryAmount, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents) AS total
		FROM expenses
		WHERE user_id = ?
		GROUP BY category
		ORDER BY total DESC, category ASC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query expense breakdown: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryAmount
	for rows.Next() {
		var ca core.CategoryAmount
		if err := rows.Scan(&ca.Name, &ca.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan breakdown row: %w", err)
		}
		out = append(out, ca)
	}
	return out, rows.Err()
}

const transactionColumns = "id, user_id, type, category, description, amount_cents, date, COALESCE(source_id, 0)"

func (r *SQLiteRepository) RecentTransactions(ctx context.Context, userID int64, n int) ([]core.Transaction, error) {
	if n <= 0 {
		n = -1
	}
	return r.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, id DESC
		LIMIT ?`, userID, n)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return r.RecentTransactions(ctx, userID, 0)
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t    core.Transaction
			typ  string
			date string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &t.Category, &t.Description, &t.Amount.Cents, &date, &t.SourceID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("transaction %d has bad date %q: %w", t.ID, date, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const expenseColumns = "id, user_id, category, description, amount_cents, date, payment_method"

func scanExpense(sc interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e    core.Expense
		date string
	)
	if err := sc.Scan(&e.ID, &e.UserID, &e.Category, &e.Description, &e.Amount.Cents, &date, &e.Method); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d has bad date %q: %w", e.ID, date, err)
	}
	e.Date = d
	return e, nil
}

const incomeColumns = "id, user_id, source, amount_cents, date, category, notes"

func scanIncome(sc interface{ Scan(...any) error }) (core.Income, error) {
	var (
		in   core.Income
		date string
	)
	if err := sc.Scan(&in.ID, &in.UserID, &in.Source, &in.Amount.Cents, &date, &in.Category, &in.Notes); err != nil {
		return core.Income{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Income{}, fmt.Errorf("income %d has bad date %q: %w", in.ID, date, err)
	}
	in.Date = d
	return in, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses
		WHERE user_id = ?
		ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, userID int64) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+incomeColumns+`
		FROM income
		WHERE user_id = ?
		ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.Income, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+incomeColumns+" FROM income WHERE id = ?", id)
	in, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Income{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %d: %w", id, err)
	}
	return in, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) error {
	return r.deleteWithMirror(ctx, "expenses", core.TypeExpense, userID, id)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, userID, id int64) error {
	return r.deleteWithMirror(ctx, "income", core.TypeIncome, userID, id)
}

// deleteWithMirror removes a primary row and its mirror in one transaction.
func (r *SQLiteRepository) deleteWithMirror(ctx context.Context, table string, typ core.TransactionType, userID, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM transactions WHERE type = ? AND source_id = ?", string(typ), id); err != nil {
		return fmt.Errorf("delete mirror: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) HasMirror(ctx context.Context, ref core.SourceRef) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM transactions WHERE type = ? AND source_id = ?)",
		string(ref.Type), ref.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check mirror: %w", err)
	}
	return exists == 1, nil
}

func (r *SQLiteRepository) MissingMirrors(ctx context.Context, limit int) ([]core.SourceRef, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT 'expense', e.id FROM expenses e
		LEFT JOIN transactions t ON t.type = 'expense' AND t.source_id = e.id
		WHERE t.id IS NULL
		UNION ALL
		SELECT 'income', i.id FROM income i
		LEFT JOIN transactions t ON t.type = 'income' AND t.source_id = i.id
		WHERE t.id IS NULL
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query missing mirrors: %w", err)
	}
	defer rows.Close()

	var out []core.SourceRef
	for rows.Next() {
		var (
			typ string
			ref core.SourceRef
		)
		if err := rows.Scan(&typ, &ref.ID); err != nil {
			return nil, fmt.Errorf("scan missing mirror: %w", err)
		}
		ref.Type = core.TransactionType(typ)
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (int64, error) {
	if err := u.Validate(); err != nil {
		return 0, err
	}
	var taken int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE name = ? OR email = ? COLLATE NOCASE",
		u.Name, u.Email).Scan(&taken)
	if err != nil {
		return 0, fmt.Errorf("check existing user: %w", err)
	}
	if taken > 0 {
		return 0, ledger.ErrUserExists
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?)",
		u.Name, strings.TrimSpace(u.Email), u.PasswordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ledger.ErrUserExists
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) FindUserByName(ctx context.Context, name string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash FROM users WHERE name = ?", name).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}
