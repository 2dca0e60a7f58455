// Package sqlite keeps the ledger in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"haushaltskasse/internal/core"
	"haushaltskasse/internal/storage"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

var _ storage.Store = (*Store)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("SQLite store ready", "path", dbPath)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const userColumns = `id, username, color, setup_complete, created_at`

func (s *Store) Users(ctx context.Context) ([]core.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collect(rows, scanUser)
}

func (s *Store) UserByID(ctx context.Context, id string) (core.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %q: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) SaveUser(ctx context.Context, u core.User) error {
	if err := saveUser(ctx, s.db, u); err != nil {
		return err
	}
	slog.DebugContext(ctx, "User saved", "user_id", u.ID, "username", u.Username)
	return nil
}

func saveUser(ctx context.Context, q queryer, u core.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users (id, username, color, setup_complete, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			color = excluded.color,
			setup_complete = excluded.setup_complete,
			created_at = excluded.created_at`,
		u.ID, u.Username, u.Color, u.SetupComplete, u.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

const incomeColumns = `id, user_id, description, amount, frequency, payment_day, category, recurring, date`

func (s *Store) Incomes(ctx context.Context) ([]core.Income, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+incomeColumns+` FROM incomes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	return collect(rows, scanIncome)
}

func (s *Store) IncomesByUser(ctx context.Context, userID string) ([]core.Income, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+incomeColumns+` FROM incomes WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes by user: %w", err)
	}
	return collect(rows, scanIncome)
}

func (s *Store) SaveIncome(ctx context.Context, inc core.Income) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireUser(ctx, tx, inc.UserID); err != nil {
			return err
		}
		return saveIncome(ctx, tx, inc)
	})
}

func saveIncome(ctx context.Context, q queryer, inc core.Income) error {
	var date sql.NullString
	if inc.Date != nil {
		date = sql.NullString{String: inc.Date.String(), Valid: true}
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO incomes (`+incomeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			description = excluded.description,
			amount = excluded.amount,
			frequency = excluded.frequency,
			payment_day = excluded.payment_day,
			category = excluded.category,
			recurring = excluded.recurring,
			date = excluded.date`,
		inc.ID, inc.UserID, inc.Description, inc.Amount.String(), string(inc.Frequency),
		inc.PaymentDay, inc.Category, inc.Recurring, date)
	if err != nil {
		return fmt.Errorf("save income: %w", err)
	}
	return nil
}

func (s *Store) DeleteIncome(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "incomes", userID, id)
}

const expenseColumns = `id, user_id, description, amount, category, subcategory, recurring, frequency, date, shared`

func (s *Store) Expenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return collect(rows, scanExpense)
}

func (s *Store) ExpensesByUser(ctx context.Context, userID string) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses by user: %w", err)
	}
	return collect(rows, scanExpense)
}

func (s *Store) SaveExpense(ctx context.Context, e core.Expense) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireUser(ctx, tx, e.UserID); err != nil {
			return err
		}
		return saveExpense(ctx, tx, e)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount", e.Amount.String(),
		"category", e.Category,
		"date", e.Date.String())
	return nil
}

func saveExpense(ctx context.Context, q queryer, e core.Expense) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			description = excluded.description,
			amount = excluded.amount,
			category = excluded.category,
			subcategory = excluded.subcategory,
			recurring = excluded.recurring,
			frequency = excluded.frequency,
			date = excluded.date,
			shared = excluded.shared`,
		e.ID, e.UserID, e.Description, e.Amount.String(), e.Category, e.Subcategory,
		e.Recurring, string(e.Frequency), e.Date.String(), e.Shared)
	if err != nil {
		return fmt.Errorf("save expense: %w", err)
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	return s.deleteOwned(ctx, "expenses", userID, id)
}

const goalColumns = `id, user_id, monthly_target, description`

func (s *Store) SavingsGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM savings_goals ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	return collect(rows, scanGoal)
}

func (s *Store) SavingsGoalByUser(ctx context.Context, userID string) (*core.SavingsGoal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM savings_goals WHERE user_id = ?`, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get savings goal: %w", err)
	}
	return &g, nil
}

func (s *Store) SaveSavingsGoal(ctx context.Context, g core.SavingsGoal) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := requireUser(ctx, tx, g.UserID); err != nil {
			return err
		}
		return saveGoal(ctx, tx, g)
	})
}

func saveGoal(ctx context.Context, q queryer, g core.SavingsGoal) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO savings_goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			id = excluded.id,
			monthly_target = excluded.monthly_target,
			description = excluded.description`,
		g.ID, g.UserID, g.MonthlyTarget.String(), g.Description)
	if err != nil {
		return fmt.Errorf("save savings goal: %w", err)
	}
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	err := s.inTx(ctx, clearAll)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "All ledger data cleared")
	return nil
}

func clearAll(tx *sql.Tx) error {
	for _, table := range []string{"savings_goals", "expenses", "incomes", "users"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

func (s *Store) ReplaceAll(ctx context.Context, snap storage.Snapshot) error {
	if err := snap.CheckReferences(); err != nil {
		return err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := clearAll(tx); err != nil {
			return err
		}
		for _, u := range snap.Users {
			if err := saveUser(ctx, tx, u); err != nil {
				return err
			}
		}
		for _, inc := range snap.Incomes {
			if err := saveIncome(ctx, tx, inc); err != nil {
				return err
			}
		}
		for _, e := range snap.Expenses {
			if err := saveExpense(ctx, tx, e); err != nil {
				return err
			}
		}
		for _, g := range snap.SavingsGoals {
			if err := saveGoal(ctx, tx, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Ledger data replaced",
		"users", len(snap.Users),
		"incomes", len(snap.Incomes),
		"expenses", len(snap.Expenses),
		"savings_goals", len(snap.SavingsGoals))
	return nil
}

func (s *Store) deleteOwned(ctx context.Context, table, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", table, id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func requireUser(ctx context.Context, q queryer, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %q", storage.ErrUnknownUser, id)
	}
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func scanUser(row scanner) (core.User, error) {
	var u core.User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.Color, &u.SetupComplete, &created); err != nil {
		return core.User{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return core.User{}, fmt.Errorf("parse created_at of user %s: %w", u.ID, err)
	}
	u.CreatedAt = t
	return u, nil
}

func scanIncome(row scanner) (core.Income, error) {
	var inc core.Income
	var amount, freq string
	var date sql.NullString
	if err := row.Scan(&inc.ID, &inc.UserID, &inc.Description, &amount, &freq,
		&inc.PaymentDay, &inc.Category, &inc.Recurring, &date); err != nil {
		return core.Income{}, err
	}
	var err error
	if inc.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Income{}, fmt.Errorf("parse amount of income %s: %w", inc.ID, err)
	}
	inc.Frequency = core.Frequency(freq)
	if date.Valid {
		d, err := core.ParseDate(date.String)
		if err != nil {
			return core.Income{}, fmt.Errorf("parse date of income %s: %w", inc.ID, err)
		}
		inc.Date = &d
	}
	return inc, nil
}

func scanExpense(row scanner) (core.Expense, error) {
	var e core.Expense
	var amount, freq, date string
	if err := row.Scan(&e.ID, &e.UserID, &e.Description, &amount, &e.Category, &e.Subcategory,
		&e.Recurring, &freq, &date, &e.Shared); err != nil {
		return core.Expense{}, err
	}
	var err error
	if e.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Expense{}, fmt.Errorf("parse amount of expense %s: %w", e.ID, err)
	}
	e.Frequency = core.Frequency(freq)
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.Expense{}, fmt.Errorf("parse date of expense %s: %w", e.ID, err)
	}
	return e, nil
}

func scanGoal(row scanner) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	var target string
	if err := row.Scan(&g.ID, &g.UserID, &target, &g.Description); err != nil {
		return core.SavingsGoal{}, err
	}
	var err error
	if g.MonthlyTarget, err = decimal.NewFromString(target); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("parse target of savings goal for %s: %w", g.UserID, err)
	}
	return g, nil
}
