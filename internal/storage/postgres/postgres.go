// Package postgres implements the storage contracts on PostgreSQL. All
// multi-row operations run inside transactions; balance guards live in the
// SQL itself so concurrent connections cannot drive an amount negative.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/novachain/admin-backend/internal/domain/admin"
	"github.com/novachain/admin-backend/internal/storage"
)

// Store wraps the database handle. It implements every storage contract.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a Store on an open handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Connect opens and pings a PostgreSQL connection.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- AdminStore ---

func (s *Store) GetAdmin(ctx context.Context, email string) (*admin.Admin, error) {
	var a admin.Admin
	err := s.db.GetContext(ctx, &a,
		`SELECT email, password_hash, role, created_at, updated_at FROM admins WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &a, nil
}

func (s *Store) CreateAdmin(ctx context.Context, a *admin.Admin) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO admins (email, password_hash, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role, updated_at = NOW()`,
		a.Email, a.PasswordHash, a.Role)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (s *Store) UpdateAdminPassword(ctx context.Context, email, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE admins SET password_hash = $2, updated_at = NOW() WHERE email = $1`, email, passwordHash)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
