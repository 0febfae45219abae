package accounts

import (
	"context"
	"errors"
	"fmt"

	"paginaflex/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

type Store interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *User, plain string) error
	UpsertClient(ctx context.Context, in ClientUpsert) (*User, bool, error)
	GetClientProfile(ctx context.Context, userID int64) (*ClientProfile, error)
	SaveRefreshToken(ctx context.Context, userID int64, token string) error
	GetRefreshToken(ctx context.Context, userID int64) (string, error)
	DeleteRefreshToken(ctx context.Context, userID int64) error
}

type Repository struct {
	db dbx.Querier
}

var _ Store = (*Repository)(nil)

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, username, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password.hash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active`, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, err
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 AND is_active`, username))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, err
}

func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("username exists: %w", err)
	}
	return exists, nil
}

// Create inserts u with plain as its password. u.ID and timestamps are
// filled from the inserted row.
func (r *Repository) Create(ctx context.Context, u *User, plain string) error {
	if err := u.Password.Set(plain); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if u.Role == "" {
		u.Role = RoleClient
	}

	query := `
INSERT INTO users (username, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, is_active, created_at, updated_at`
	err := r.db.QueryRow(ctx, query, u.Username, u.Email, u.Password.hash, u.Role).
		Scan(&u.ID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpsertClient creates or updates the account and client profile for
// in.Username in one transaction and reports whether the account is new.
func (r *Repository) UpsertClient(ctx context.Context, in ClientUpsert) (*User, bool, error) {
	var (
		user    *User
		created bool
	)

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		existing, err := scanUser(tx.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE username = $1 FOR UPDATE`, in.Username))
		switch {
		case errors.Is(err, ErrNotFound):
			user = &User{Username: in.Username, Email: in.Email, Role: RoleClient}
			plain := in.Password
			if plain == "" {
				plain = in.Username
			}
			if err := NewRepository(tx).Create(ctx, user, plain); err != nil {
				return err
			}
			created = true
		case err != nil:
			return fmt.Errorf("lock user: %w", err)
		default:
			user = existing
			if in.Email != "" {
				user.Email = in.Email
			}
			if in.UpdatePassword && in.Password != "" {
				if err := user.Password.Set(in.Password); err != nil {
					return fmt.Errorf("hash password: %w", err)
				}
			}
			_, err := tx.Exec(ctx, `
UPDATE users SET email = $2, password_hash = $3, updated_at = now()
WHERE id = $1`, user.ID, user.Email, user.Password.hash)
			if err != nil {
				return fmt.Errorf("update user: %w", err)
			}
		}

		p := in.Profile
		_, err = tx.Exec(ctx, `
INSERT INTO client_profiles (user_id, name, contact, client_type, province, address, phones, tax_id, discount, tax_condition)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (user_id) DO UPDATE SET
	name          = EXCLUDED.name,
	contact       = EXCLUDED.contact,
	client_type   = EXCLUDED.client_type,
	province      = EXCLUDED.province,
	address       = EXCLUDED.address,
	phones        = EXCLUDED.phones,
	tax_id        = EXCLUDED.tax_id,
	discount      = EXCLUDED.discount,
	tax_condition = EXCLUDED.tax_condition,
	updated_at    = now()`,
			user.ID, p.Name, p.Contact, p.ClientType, p.Province, p.Address, p.Phones, p.TaxID,
			p.Discount, p.TaxCondition)
		if err != nil {
			return fmt.Errorf("upsert client profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

func (r *Repository) GetClientProfile(ctx context.Context, userID int64) (*ClientProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	p := &ClientProfile{}
	err := r.db.QueryRow(ctx, `
SELECT user_id, name, contact, client_type, province, address, phones, tax_id, discount, tax_condition
FROM client_profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.Name, &p.Contact, &p.ClientType, &p.Province, &p.Address, &p.Phones,
			&p.TaxID, &p.Discount, &p.TaxCondition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoClientProfile
		}
		return nil, fmt.Errorf("get client profile: %w", err)
	}
	return p, nil
}

func (r *Repository) SaveRefreshToken(ctx context.Context, userID int64, token string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, userID, token)
	return err
}

func (r *Repository) GetRefreshToken(ctx context.Context, userID int64) (string, error) {
	var token *string
	err := r.db.QueryRow(ctx, `SELECT refresh_token FROM users WHERE id = $1`, userID).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	if token == nil {
		return "", nil
	}
	return *token, nil
}

func (r *Repository) DeleteRefreshToken(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET refresh_token = NULL WHERE id = $1`, userID)
	return err
}
