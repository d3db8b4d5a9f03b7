package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository owns the durable user and phone records.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]User, error)
	DeleteByEmail(ctx context.Context, email string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const userColumns = "id, name, email, password_hash, created, modified, last_login, token, is_active"

// Create inserts the user and its phones in one transaction. A unique
// violation on the email column is the authoritative duplicate signal
// and comes back as ErrEmailExists.
func (r *repository) Create(ctx context.Context, u *User) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Created, u.Modified, u.LastLogin, u.Token, u.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}

	for i := range u.Phones {
		p := &u.Phones[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO phones (id, user_id, number, city_code, country_code)
			 VALUES ($1, $2, $3, $4, $5)`,
			p.ID, u.ID, p.Number, p.CityCode, p.CountryCode)
		if err != nil {
			return fmt.Errorf("failed to insert phone: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Created, &u.Modified, &u.LastLogin, &u.Token, &u.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	phones, err := r.phonesByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Phones = phones

	return &u, nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Created, &u.Modified, &u.LastLogin, &u.Token, &u.IsActive)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}

	phonesByUser, err := r.allPhones(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Phones = phonesByUser[users[i].ID]
	}

	return users, nil
}

// DeleteByEmail removes the user row; the phones go with it through the
// ON DELETE CASCADE constraint.
func (r *repository) DeleteByEmail(ctx context.Context, email string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete user by email: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) phonesByUser(ctx context.Context, userID uuid.UUID) ([]Phone, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, number, city_code, country_code FROM phones WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query phones: %w", err)
	}
	defer rows.Close()

	var phones []Phone
	for rows.Next() {
		var p Phone
		if err := rows.Scan(&p.ID, &p.Number, &p.CityCode, &p.CountryCode); err != nil {
			return nil, fmt.Errorf("failed to scan phone row: %w", err)
		}
		phones = append(phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate phone rows: %w", err)
	}

	return phones, nil
}

func (r *repository) allPhones(ctx context.Context) (map[uuid.UUID][]Phone, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id, id, number, city_code, country_code FROM phones ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query phones: %w", err)
	}
	defer rows.Close()

	phones := make(map[uuid.UUID][]Phone)
	for rows.Next() {
		var ownerID uuid.UUID
		var p Phone
		if err := rows.Scan(&ownerID, &p.ID, &p.Number, &p.CityCode, &p.CountryCode); err != nil {
			return nil, fmt.Errorf("failed to scan phone row: %w", err)
		}
		phones[ownerID] = append(phones[ownerID], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate phone rows: %w", err)
	}

	return phones, nil
}
