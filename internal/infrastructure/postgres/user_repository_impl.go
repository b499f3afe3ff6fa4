package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-user-identity/internal/domain/entity"
	"github.com/oksasatya/go-user-identity/internal/domain/errs"
	"github.com/oksasatya/go-user-identity/internal/domain/repository"
)

const pgUniqueViolation = "23505"

const userColumns = `id, name, email, COALESCE(password, ''), COALESCE(register, ''), register_type,
	COALESCE(external_id, ''), birth_date, avatar_url, active, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password, register, register_type, external_id, birth_date, avatar_url, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, nullable(u.Password), nullable(u.Register), string(u.RegisterType),
		nullable(u.ExternalID), u.BirthDate, u.AvatarURL, u.Active)

	return mapWriteError(row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, errs.ErrUserNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 AND active`, email)
}

func (r *UserRepository) GetByRegister(ctx context.Context, register string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE register = $1 AND active`, register)
}

func (r *UserRepository) GetByExternalID(ctx context.Context, registerType entity.RegisterType, externalID string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE register_type = $1 AND external_id = $2 AND active`,
		string(registerType), externalID)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	if !validID(u.ID) {
		return errs.ErrUserNotFound
	}
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $1, email = $2, password = $3, register = $4, external_id = $5,
		    birth_date = $6, avatar_url = $7, active = $8, updated_at = $9
		WHERE id = $10
	`, u.Name, u.Email, nullable(u.Password), nullable(u.Register), nullable(u.ExternalID),
		u.BirthDate, u.AvatarURL, u.Active, u.UpdatedAt, u.ID)
	if err != nil {
		return mapWriteError(err)
	}
	if res.RowsAffected() == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	if !validID(id) {
		return errs.ErrUserNotFound
	}
	res, err := r.pool.Exec(ctx, `UPDATE users SET active = $1, updated_at = now() WHERE id = $2`, active, id)
	if err != nil {
		return mapWriteError(err)
	}
	if res.RowsAffected() == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return errs.ErrUserNotFound
	}
	res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errs.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var registerType string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Register, &registerType,
		&u.ExternalID, &u.BirthDate, &u.AvatarURL, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.RegisterType = entity.RegisterType(registerType)
	return u, nil
}

// mapWriteError turns unique index violations into the matching validation
// error. Two concurrent registrations can both pass the builder's lookups;
// the partial unique indexes settle which one wins.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_email_active_key":
		return errs.ErrDuplicatedEmail
	case "users_register_active_key":
		return errs.ErrDuplicatedRegister
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ repository.UserRepository = (*UserRepository)(nil)

// validID rejects ids the uuid column could never hold, so they read as
// missing instead of failing the query.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
