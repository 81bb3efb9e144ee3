package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gadget-inventory-api/internal/models"

	"go.uber.org/zap"
)

const userSelect = "id, nik, name, position, unit, location, user_type, created_at, updated_at"

// UserRepository persists users. Users and assets are independent: nothing
// here reads or writes the assets table.
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.NIK, &u.Name, &u.Position, &u.Unit, &u.Location, &u.UserType, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if strings.TrimSpace(req.NIK) == "" {
		return nil, invalidArgument("nik is required")
	}
	if req.UserType != models.UserTypeAdmin && req.UserType != models.UserTypeUser {
		return nil, invalidArgument("invalid user_type %q", req.UserType)
	}
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		INSERT INTO users (nik, name, position, unit, location, user_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userSelect,
		req.NIK, req.Name, req.Position, req.Unit, req.Location, req.UserType))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", Classify(err))
	}
	return &u, nil
}

// List returns one page of users, newest first.
func (r *UserRepository) List(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	page, limit := normalizePage(f.Page, f.Limit)
	w := &whereBuilder{}
	if f.Search != "" {
		w.anyILike(f.Search, "name", "nik", "position", "unit", "location")
	}
	if f.UserType != "" {
		w.add("user_type = " + w.arg(f.UserType))
	}
	if f.Unit != "" {
		w.add("unit = " + w.arg(f.Unit))
	}
	if f.Location != "" {
		w.add("location = " + w.arg(f.Location))
	}

	sqlStr := fmt.Sprintf("SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d",
		userSelect, w.sql(), limit, (page-1)*limit)
	rows, err := r.db.QueryContext(ctx, sqlStr, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByNik returns nil, nil when no user carries nik.
func (r *UserRepository) GetByNik(ctx context.Context, nik string) (*models.User, error) {
	if nik == "" {
		return nil, nil
	}
	return r.getOne(ctx, "nik = $1", nik)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, "SELECT "+userSelect+" FROM users WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, req models.UpdateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	sqlStr, args := buildUpdate("users", req.Changes(), id, userSelect)
	u, err := scanUser(r.db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update user: %w", Classify(err))
	}
	return &u, nil
}

// Delete removes the user row only. Assets keep their assignee snapshot.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
