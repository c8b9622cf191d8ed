package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"clinic-api/internal/database"
	"clinic-api/internal/model"
)

const userSelect = `
	SELECT u.user_id, u.username, u.password_hash, COALESCE(r.role_code, ''), u.staff_id, u.email,
	       u.is_active, u.failed_login_count, u.locked_until, u.last_login,
	       s.last_name, s.first_name
	FROM users u
	LEFT JOIN roles r ON r.role_id = u.role_id
	LEFT JOIN staff s ON s.staff_id = u.staff_id`

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindActiveByUsername(ctx context.Context, username string) (model.User, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, userSelect+` WHERE u.username = $1 AND u.is_active = TRUE`, username)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return user, nil
}

func (r *UserRepository) FindActiveByID(ctx context.Context, id int64) (model.User, error) {
	row := r.db.Conn(ctx).QueryRow(ctx, userSelect+` WHERE u.user_id = $1 AND u.is_active = TRUE`, id)
	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// RecordLoginFailure stores the count computed by the lockout policy.
// Concurrent failures race and the last write wins.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id int64, failedCount int, lockedUntil *time.Time) error {
	_, err := r.db.Conn(ctx).Exec(ctx,
		`UPDATE users
		 SET failed_login_count = $2, locked_until = $3, updated_at = NOW()
		 WHERE user_id = $1`,
		id, failedCount, lockedUntil)
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

func (r *UserRepository) RecordLoginSuccess(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Conn(ctx).Exec(ctx,
		`UPDATE users
		 SET failed_login_count = 0, locked_until = NULL, last_login = $2, updated_at = NOW()
		 WHERE user_id = $1`,
		id, at)
	if err != nil {
		return fmt.Errorf("record login success: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, nu model.NewUser) (model.User, error) {
	var id int64
	err := r.db.Conn(ctx).QueryRow(ctx,
		`INSERT INTO users (username, password_hash, role_id, staff_id, email)
		 VALUES ($1, $2, (SELECT role_id FROM roles WHERE role_code = $3), $4, $5)
		 RETURNING user_id`,
		nu.Username, nu.PasswordHash, string(nu.Role), nu.StaffID, nu.Email).Scan(&id)
	switch {
	case database.IsUniqueViolation(err):
		return model.User{}, model.ErrUserAlreadyExists
	case database.IsConstraintViolation(err):
		// unknown role code (NOT NULL role_id) or staff id
		return model.User{}, fmt.Errorf("create user: %w", model.ErrReferenceNotFound)
	case err != nil:
		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	return r.FindActiveByID(ctx, id)
}

// CreateStaff inserts the staff member a login belongs to.
func (r *UserRepository) CreateStaff(ctx context.Context, lastName string, firstName string, departmentID *int64) (int64, error) {
	var id int64
	err := r.db.Conn(ctx).QueryRow(ctx,
		`INSERT INTO staff (last_name, first_name, department_id) VALUES ($1, $2, $3) RETURNING staff_id`,
		lastName, firstName, departmentID).Scan(&id)
	if database.IsForeignKeyViolation(err) {
		return 0, fmt.Errorf("create staff: %w", model.ErrReferenceNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("create staff: %w", err)
	}
	return id, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &role, &u.StaffID, &u.Email,
		&u.IsActive, &u.FailedLoginCount, &u.LockedUntil, &u.LastLogin,
		&u.LastName, &u.FirstName)
	if err != nil {
		return model.User{}, err
	}
	u.Role = model.Role(role)
	return u, nil
}
