package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/jackc/pgx/v5"
)

// ErrDuplicateUsername is returned by Create when the username is taken.
var ErrDuplicateUsername = errors.New("username already exists")

// AdminUserRepository handles admin account persistence.
// Admin accounts are the only identities stored by the backend; members of
// the public never have an account.
type AdminUserRepository struct{}

// NewAdminUserRepository creates a new instance of AdminUserRepository.
//
// Returns:
//   - *AdminUserRepository: Initialized repository instance
func NewAdminUserRepository() *AdminUserRepository {
	return &AdminUserRepository{}
}

const adminUserColumns = `id, username, email, password_hash, role, is_active, created_at, last_login_at`

func scanAdminUser(row pgx.Row) (*models.AdminUser, error) {
	var (
		user models.AdminUser
		role string
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&role, &user.IsActive, &user.CreatedAt, &user.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("admin user %d: %w", user.ID, err)
	}
	return &user, nil
}

// FindByUsername retrieves an admin account by username.
// Used by the login flow to fetch the password hash for comparison.
//
// Parameters:
//   - ctx: Context for cancellation and timeout control
//   - username: Unique login name
//
// Returns:
//   - *models.AdminUser: Account including password hash
//   - error: ErrNotFound if no account matches, database error otherwise
func (r *AdminUserRepository) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	query := `SELECT ` + adminUserColumns + ` FROM admin_users WHERE username = $1`
	return scanAdminUser(database.DB.QueryRow(ctx, query, username))
}

// FindByID retrieves an admin account by primary key.
// Used when refreshing tokens to confirm the account is still active.
func (r *AdminUserRepository) FindByID(ctx context.Context, id int) (*models.AdminUser, error) {
	query := `SELECT ` + adminUserColumns + ` FROM admin_users WHERE id = $1`
	return scanAdminUser(database.DB.QueryRow(ctx, query, id))
}

// List retrieves all admin accounts ordered by username.
// Password hashes are loaded but never serialized.
func (r *AdminUserRepository) List(ctx context.Context) ([]models.AdminUser, error) {
	query := `SELECT ` + adminUserColumns + ` FROM admin_users ORDER BY username`

	rows, err := database.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.AdminUser{}
	for rows.Next() {
		user, err := scanAdminUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	return users, rows.Err()
}

// Create inserts a new admin account.
// Password must be pre-hashed with bcrypt before calling this method.
//
// Returns:
//   - error: ErrDuplicateUsername if the username is taken, database error otherwise
//
// Side Effects: Populates user.ID and user.CreatedAt with database-generated values
func (r *AdminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	if !user.Role.Valid() {
		return fmt.Errorf("invalid role %q", user.Role)
	}

	query := `
		INSERT INTO admin_users (username, email, password_hash, role, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := database.DB.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash, string(user.Role), user.IsActive).
		Scan(&user.ID, &user.CreatedAt)
	if database.IsUniqueViolation(err, "") {
		return ErrDuplicateUsername
	}
	return err
}

// UpdateLastLogin stamps a successful login.
func (r *AdminUserRepository) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	tag, err := database.DB.Exec(ctx, `UPDATE admin_users SET last_login_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
