package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrNotVerified    = errors.New("email not verified")
	ErrHasOrders      = errors.New("user owns orders and cannot be deleted")
	ErrIsAdmin        = errors.New("admin accounts cannot be deleted")
	ErrBadToken       = errors.New("invalid or expired token")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

const userColumns = `id, name, email, phone, address, is_admin, email_verified,
loyalty_points, loyalty_tier, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.IsAdmin,
		&u.EmailVerified, &u.LoyaltyPoints, &u.LoyaltyTier, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// InsertUser registers a new account and returns it along with the email
// verification token.
func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, "", fmt.Errorf("hashing password: %w", err)
	}

	verifyToken := uuid.NewString()
	query := `
		INSERT INTO users (id, name, email, password_hash, phone, address, verify_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + userColumns
	row := c.db.QueryRowContext(ctx, query, uuid.NewString(), nu.Name,
		strings.ToLower(nu.Email), string(hash), nu.Phone, nu.Address, verifyToken)

	u, err := scanUser(row)
	if err != nil {
		if strings.Contains(err.Error(), "unique") || strings.Contains(err.Error(), "duplicate") {
			return User{}, "", ErrDuplicateEmail
		}
		return User{}, "", fmt.Errorf("failed to insert user: %w", err)
	}
	return u, verifyToken, nil
}

// Authenticate checks email/password and returns the user. Unverified
// accounts are refused so a disabled user cannot log in.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	query := `SELECT ` + userColumns + `, password_hash FROM users WHERE email = $1`
	var u User
	var hash string
	err := c.db.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.IsAdmin,
		&u.EmailVerified, &u.LoyaltyPoints, &u.LoyaltyTier, &u.CreatedAt, &u.UpdatedAt, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrBadCredentials
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	if !u.EmailVerified {
		return User{}, ErrNotVerified
	}
	return u, nil
}

func (c *Conf) GetUserByID(ctx context.Context, id string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(c.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// VerifyEmail consumes a verification token.
func (c *Conf) VerifyEmail(ctx context.Context, token string) error {
	res, err := c.db.ExecContext(ctx, `
		UPDATE users
		SET email_verified = TRUE, verify_token = NULL, updated_at = NOW()
		WHERE verify_token = $1
	`, token)
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrBadToken
	}
	return nil
}

// StartPasswordReset stores a reset token valid for one hour and returns it
// with the user's name for the email. Unknown emails return ErrNotFound; the
// handler answers identically either way so the response never reveals
// whether an address has an account.
func (c *Conf) StartPasswordReset(ctx context.Context, email string) (token, name string, err error) {
	token = uuid.NewString()
	err = c.db.QueryRowContext(ctx, `
		UPDATE users
		SET reset_token = $2, reset_expires = NOW() + INTERVAL '1 hour', updated_at = NOW()
		WHERE email = $1
		RETURNING name
	`, strings.ToLower(email), token).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", ErrNotFound
		}
		return "", "", fmt.Errorf("failed to start password reset: %w", err)
	}
	return token, name, nil
}

// ResetPassword consumes a valid reset token.
func (c *Conf) ResetPassword(ctx context.Context, token, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	res, err := c.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_expires = NULL, updated_at = NOW()
		WHERE reset_token = $1 AND reset_expires > NOW()
	`, token, string(hash))
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrBadToken
	}
	return nil
}

func (c *Conf) UpdateProfile(ctx context.Context, id string, p ProfileUpdate) (User, error) {
	query := `
		UPDATE users
		SET name = $2, phone = $3, address = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	u, err := scanUser(c.db.QueryRowContext(ctx, query, id, p.Name, p.Phone, p.Address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

// AwardPointsTx adds loyalty points inside the caller's transaction (used by
// the COMPLETED transition) and recomputes the tier from the new balance.
func AwardPointsTx(ctx context.Context, tx *sql.Tx, userID string, points int64, reason string) error {
	if points <= 0 {
		return nil
	}
	var newTotal int64
	err := tx.QueryRowContext(ctx, `
		UPDATE users
		SET loyalty_points = loyalty_points + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING loyalty_points
	`, userID, points).Scan(&newTotal)
	if err != nil {
		return fmt.Errorf("failed to award points: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET loyalty_tier = $2 WHERE id = $1`, userID, string(TierFor(newTotal))); err != nil {
		return fmt.Errorf("failed to update tier: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO loyalty_history (user_id, points, reason) VALUES ($1, $2, $3)`,
		userID, points, reason); err != nil {
		return fmt.Errorf("failed to record loyalty history: %w", err)
	}
	return nil
}

// PointsForTotal is the earn rule: one point per 10.000đ of the order total.
func PointsForTotal(total int64) int64 {
	return total / 10000
}

func (c *Conf) LoyaltyHistory(ctx context.Context, userID string) ([]LoyaltyEntry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT points, reason, created_at
		FROM loyalty_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query loyalty history: %w", err)
	}
	defer rows.Close()

	var entries []LoyaltyEntry
	for rows.Next() {
		var e LoyaltyEntry
		if err := rows.Scan(&e.Points, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loyalty entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListUsers pages through accounts for the admin console, with order counts
// attached so the UI can grey out the delete action.
func (c *Conf) ListUsers(ctx context.Context, limit, offset int) ([]User, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.phone, u.address, u.is_admin, u.email_verified,
		       u.loyalty_points, u.loyalty_tier, u.created_at, u.updated_at,
		       COUNT(o.id) AS order_count
		FROM users u
		LEFT JOIN orders o ON o.user_id = u.id
		GROUP BY u.id
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Address, &u.IsAdmin,
			&u.EmailVerified, &u.LoyaltyPoints, &u.LoyaltyTier, &u.CreatedAt, &u.UpdatedAt,
			&u.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// DisableUser soft-disables an account. Admins cannot be disabled.
func (c *Conf) DisableUser(ctx context.Context, id string) error {
	target, err := c.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if target.IsAdmin {
		return ErrIsAdmin
	}
	_, err = c.db.ExecContext(ctx,
		`UPDATE users SET email_verified = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to disable user: %w", err)
	}
	return nil
}

// CheckDeletable is the deletion guard: admins are never deletable and a
// user owning orders must be disabled instead. Pure decision, no writes.
func CheckDeletable(isAdmin bool, orderCount int) error {
	if isAdmin {
		return ErrIsAdmin
	}
	if orderCount > 0 {
		return ErrHasOrders
	}
	return nil
}

// DeleteUser removes an account and its dependent rows in one transaction.
// The guard runs inside the same transaction so no write happens when it
// refuses.
func (c *Conf) DeleteUser(ctx context.Context, id string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		var isAdmin bool
		var orderCount int
		err := tx.QueryRowContext(ctx, `
			SELECT u.is_admin, COUNT(o.id)
			FROM users u
			LEFT JOIN orders o ON o.user_id = u.id
			WHERE u.id = $1
			GROUP BY u.id
		`, id).Scan(&isAdmin, &orderCount)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to query user: %w", err)
		}
		if err := CheckDeletable(isAdmin, orderCount); err != nil {
			return err
		}

		steps := []string{
			`DELETE FROM cart_items WHERE cart_id IN (SELECT id FROM cart WHERE user_id = $1)`,
			`DELETE FROM cart WHERE user_id = $1`,
			`DELETE FROM notifications WHERE user_id = $1`,
			`DELETE FROM loyalty_history WHERE user_id = $1`,
			`DELETE FROM users WHERE id = $1`,
		}
		for _, q := range steps {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return fmt.Errorf("failed to delete user data: %w", err)
			}
		}
		return nil
	})
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
