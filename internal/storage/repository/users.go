package repository

import (
	"context"
	"fmt"

	"github.com/remedyhub/remedy-api/internal/models"
)

// RegisterUser сохраняет нового пользователя и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (uid, email, username, password_hash, role, status, email_verified)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING uid`
	var uid string
	err := s.DB.QueryRowContext(ctx, query,
		user.UID, user.Email, user.Username, user.PasswordHash,
		user.Role, user.Status, user.EmailVerified).Scan(&uid)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, ErrDuplicate)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	query := `SELECT uid, email, username, password_hash, role, status, email_verified, created_at
			  FROM users WHERE username = $1 AND deleted_at IS NULL`
	return s.scanUser(ctx, op, query, username)
}

// GetUserByEmail возвращает пользователя по адресу почты.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	query := `SELECT uid, email, username, password_hash, role, status, email_verified, created_at
			  FROM users WHERE email = $1 AND deleted_at IS NULL`
	return s.scanUser(ctx, op, query, email)
}

// GetUserByUID возвращает пользователя по UID.
func (s *Storage) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUserByUID"
	query := `SELECT uid, email, username, password_hash, role, status, email_verified, created_at
			  FROM users WHERE uid = $1 AND deleted_at IS NULL`
	return s.scanUser(ctx, op, query, uid)
}

func (s *Storage) scanUser(ctx context.Context, op, query string, arg any) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	row := s.DB.QueryRowContext(ctx, query, arg)
	var u models.User
	if err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.Status, &u.EmailVerified, &u.CreatedAt); err != nil {
		return nil, mapRowErr(op, err)
	}
	return &u, nil
}

// ListUsers возвращает список пользователей с пагинацией.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, status, email_verified, created_at
			  FROM users
			  WHERE deleted_at IS NULL
			  ORDER BY created_at
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash,
			&u.Role, &u.Status, &u.EmailVerified, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUserStatus меняет статус учётной записи и возвращает число изменённых строк.
func (s *Storage) UpdateUserStatus(ctx context.Context, uid, status string) (int, error) {
	const op = "storage.UpdateUserStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users SET status = $1 WHERE uid = $2 AND deleted_at IS NULL`
	result, err := s.DB.ExecContext(ctx, query, status, uid)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// SetEmailVerified помечает почту пользователя подтверждённой.
func (s *Storage) SetEmailVerified(ctx context.Context, uid string) error {
	const op = "storage.SetEmailVerified"
	_, err := s.DB.ExecContext(ctx, `UPDATE users SET email_verified = TRUE WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdatePasswordHash устанавливает новый хэш пароля.
func (s *Storage) UpdatePasswordHash(ctx context.Context, uid, hash string) error {
	const op = "storage.UpdatePasswordHash"
	_, err := s.DB.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE uid = $2`, hash, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HasUnlockedRemedy сообщает, открыто ли средство для пользователя.
func (s *Storage) HasUnlockedRemedy(ctx context.Context, userUID string, remedyID int) (bool, error) {
	const op = "storage.HasUnlockedRemedy"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS(SELECT 1 FROM user_unlocked_remedies WHERE user_uid = $1 AND remedy_id = $2)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID, remedyID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListUnlockedRemedies возвращает идентификаторы средств, открытых пользователем.
func (s *Storage) ListUnlockedRemedies(ctx context.Context, userUID string) ([]int, error) {
	const op = "storage.ListUnlockedRemedies"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT remedy_id FROM user_unlocked_remedies WHERE user_uid = $1 ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
