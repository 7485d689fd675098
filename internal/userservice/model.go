package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/haiminhng/penwright/internal/common"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrNotFound          = errors.New("user not found")
	ErrPostNotFound      = errors.New("post not found")
	ErrNoGuestUser       = errors.New("no guest account to transfer content to")
)

func newUserModel(db *sql.DB) *UserModel {
	return &UserModel{db: db}
}

func (m *UserModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, role, created_at, updated_at, version`

	args := []any{
		u.Username,
		u.Email,
		u.Password.hash,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Role, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case common.UniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		case common.UniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}
	return nil
}

func (m *UserModel) getUserByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, username, email, password, role, activated, profile_image, created_at, updated_at, version
		FROM users
		WHERE id = $1`

	var u User
	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.Password.hash, &u.Role, &u.Activated, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *UserModel) getUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT id, username, email, password, role, activated, profile_image, version
		FROM users
		WHERE username = $1`

	var u User
	err := m.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Email, &u.Password.hash, &u.Role, &u.Activated, &u.ProfileImage, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *UserModel) activateUserAccount(tx *sql.Tx, ctx context.Context, id int, version int) error {
	query := `
		UPDATE users
		SET activated = true, updated_at = now(), version = version + 1
		WHERE id = $1 AND version = $2`

	res, err := tx.ExecContext(ctx, query, id, version)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows != 1 {
		switch {
		case rows == 0:
			return ErrNotFound
		default:
			return errors.New("too many rows affected")
		}
	}

	return nil
}

func (m *UserModel) updateProfile(ctx context.Context, u *User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, profile_image = $3, updated_at = now(), version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version, updated_at`

	err := m.db.QueryRowContext(ctx, query, u.Username, u.Email, u.ProfileImage, u.ID, u.Version).Scan(&u.Version, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrNotFound
		case common.UniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		case common.UniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	return nil
}

func (m *UserModel) getUserByAccessToken(ctx context.Context, token []byte) (*User, error) {
	var u User

	query := `
		SELECT u.id, u.username, u.email, u.role, u.activated, u.profile_image, u.version, p.permission
		FROM users u
		INNER JOIN auth_tokens t ON u.id = t.user_id
		LEFT JOIN user_permissions p ON u.id = p.user_id
		WHERE t.access_token = $1 AND t.access_token_expiry > $2`

	rows, err := m.db.QueryContext(ctx, query, token, time.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p sql.NullString
		err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Activated, &u.ProfileImage, &u.Version, &p)
		if err != nil {
			return nil, err
		}

		if p.Valid {
			u.Permissions = append(u.Permissions, Permission(p.String))
		}
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if u.ID == 0 {
		return nil, ErrNotFound
	}

	return &u, nil
}

func (m *UserModel) addUserPermission(tx *sql.Tx, ctx context.Context, id int, permissions ...Permission) error {
	for _, p := range permissions {
		_, err := tx.ExecContext(ctx, "INSERT INTO user_permissions (user_id, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING", id, p)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *UserModel) listUsers(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, username, email, role, activated, profile_image, created_at, updated_at, version
		FROM users
		ORDER BY created_at DESC`

	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Role, &u.Activated, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt, &u.Version)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// toggleSavedPost adds the post to the user's reading list, or removes it if
// already present. The primary key on (user_id, post_id) arbitrates races.
func (m *UserModel) toggleSavedPost(ctx context.Context, userID, postID int) (bool, error) {
	res, err := m.db.ExecContext(ctx, `DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2`, userID, postID)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 1 {
		return false, nil
	}

	query := `
		INSERT INTO saved_posts (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING`

	_, err = m.db.ExecContext(ctx, query, userID, postID)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "saved_posts_post_id_fkey"):
			return false, ErrPostNotFound
		default:
			return false, err
		}
	}

	return true, nil
}

func (m *UserModel) listSavedPosts(ctx context.Context, userID int) ([]SavedPost, error) {
	query := `
		SELECT p.id, p.slug, p.title, p.subtitle, p.image_url, s.created_at
		FROM saved_posts s
		JOIN posts p ON s.post_id = p.id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC`

	rows, err := m.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	saved := []SavedPost{}
	for rows.Next() {
		var p SavedPost
		err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Subtitle, &p.ImageURL, &p.SavedAt)
		if err != nil {
			return nil, err
		}
		saved = append(saved, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return saved, nil
}

// deleteUserWithTransfer moves the user's content to the guest account and
// removes the user row, all in one transaction. Reactions that would collide
// with an existing guest reaction on the same target are dropped instead of
// transferred.
func (m *UserModel) deleteUserWithTransfer(ctx context.Context, userID int) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var guestID int
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE username = $1`, GuestUsername).Scan(&guestID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrNoGuestUser
		default:
			return err
		}
	}

	if guestID == userID {
		return ErrNotFound
	}

	statements := []string{
		`UPDATE posts SET author_id = $1 WHERE author_id = $2`,
		`UPDATE comments SET author_id = $1 WHERE author_id = $2`,
		`DELETE FROM likes l
		 WHERE l.user_id = $2 AND EXISTS (
			SELECT 1 FROM likes g
			WHERE g.user_id = $1
			  AND (g.post_id = l.post_id OR g.comment_id = l.comment_id))`,
		`UPDATE likes SET user_id = $1 WHERE user_id = $2`,
		`DELETE FROM ratings r
		 WHERE r.user_id = $2 AND EXISTS (
			SELECT 1 FROM ratings g
			WHERE g.user_id = $1
			  AND (g.post_id = r.post_id OR g.comment_id = r.comment_id))`,
		`UPDATE ratings SET user_id = $1 WHERE user_id = $2`,
	}

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, guestID, userID); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
