package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/haiminhng/penwright/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
	ErrNotPermitted          = errors.New("not permitted")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache) *UserService {
	return &UserService{
		m:  newUserModel(db),
		mb: mb,
		c:  c,
	}
}

// CreateUser creates a new user account and publishes a user.created event so
// the mail pipeline can deliver the activation token.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) error {
	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return v.ValidationError()
	}

	u := User{
		Username: username,
		Email:    email,
	}

	if err := u.Password.set(password); err != nil {
		return err
	}

	if err := s.m.insertUser(ctx, &u); err != nil {
		return err
	}

	token, err := s.m.createToken(ctx, u.ID, ActivationTokenTime, TokenScopeActivate)
	if err != nil {
		return err
	}

	data := struct {
		Username string
		Email    string
		Token    string
	}{
		Username: u.Username,
		Email:    u.Email,
		Token:    token.Plain,
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}

	return s.mb.Publish(ctx, payload, common.UserCreatedKey, common.UserExchange)
}

// ActivateUser activates a user account using the activation token, consumes
// the token, and grants the write permission.
func (s *UserService) ActivateUser(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return v.ValidationError()
	}

	hash := hashToken(token)

	user, err := s.m.getUserByToken(ctx, TokenScopeActivate, hash)
	if err != nil {
		return err
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.m.activateUserAccount(tx, ctx, user.ID, user.Version); err != nil {
		return err
	}

	if err := s.m.deleteToken(tx, ctx, user.ID, TokenScopeActivate); err != nil {
		return err
	}

	if err := s.m.addUserPermission(tx, ctx, user.ID, PermissionWritePost); err != nil {
		return err
	}

	return tx.Commit()
}

// LoginUser verifies the credentials and issues a fresh access/refresh token
// pair, replacing any tokens from previous sessions.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.m.deleteAuthTokens(tx, ctx, user.ID); err != nil {
		return nil, err
	}

	authToken, err := s.m.createAuthToken(tx, ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return authToken, nil
}

// GetUserByAccessToken resolves the principal for a bearer token. Hot tokens
// are served from the cache.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	hash := hashToken(token)

	key := common.CacheKeyUserByAccessToken(hash)
	if cached, ok := s.c.Get(key); ok {
		if user, ok := cached.(*User); ok {
			return user, nil
		}
	}

	user, err := s.m.getUserByAccessToken(ctx, hash)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, user)

	return user, nil
}

func (s *UserService) LogoutUser(ctx context.Context, userID int) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	tx, err := s.m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.m.deleteAuthTokens(tx, ctx, userID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.c.Flush()

	return nil
}

// GetProfile returns a user's own profile.
func (s *UserService) GetProfile(ctx context.Context, userID int) (*User, error) {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getUserByID(ctx, userID)
}

type UpdateProfileRequest struct {
	Username     string
	Email        string
	ProfileImage string
}

// UpdateProfile edits the caller's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID int, req *UpdateProfileRequest) (*User, error) {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	validateUsername(v, req.Username)
	validateEmail(v, req.Email)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.Email = req.Email
	user.ProfileImage = req.ProfileImage

	if err := s.m.updateProfile(ctx, user); err != nil {
		return nil, err
	}

	s.c.Flush()

	return user, nil
}

// ToggleSavedPost adds or removes a post from the caller's reading list and
// reports whether the post ended up saved.
func (s *UserService) ToggleSavedPost(ctx context.Context, userID, postID int) (bool, error) {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	validateInt(v, postID, "post_id")
	if !v.Valid() {
		return false, v.ValidationError()
	}

	return s.m.toggleSavedPost(ctx, userID, postID)
}

// ListSavedPosts returns the caller's reading list, most recently saved
// first.
func (s *UserService) ListSavedPosts(ctx context.Context, userID int) ([]SavedPost, error) {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.listSavedPosts(ctx, userID)
}

// ListUsers returns every account. Admin only.
func (s *UserService) ListUsers(ctx context.Context, isAdmin bool) ([]User, error) {
	if !isAdmin {
		return nil, ErrNotPermitted
	}

	return s.m.listUsers(ctx)
}

// DeleteAccount removes the caller's account after transferring their posts,
// comments and reactions to the guest user.
func (s *UserService) DeleteAccount(ctx context.Context, userID int) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	if err := s.m.deleteUserWithTransfer(ctx, userID); err != nil {
		return err
	}

	s.c.Flush()

	return nil
}
