package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/mrlokans/locallibrary/internal/config"
	"github.com/mrlokans/locallibrary/internal/database/users"
	"github.com/mrlokans/locallibrary/internal/entities"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.@+-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidRole      = errors.New("invalid role")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAccountLocked    = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid  = errors.New("username must be 3-64 characters: letters, digits and @.+-_ only")
	ErrEmailInvalid     = errors.New("invalid email format")
	ErrLastSuperuser    = errors.New("cannot remove the last superuser")
)

const (
	// lockoutThreshold consecutive bad passwords lock the account.
	lockoutThreshold       = 5
	defaultLockoutDuration = 30 * time.Minute
)

// account is the validated shape of a new staff account.
type account struct {
	Username string            `validate:"required,username"`
	Email    string            `validate:"required,max=254,staff_email"`
	Password string            `validate:"required"`
	Role     entities.UserRole `validate:"role"`
}

var accountErrors = map[string]error{
	"Username.required": ErrUsernameRequired,
	"Username.username": ErrUsernameInvalid,
	"Email.required":    ErrEmailRequired,
	"Email.max":         ErrEmailInvalid,
	"Email.staff_email": ErrEmailInvalid,
	"Password.required": ErrPasswordRequired,
	"Role.role":         ErrInvalidRole,
}

func newAccountValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("staff_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return entities.UserRole(fl.Field().String()).Valid()
	})
	return v
}

// Service manages staff accounts: creation, login, API tokens and roles.
type Service struct {
	users    *users.Repository
	config   config.Auth
	validate *validator.Validate
}

func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		users:    users.NewRepository(db),
		config:   cfg,
		validate: newAccountValidator(),
	}
}

// checkAccount reports the first failing field, in declaration order.
func (s *Service) checkAccount(a account) error {
	err := s.validate.Struct(a)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	for _, fe := range verrs {
		if mapped, ok := accountErrors[fe.Field()+"."+fe.Tag()]; ok {
			return mapped
		}
	}
	return verrs
}

// notFound maps a missing row to sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// CreateUser validates and stores a staff account. The password must pass
// every PasswordValidators check.
func (s *Service) CreateUser(username, email, password string, role entities.UserRole) (*entities.User, error) {
	a := account{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
		Role:     role,
	}
	if err := s.checkAccount(a); err != nil {
		return nil, err
	}
	if err := ValidatePassword(a.Password, a.Username, a.Email); err != nil {
		return nil, err
	}

	taken, err := s.users.Exists(a.Username, a.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(a.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{Username: a.Username, Email: a.Email, PasswordHash: hash, Role: a.Role}
	if err := s.users.CreateUser(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate checks a username or email against its password. After
// lockoutThreshold failures in a row the account is locked for
// LockoutDuration, even for the right password.
func (s *Service) Authenticate(login, password string) (*entities.User, error) {
	user, err := s.users.GetUserByLogin(login)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}

	now := time.Now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		user.FailedLoginCount++
		fields := map[string]any{"failed_login_count": user.FailedLoginCount}
		if user.FailedLoginCount >= lockoutThreshold {
			fields["locked_until"] = now.Add(s.lockoutDuration())
		}
		_ = s.users.UpdateFields(user.ID, fields)
		return nil, err
	}

	_ = s.users.UpdateFields(user.ID, map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	})
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil
	return user, nil
}

func (s *Service) lockoutDuration() time.Duration {
	if s.config.LockoutDuration > 0 {
		return s.config.LockoutDuration
	}
	return defaultLockoutDuration
}

func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// ListUsers returns staff accounts ordered by username.
func (s *Service) ListUsers() ([]entities.User, error) {
	return s.users.ListUsers()
}

// ValidateToken resolves a plaintext API token to its owner.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByTokenHash(HashToken(token))
	if err != nil {
		return nil, notFound(err, ErrInvalidToken)
	}
	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil &&
		time.Since(*user.TokenCreatedAt) > s.config.TokenExpiry {
		return nil, ErrTokenExpired
	}
	return user, nil
}

// GenerateToken issues a new API token, replacing any previous one. Only
// its hash is stored, so the plaintext is returned exactly once.
func (s *Service) GenerateToken(userID uint) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	err = s.users.UpdateFields(userID, map[string]any{
		"token_hash":       hash,
		"token_created_at": time.Now(),
	})
	if err != nil {
		return "", notFound(err, ErrUserNotFound)
	}
	return plaintext, nil
}

func (s *Service) RevokeToken(userID uint) error {
	err := s.users.UpdateFields(userID, map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
	return notFound(err, ErrUserNotFound)
}

// ChangePassword requires the current password.
func (s *Service) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(oldPassword, user.PasswordHash); err != nil {
		return err
	}
	if err := ValidatePassword(newPassword, user.Username, user.Email); err != nil {
		return err
	}
	hash, err := HashPassword(newPassword, s.config.BcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdateFields(userID, map[string]any{"password_hash": hash})
}

// SetRole changes a user's role. The last superuser cannot be demoted.
func (s *Service) SetRole(userID uint, role entities.UserRole) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if role != entities.UserRoleSuperuser {
		if err := s.keepOneSuperuser(userID); err != nil {
			return err
		}
	}
	return notFound(s.users.SetRole(userID, role), ErrUserNotFound)
}

// DeleteUser soft-deletes an account. The last superuser cannot be removed.
func (s *Service) DeleteUser(userID uint) error {
	if err := s.keepOneSuperuser(userID); err != nil {
		return err
	}
	return notFound(s.users.DeleteUser(userID), ErrUserNotFound)
}

// keepOneSuperuser fails when userID is the only superuser left.
func (s *Service) keepOneSuperuser(userID uint) error {
	all, err := s.users.ListUsers()
	if err != nil {
		return err
	}
	found, others := false, 0
	for _, u := range all {
		switch {
		case u.ID == userID:
			found = true
			if u.Role != entities.UserRoleSuperuser {
				return nil
			}
		case u.Role == entities.UserRoleSuperuser:
			others++
		}
	}
	if !found {
		return ErrUserNotFound
	}
	if others == 0 {
		return ErrLastSuperuser
	}
	return nil
}

// HasUsers reports whether the first superuser has been created.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.Count()
	return count > 0, err
}

// IsAuthEnabled reports whether requests must authenticate.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}
