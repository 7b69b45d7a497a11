package user

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/VitaminP8/postsync/internal/auth"
	"github.com/VitaminP8/postsync/internal/model"
	"github.com/VitaminP8/postsync/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

type Users interface {
	CreateUser(ctx context.Context, u *model.User) (string, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
}

type Service struct {
	users  Users
	tokens *auth.Manager
	cost   int
}

func NewService(users Users, tokens *auth.Manager) *Service {
	return &Service{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

var _ UserStorage = (*Service)(nil)

func (s *Service) RegisterUser(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.users.CreateUser(ctx, &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	})
	if errors.Is(err, storage.ErrConflict) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &model.User{ID: id, Username: username, Email: email}, nil
}

func (s *Service) LoginUser(ctx context.Context, email, password string) (string, error) {
	// проверка - существует ли такой пользователь
	u, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(u.ID, u.Username)
}

func (s *Service) LogoutUser(token string) error {
	if err := s.tokens.Revoke(token); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	return nil
}

// Me returns the user behind an authenticated request.
func (s *Service) Me(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return u, nil
}
