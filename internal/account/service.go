// Package account registers users, logs them in and administers their records.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/floodcast/floodcast-api/internal/auth"
	"github.com/floodcast/floodcast-api/internal/domain"
)

// Store persists user accounts.
type Store interface {
	Create(ctx context.Context, u *domain.User) error
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}

// Tokens issues bearer tokens for logged-in users.
type Tokens interface {
	Issue(subjectID string) (string, error)
}

// Registration is the POST /register body.
type Registration struct {
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	City      string   `json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Password  string   `json:"password"`
}

// Update is a partial user update; nil fields are left unchanged.
type Update struct {
	Name      *string  `json:"name"`
	Email     *string  `json:"email"`
	City      *string  `json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Password  *string  `json:"password"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

// Service implements account registration, login and administration.
type Service struct {
	store  Store
	tokens Tokens
	logger *slog.Logger
}

// NewService creates an account Service.
func NewService(store Store, tokens Tokens, logger *slog.Logger) *Service {
	return &Service{store: store, tokens: tokens, logger: logger}
}

// Register creates an account. Name, email and password are required and the
// email must not already be registered.
func (s *Service) Register(ctx context.Context, reg Registration) (domain.User, error) {
	name := strings.TrimSpace(reg.Name)
	email := normalizeEmail(reg.Email)
	if name == "" || email == "" || reg.Password == "" {
		return domain.User{}, &domain.InputError{Message: "Name, email, dan password wajib diisi."}
	}

	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := auth.HashPassword(reg.Password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		Name:         name,
		Email:        email,
		City:         strings.TrimSpace(reg.City),
		Latitude:     reg.Latitude,
		Longitude:    reg.Longitude,
		PasswordHash: hash,
	}
	if err := s.store.Create(ctx, &u); err != nil {
		return domain.User{}, err
	}
	s.logger.Info("user registered", "id", u.ID)
	return u, nil
}

// Login checks credentials and issues a bearer token for the user.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, domain.ErrUnknownEmail
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup email: %w", err)
	}

	ok, err := auth.CheckPassword(u.PasswordHash, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, domain.ErrWrongPassword
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Message: "Login berhasil", Token: token, User: u}, nil
}

// List returns every registered user.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.store.List(ctx)
}

// Update applies patch to the user with id. A new password is re-hashed.
func (s *Service) Update(ctx context.Context, id string, patch Update) (domain.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if patch.Name != nil {
		u.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Email != nil {
		u.Email = normalizeEmail(*patch.Email)
	}
	if patch.City != nil {
		u.City = strings.TrimSpace(*patch.City)
	}
	if patch.Latitude != nil {
		u.Latitude = patch.Latitude
	}
	if patch.Longitude != nil {
		u.Longitude = patch.Longitude
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return domain.User{}, &domain.InputError{Message: "Password tidak boleh kosong."}
		}
		hash, err := auth.HashPassword(*patch.Password)
		if err != nil {
			return domain.User{}, err
		}
		u.PasswordHash = hash
	}
	if u.Name == "" || u.Email == "" {
		return domain.User{}, &domain.InputError{Message: "Name, email, dan password wajib diisi."}
	}

	if err := s.store.Update(ctx, &u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// Delete removes the user with id.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", "id", id)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
