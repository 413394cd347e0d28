package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/example/animal-store/internal/auth"
	"github.com/example/animal-store/internal/events"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user with same email, username or mobile already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("all fields are required")
)

// User is an account. PasswordHash never leaves the user and store packages.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists users. Create must enforce uniqueness of username, email and
// mobile, returning ErrUserExists on a clash.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByEmailOrUsername(ctx context.Context, emailOrUsername string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Mobile   string `json:"mobile" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput carries optional profile updates; empty fields are unchanged.
type ProfileInput struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

var validate = validator.New()

// Service handles account registration, login and profile management.
type Service struct {
	store     Store
	publisher events.Publisher
}

func NewService(store Store, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{store: store, publisher: publisher}
}

// Register creates a regular user account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	return s.register(ctx, in, RoleUser)
}

// RegisterAdmin creates an admin account (seed/bootstrap path, not exposed
// over HTTP).
func (s *Service) RegisterAdmin(ctx context.Context, in RegisterInput) (*User, error) {
	return s.register(ctx, in, RoleAdmin)
}

func (s *Service) register(ctx context.Context, in RegisterInput, role string) (*User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFields, err)
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        in.Email,
		Mobile:       in.Mobile,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeUserRegistered, u.ID, events.UserRegistered{
		UserID:       u.ID,
		Email:        u.Email,
		Name:         u.Name,
		RegisteredAt: u.CreatedAt,
	})

	return u, nil
}

// Login authenticates by email or username.
func (s *Service) Login(ctx context.Context, emailOrUsername, password string) (*User, error) {
	if emailOrUsername == "" || password == "" {
		return nil, ErrMissingFields
	}

	u, err := s.store.GetUserByEmailOrUsername(ctx, emailOrUsername)
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.store.GetUser(ctx, id)
}

// ResetPassword replaces the password of the account registered to the email.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	if email == "" || newPassword == "" {
		return ErrMissingFields
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return s.store.UpdateUser(ctx, u)
}

// UpdateProfile changes the fields present in the input.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Username != "" {
		u.Username = in.Username
	}
	if in.Email != "" {
		u.Email = in.Email
	}
	if in.Mobile != "" {
		u.Mobile = in.Mobile
	}
	if in.Password != "" {
		passwordHash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = passwordHash
	}
	u.UpdatedAt = time.Now()

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) publish(ctx context.Context, eventType, aggregateID string, payload any) {
	event, err := events.New(eventType, aggregateID, payload)
	if err != nil {
		log.Printf("[User] Failed to build %s event: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Printf("[User] Failed to publish %s event: %v", eventType, err)
	}
}
