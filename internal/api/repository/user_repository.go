package repository

import (
	"context"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/store"
	"errors"
	"fmt"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks ctchen222/todo-backend/internal/api/repository UserRepository,TodoRepository,ContactRepository

const UsersCollection = "users"

// UsersCollectionOptions declares email as unique so duplicate registrations
// are rejected by the store itself.
var UsersCollectionOptions = store.CollectionOptions{Unique: []string{"email"}}

var (
	ErrNotFound   = errors.New("record not found")
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (string, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type userRepository struct {
	coll store.Collection
}

// NewUserRepository creates a UserRepository over the users collection.
func NewUserRepository(coll store.Collection) UserRepository {
	return &userRepository{coll: coll}
}

// Create stores user and returns its generated id. user.PasswordHash must
// already be set.
func (r *userRepository) Create(ctx context.Context, user *models.User) (string, error) {
	id, err := r.coll.InsertOne(ctx, store.Document{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return id, nil
}

// GetByEmail retrieves a user by email, or ErrNotFound.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	doc, err := r.coll.FindOneBy(ctx, "email", email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &models.User{
		ID:           doc[store.IDField],
		Username:     doc["username"],
		Email:        doc["email"],
		PasswordHash: doc["password_hash"],
	}, nil
}
