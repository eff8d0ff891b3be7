package repository

import (
	"context"
	"ctchen222/todo-backend/internal/store"
	"fmt"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("repository")

// Repositories groups the repositories opened from one store.
type Repositories struct {
	Users    UserRepository
	Todos    TodoRepository
	Contacts ContactRepository
}

// Open opens every collection the API needs from st.
func Open(ctx context.Context, st store.Store) (*Repositories, error) {
	ctx, span := tracer.Start(ctx, "repository.Open")
	defer span.End()

	users, err := st.Collection(ctx, UsersCollection, UsersCollectionOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", UsersCollection, err)
	}
	todos, err := st.Collection(ctx, TodosCollection, store.CollectionOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", TodosCollection, err)
	}
	contacts, err := st.Collection(ctx, ContactsCollection, store.CollectionOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ContactsCollection, err)
	}

	return &Repositories{
		Users:    NewUserRepository(users),
		Todos:    NewTodoRepository(todos),
		Contacts: NewContactRepository(contacts),
	}, nil
}
