package repository

import (
	"context"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/store"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Repositories {
	t.Helper()
	repos, err := Open(context.Background(), store.NewMemoryStore())
	require.NoError(t, err)
	return repos
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repos := openMemory(t)

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	id, err := repos.Users.Create(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)

	got, err := repos.Users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	_, err = repos.Users.Create(ctx, &models.User{Username: "bob", Email: "alice@example.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = repos.Users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTodoRepository(t *testing.T) {
	ctx := context.Background()
	repos := openMemory(t)

	created, err := repos.Todos.Create(ctx, &models.Todo{Name: "A", Email: "a@x.com", Message: "m"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := repos.Todos.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	updated, err := repos.Todos.Update(ctx, created.ID, map[string]string{"message": "m2"})
	require.NoError(t, err)
	assert.Equal(t, &models.Todo{ID: created.ID, Name: "A", Email: "a@x.com", Message: "m2"}, updated)

	list, err := repos.Todos.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Todo{*updated}, list)

	require.NoError(t, repos.Todos.Delete(ctx, created.ID))
	_, err = repos.Todos.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repos.Todos.Delete(ctx, created.ID), ErrNotFound)
	_, err = repos.Todos.Update(ctx, created.ID, map[string]string{"name": "B"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContactRepository(t *testing.T) {
	ctx := context.Background()
	repos := openMemory(t)

	list, err := repos.Contacts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	created, err := repos.Contacts.Create(ctx, &models.Contact{Name: "N", Email: "n@x.com", Message: "hi"})
	require.NoError(t, err)

	list, err = repos.Contacts.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Contact{*created}, list)
}
