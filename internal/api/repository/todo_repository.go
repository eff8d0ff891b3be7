package repository

import (
	"context"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/store"
	"errors"
	"fmt"
)

const TodosCollection = "todos"

// TodoRepository defines the interface for todo data operations.
type TodoRepository interface {
	Create(ctx context.Context, todo *models.Todo) (*models.Todo, error)
	List(ctx context.Context) ([]models.Todo, error)
	GetByID(ctx context.Context, id string) (*models.Todo, error)
	Update(ctx context.Context, id string, fields map[string]string) (*models.Todo, error)
	Delete(ctx context.Context, id string) error
}

type todoRepository struct {
	coll store.Collection
}

// NewTodoRepository creates a TodoRepository over the todos collection.
func NewTodoRepository(coll store.Collection) TodoRepository {
	return &todoRepository{coll: coll}
}

func (r *todoRepository) Create(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	id, err := r.coll.InsertOne(ctx, store.Document{
		"name":    todo.Name,
		"email":   todo.Email,
		"message": todo.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}
	created := *todo
	created.ID = id
	return &created, nil
}

func (r *todoRepository) List(ctx context.Context) ([]models.Todo, error) {
	docs, err := r.coll.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	todos := make([]models.Todo, 0, len(docs))
	for _, doc := range docs {
		todos = append(todos, todoFromDocument(doc))
	}
	return todos, nil
}

func (r *todoRepository) GetByID(ctx context.Context, id string) (*models.Todo, error) {
	doc, err := r.coll.FindOne(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to get todo")
	}
	todo := todoFromDocument(doc)
	return &todo, nil
}

// Update applies fields with $set semantics and returns the stored result.
func (r *todoRepository) Update(ctx context.Context, id string, fields map[string]string) (*models.Todo, error) {
	doc, err := r.coll.UpdateOne(ctx, id, store.Document(fields))
	if err != nil {
		return nil, translate(err, "failed to update todo")
	}
	todo := todoFromDocument(doc)
	return &todo, nil
}

func (r *todoRepository) Delete(ctx context.Context, id string) error {
	return translate(r.coll.DeleteOne(ctx, id), "failed to delete todo")
}

// todoFromDocument defaults missing fields to empty strings.
func todoFromDocument(doc store.Document) models.Todo {
	return models.Todo{
		ID:      doc[store.IDField],
		Name:    doc["name"],
		Email:   doc["email"],
		Message: doc["message"],
	}
}

func translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
