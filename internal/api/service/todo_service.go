package service

import (
	"context"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/api/repository"
	"ctchen222/todo-backend/internal/apperr"
	"ctchen222/todo-backend/internal/events"
	"ctchen222/todo-backend/internal/validator"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	msgTodoNotFound = "Todo not found"
	msgNoUpdateData = "No data to update"
	msgTodoDeleted  = "Todo deleted successfully"
	resourceTodo    = "todo"
)

// TodoService defines the todo CRUD operations.
type TodoService interface {
	Create(ctx context.Context, req *models.CreateTodoRequest) (*models.Todo, error)
	List(ctx context.Context) ([]models.Todo, error)
	Get(ctx context.Context, id string) (*models.Todo, error)
	Update(ctx context.Context, id string, req *models.UpdateTodoRequest) (*models.Todo, error)
	Delete(ctx context.Context, id string) (*models.MessageResponse, error)
}

type todoService struct {
	todoRepo  repository.TodoRepository
	publisher events.Publisher
}

// NewTodoService creates a new TodoService.
func NewTodoService(todoRepo repository.TodoRepository, publisher events.Publisher) TodoService {
	return &todoService{todoRepo: todoRepo, publisher: publisher}
}

func (s *todoService) Create(ctx context.Context, req *models.CreateTodoRequest) (*models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.Create")
	defer span.End()

	todo, err := s.todoRepo.Create(ctx, &models.Todo{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		return nil, apperr.Upstream("failed to create todo", err)
	}
	span.SetAttributes(attribute.String("todo.id", todo.ID))

	s.publisher.Publish(ctx, events.NewEvent(events.TodoCreated, resourceTodo, todo.ID, todo))
	return todo, nil
}

func (s *todoService) List(ctx context.Context) ([]models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.List")
	defer span.End()

	todos, err := s.todoRepo.List(ctx)
	if err != nil {
		return nil, apperr.Upstream("failed to list todos", err)
	}
	return todos, nil
}

func (s *todoService) Get(ctx context.Context, id string) (*models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.Get", trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	todo, err := s.todoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, todoError(err, "failed to get todo")
	}
	return todo, nil
}

// Update applies only the fields present in req.
func (s *todoService) Update(ctx context.Context, id string, req *models.UpdateTodoRequest) (*models.Todo, error) {
	ctx, span := tracer.Start(ctx, "TodoService.Update", trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	fields := req.Fields()
	if len(fields) == 0 {
		return nil, apperr.Validation(msgNoUpdateData)
	}
	if email, ok := fields["email"]; ok && !validator.IsEmail(email) {
		return nil, apperr.Validation("Invalid email address")
	}

	todo, err := s.todoRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, todoError(err, "failed to update todo")
	}

	slog.DebugContext(ctx, "Todo updated", "todo.id", id, "fields.count", len(fields))
	s.publisher.Publish(ctx, events.NewEvent(events.TodoUpdated, resourceTodo, todo.ID, todo))
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, id string) (*models.MessageResponse, error) {
	ctx, span := tracer.Start(ctx, "TodoService.Delete", trace.WithAttributes(attribute.String("todo.id", id)))
	defer span.End()

	if err := s.todoRepo.Delete(ctx, id); err != nil {
		return nil, todoError(err, "failed to delete todo")
	}

	s.publisher.Publish(ctx, events.NewEvent(events.TodoDeleted, resourceTodo, id, nil))
	return &models.MessageResponse{Message: msgTodoDeleted}, nil
}

func todoError(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(msgTodoNotFound)
	}
	return apperr.Upstream(msg, err)
}
