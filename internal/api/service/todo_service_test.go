package service

import (
	"context"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/api/repository"
	"ctchen222/todo-backend/internal/api/repository/mocks"
	"ctchen222/todo-backend/internal/apperr"
	"ctchen222/todo-backend/internal/events"
	eventmocks "ctchen222/todo-backend/internal/events/mocks"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestTodoService(t *testing.T) (TodoService, *mocks.MockTodoRepository, *eventmocks.MockPublisher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockTodoRepository(ctrl)
	pub := eventmocks.NewMockPublisher(ctrl)
	return NewTodoService(repo, pub), repo, pub
}

func eventOfType(eventType string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		e, ok := x.(events.Event)
		return ok && e.Type == eventType
	})
}

func strPtr(s string) *string { return &s }

func TestTodoService_Create(t *testing.T) {
	svc, repo, pub := newTestTodoService(t)
	req := &models.CreateTodoRequest{Name: "A", Email: "a@x.io", Message: "m"}

	repo.EXPECT().Create(gomock.Any(), &models.Todo{Name: "A", Email: "a@x.io", Message: "m"}).
		Return(&models.Todo{ID: "t1", Name: "A", Email: "a@x.io", Message: "m"}, nil)
	pub.EXPECT().Publish(gomock.Any(), eventOfType(events.TodoCreated))

	todo, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "t1", todo.ID)
}

func TestTodoService_CreateFailureDoesNotPublish(t *testing.T) {
	svc, repo, _ := newTestTodoService(t)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

	_, err := svc.Create(context.Background(), &models.CreateTodoRequest{Name: "A", Email: "a@x.io", Message: "m"})
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
}

func TestTodoService_Get(t *testing.T) {
	svc, repo, _ := newTestTodoService(t)
	repo.EXPECT().GetByID(gomock.Any(), "t1").Return(&models.Todo{ID: "t1"}, nil)
	repo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, repository.ErrNotFound)

	todo, err := svc.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", todo.ID)

	_, err = svc.Get(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "Todo not found", err.Error())
}

func TestTodoService_List(t *testing.T) {
	svc, repo, _ := newTestTodoService(t)
	repo.EXPECT().List(gomock.Any()).Return([]models.Todo{{ID: "t1"}, {ID: "t2"}}, nil)

	todos, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, todos, 2)
}

func TestTodoService_Update(t *testing.T) {
	tests := []struct {
		name     string
		req      models.UpdateTodoRequest
		setup    func(repo *mocks.MockTodoRepository, pub *eventmocks.MockPublisher)
		wantKind apperr.Kind
		wantErr  bool
	}{
		{
			name: "partial update",
			req:  models.UpdateTodoRequest{Message: strPtr("done")},
			setup: func(repo *mocks.MockTodoRepository, pub *eventmocks.MockPublisher) {
				repo.EXPECT().Update(gomock.Any(), "t1", map[string]string{"message": "done"}).
					Return(&models.Todo{ID: "t1", Name: "A", Message: "done"}, nil)
				pub.EXPECT().Publish(gomock.Any(), eventOfType(events.TodoUpdated))
			},
		},
		{
			name:     "no fields",
			req:      models.UpdateTodoRequest{},
			setup:    func(*mocks.MockTodoRepository, *eventmocks.MockPublisher) {},
			wantErr:  true,
			wantKind: apperr.KindValidation,
		},
		{
			name:     "bad email",
			req:      models.UpdateTodoRequest{Email: strPtr("not-an-email")},
			setup:    func(*mocks.MockTodoRepository, *eventmocks.MockPublisher) {},
			wantErr:  true,
			wantKind: apperr.KindValidation,
		},
		{
			name: "missing todo",
			req:  models.UpdateTodoRequest{Name: strPtr("B")},
			setup: func(repo *mocks.MockTodoRepository, _ *eventmocks.MockPublisher) {
				repo.EXPECT().Update(gomock.Any(), "t1", gomock.Any()).Return(nil, repository.ErrNotFound)
			},
			wantErr:  true,
			wantKind: apperr.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newTestTodoService(t)
			tt.setup(repo, pub)

			todo, err := svc.Update(context.Background(), "t1", &tt.req)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "done", todo.Message)
		})
	}
}

func TestTodoService_Update_NoDataMessage(t *testing.T) {
	svc, _, _ := newTestTodoService(t)

	_, err := svc.Update(context.Background(), "t1", &models.UpdateTodoRequest{})
	assert.EqualError(t, err, "No data to update")
}

func TestTodoService_Delete(t *testing.T) {
	svc, repo, pub := newTestTodoService(t)
	repo.EXPECT().Delete(gomock.Any(), "t1").Return(nil)
	repo.EXPECT().Delete(gomock.Any(), "t1").Return(repository.ErrNotFound)
	pub.EXPECT().Publish(gomock.Any(), eventOfType(events.TodoDeleted)).Times(1)

	resp, err := svc.Delete(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Todo deleted successfully", resp.Message)

	_, err = svc.Delete(context.Background(), "t1")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
