package controller

import (
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/api/response"
	"ctchen222/todo-backend/internal/api/service"

	"github.com/gin-gonic/gin"
)

// TodoController handles the /api/todos routes.
type TodoController struct {
	todoService service.TodoService
}

// NewTodoController creates a new TodoController.
func NewTodoController(todoService service.TodoService) *TodoController {
	return &TodoController{todoService: todoService}
}

func (tc *TodoController) Create(c *gin.Context) {
	var req models.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	todo, err := tc.todoService.Create(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, todo)
}

func (tc *TodoController) List(c *gin.Context) {
	todos, err := tc.todoService.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.List(c, todos)
}

func (tc *TodoController) Get(c *gin.Context) {
	todo, err := tc.todoService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, todo)
}

// Update applies a partial update. Absent and null fields are left as they are.
func (tc *TodoController) Update(c *gin.Context) {
	var req models.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	todo, err := tc.todoService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, todo)
}

func (tc *TodoController) Delete(c *gin.Context) {
	resp, err := tc.todoService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, resp)
}
