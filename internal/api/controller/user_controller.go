package controller

import (
	"ctchen222/todo-backend/internal/api/middleware"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/api/response"
	"ctchen222/todo-backend/internal/api/service"

	"github.com/gin-gonic/gin"
)

// UserController handles user-related HTTP requests.
type UserController struct {
	userService service.UserService
}

// NewUserController creates a new UserController.
func NewUserController(userService service.UserService) *UserController {
	return &UserController{
		userService: userService,
	}
}

// Register handles the user registration endpoint.
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := uc.userService.Register(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, resp)
}

// Login handles the user login endpoint.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	resp, err := uc.userService.Login(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, resp)
}

// Me returns the account behind the bearer token.
func (uc *UserController) Me(c *gin.Context) {
	user, err := uc.userService.Me(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, user)
}
