package server

import (
	"ctchen222/todo-backend/internal/api/controller"
	"ctchen222/todo-backend/internal/api/middleware"
	"ctchen222/todo-backend/internal/auth"
	"ctchen222/todo-backend/internal/config"
	"ctchen222/todo-backend/internal/validator"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	playground "github.com/go-playground/validator/v10"
)

var registerBindingTags sync.Once

// Controllers groups the HTTP handlers mounted by the server.
type Controllers struct {
	Users    *controller.UserController
	Todos    *controller.TodoController
	Contacts *controller.ContactController
	Events   *controller.EventsController
	System   *controller.SystemController
}

type Server struct {
	engine *gin.Engine
}

// NewServer builds the router. When authCfg.Required is false every route is
// public, except /api/users/me which needs a subject to resolve.
func NewServer(authCfg config.AuthConfig, tokens *auth.TokenService, ctrls Controllers) *Server {
	registerBindingTags.Do(func() {
		if v, ok := binding.Validator.Engine().(*playground.Validate); ok {
			if err := validator.RegisterTags(v); err != nil {
				slog.Error("Failed to register binding tags", "error", err)
			}
		}
	})

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.Telemetry(), middleware.RequestLogger())

	requireIdentity := middleware.RequireIdentity(tokens)
	protected := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if authCfg.Required {
			return []gin.HandlerFunc{requireIdentity, h}
		}
		return []gin.HandlerFunc{h}
	}

	engine.GET("/", ctrls.System.Root)
	engine.GET("/healthz", ctrls.System.Health)

	api := engine.Group("/api")
	{
		api.POST("/register", ctrls.Users.Register)
		api.POST("/login", ctrls.Users.Login)
		api.GET("/users/me", requireIdentity, ctrls.Users.Me)

		todos := api.Group("/todos")
		todos.GET("/", ctrls.Todos.List)
		todos.GET("/:id", ctrls.Todos.Get)
		todos.POST("/", protected(ctrls.Todos.Create)...)
		todos.PUT("/:id", protected(ctrls.Todos.Update)...)
		todos.DELETE("/:id", protected(ctrls.Todos.Delete)...)

		contacts := api.Group("/contacts")
		contacts.POST("/", ctrls.Contacts.Submit)
		contacts.GET("/data", protected(ctrls.Contacts.List)...)

		api.GET("/events", protected(ctrls.Events.Subscribe)...)
	}

	return &Server{engine: engine}
}

// Engine returns the configured gin engine, ready to serve.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
