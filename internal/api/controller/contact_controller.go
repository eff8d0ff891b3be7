package controller

import (
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/api/response"
	"ctchen222/todo-backend/internal/api/service"

	"github.com/gin-gonic/gin"
)

// ContactController handles the contact form.
type ContactController struct {
	contactService service.ContactService
}

// NewContactController creates a new ContactController.
func NewContactController(contactService service.ContactService) *ContactController {
	return &ContactController{contactService: contactService}
}

func (cc *ContactController) Submit(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	contact, err := cc.contactService.Submit(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, contact)
}

func (cc *ContactController) List(c *gin.Context) {
	contacts, err := cc.contactService.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.List(c, contacts)
}
