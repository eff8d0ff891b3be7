package service

import (
	"context"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/api/repository"
	"ctchen222/todo-backend/internal/apperr"
	"ctchen222/todo-backend/internal/events"
)

const resourceContact = "contact"

// ContactService defines contact-form operations.
type ContactService interface {
	Submit(ctx context.Context, req *models.ContactRequest) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
}

type contactService struct {
	contactRepo repository.ContactRepository
	publisher   events.Publisher
}

// NewContactService creates a new ContactService.
func NewContactService(contactRepo repository.ContactRepository, publisher events.Publisher) ContactService {
	return &contactService{contactRepo: contactRepo, publisher: publisher}
}

func (s *contactService) Submit(ctx context.Context, req *models.ContactRequest) (*models.Contact, error) {
	ctx, span := tracer.Start(ctx, "ContactService.Submit")
	defer span.End()

	contact, err := s.contactRepo.Create(ctx, &models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	})
	if err != nil {
		return nil, apperr.Upstream("failed to save contact", err)
	}

	s.publisher.Publish(ctx, events.NewEvent(events.ContactCreated, resourceContact, contact.ID, contact))
	return contact, nil
}

func (s *contactService) List(ctx context.Context) ([]models.Contact, error) {
	ctx, span := tracer.Start(ctx, "ContactService.List")
	defer span.End()

	contacts, err := s.contactRepo.List(ctx)
	if err != nil {
		return nil, apperr.Upstream("failed to list contacts", err)
	}
	return contacts, nil
}
