package repository

import (
	"context"
	"ctchen222/todo-backend/internal/api/models"
	"ctchen222/todo-backend/internal/store"
	"fmt"
)

const ContactsCollection = "contacts"

// ContactRepository defines the interface for contact-form submissions.
type ContactRepository interface {
	Create(ctx context.Context, contact *models.Contact) (*models.Contact, error)
	List(ctx context.Context) ([]models.Contact, error)
}

type contactRepository struct {
	coll store.Collection
}

// NewContactRepository creates a ContactRepository over the contacts collection.
func NewContactRepository(coll store.Collection) ContactRepository {
	return &contactRepository{coll: coll}
}

func (r *contactRepository) Create(ctx context.Context, contact *models.Contact) (*models.Contact, error) {
	id, err := r.coll.InsertOne(ctx, store.Document{
		"name":    contact.Name,
		"email":   contact.Email,
		"message": contact.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	created := *contact
	created.ID = id
	return &created, nil
}

func (r *contactRepository) List(ctx context.Context) ([]models.Contact, error) {
	docs, err := r.coll.Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	contacts := make([]models.Contact, 0, len(docs))
	for _, doc := range docs {
		contacts = append(contacts, models.Contact{
			ID:      doc[store.IDField],
			Name:    doc["name"],
			Email:   doc["email"],
			Message: doc["message"],
		})
	}
	return contacts, nil
}
