// Package store provides document collections keyed by generated string
// identifiers, with MongoDB, Redis, SQLite and in-memory backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("store")

// IDField is the key under which a document's identifier is returned.
const IDField = "id"

var (
	ErrNotFound       = errors.New("document not found")
	ErrDuplicate      = errors.New("duplicate value for unique field")
	ErrImmutableField = errors.New("unique fields cannot be updated")
)

// Document is a flat set of string fields.
type Document map[string]string

// Clone returns a copy of d.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// CollectionOptions configure a collection when it is opened.
type CollectionOptions struct {
	// Unique lists fields whose values must not repeat within the collection.
	Unique []string
}

// Collection is a set of documents supporting single-document operations.
type Collection interface {
	InsertOne(ctx context.Context, doc Document) (string, error)
	FindOne(ctx context.Context, id string) (Document, error)
	FindOneBy(ctx context.Context, field, value string) (Document, error)
	Find(ctx context.Context) ([]Document, error)
	// UpdateOne applies set to the document with $set semantics and returns the result.
	UpdateOne(ctx context.Context, id string, set Document) (Document, error)
	DeleteOne(ctx context.Context, id string) error
}

// Store hands out collections backed by one database.
type Store interface {
	Collection(ctx context.Context, name string, opts CollectionOptions) (Collection, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// checkSet rejects writes of the id field and of unique fields.
func checkSet(set Document, unique []string) error {
	if _, ok := set[IDField]; ok {
		return fmt.Errorf("%w: %s", ErrImmutableField, IDField)
	}
	for _, field := range unique {
		if _, ok := set[field]; ok {
			return fmt.Errorf("%w: %s", ErrImmutableField, field)
		}
	}
	return nil
}

// withoutID copies doc minus the id field, which backends manage themselves.
func withoutID(doc Document) Document {
	out := doc.Clone()
	delete(out, IDField)
	return out
}

func isUnique(unique []string, field string) bool {
	for _, f := range unique {
		if f == field {
			return true
		}
	}
	return false
}
