package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps collections in process memory.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]*memoryCollection
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// Collection returns the named collection, creating it on first use.
func (s *MemoryStore) Collection(_ context.Context, name string, opts CollectionOptions) (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		return c, nil
	}
	c := &memoryCollection{
		unique: opts.Unique,
		docs:   make(map[string]Document),
	}
	s.collections[name] = c
	return c, nil
}

func (s *MemoryStore) Ping(context.Context) error  { return nil }
func (s *MemoryStore) Close(context.Context) error { return nil }

type memoryCollection struct {
	mu     sync.RWMutex
	unique []string
	order  []string
	docs   map[string]Document
}

func (c *memoryCollection) InsertOne(_ context.Context, doc Document) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := withoutID(doc)
	for _, field := range c.unique {
		for _, existing := range c.docs {
			if existing[field] == stored[field] {
				return "", ErrDuplicate
			}
		}
	}

	id := uuid.New().String()
	c.docs[id] = stored
	c.order = append(c.order, id)
	return id, nil
}

func (c *memoryCollection) FindOne(_ context.Context, id string) (Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return withID(doc, id), nil
}

func (c *memoryCollection) FindOneBy(_ context.Context, field, value string) (Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, id := range c.order {
		if c.docs[id][field] == value {
			return withID(c.docs[id], id), nil
		}
	}
	return nil, ErrNotFound
}

func (c *memoryCollection) Find(context.Context) ([]Document, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	docs := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		docs = append(docs, withID(c.docs[id], id))
	}
	return docs, nil
}

func (c *memoryCollection) UpdateOne(ctx context.Context, id string, set Document) (Document, error) {
	if err := checkSet(set, c.unique); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return c.FindOne(ctx, id)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	updated := doc.Clone()
	for k, v := range set {
		updated[k] = v
	}
	c.docs[id] = updated
	return withID(updated, id), nil
}

func (c *memoryCollection) DeleteOne(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func withID(doc Document, id string) Document {
	out := doc.Clone()
	out[IDField] = id
	return out
}
