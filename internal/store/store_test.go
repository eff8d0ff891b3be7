package store

import (
	"context"
	"ctchen222/todo-backend/internal/db"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCollectionSuite exercises the Collection contract against st.
func runCollectionSuite(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		c, err := st.Collection(ctx, "todos", CollectionOptions{})
		require.NoError(t, err)

		id, err := c.InsertOne(ctx, Document{"name": "A", "email": "a@x.com", "message": "m"})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := c.FindOne(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, Document{IDField: id, "name": "A", "email": "a@x.com", "message": "m"}, doc)

		again, err := c.FindOne(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, doc, again)
	})

	t.Run("caller id is ignored", func(t *testing.T) {
		c, err := st.Collection(ctx, "ignored_ids", CollectionOptions{})
		require.NoError(t, err)

		id, err := c.InsertOne(ctx, Document{IDField: "chosen", "name": "A"})
		require.NoError(t, err)
		assert.NotEqual(t, "chosen", id)
	})

	t.Run("find lists in insertion order", func(t *testing.T) {
		c, err := st.Collection(ctx, "ordered", CollectionOptions{})
		require.NoError(t, err)

		var ids []string
		for _, name := range []string{"first", "second", "third"} {
			id, err := c.InsertOne(ctx, Document{"name": name})
			require.NoError(t, err)
			ids = append(ids, id)
		}

		docs, err := c.Find(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 3)
		for i, doc := range docs {
			assert.Equal(t, ids[i], doc[IDField])
		}
	})

	t.Run("find on empty collection", func(t *testing.T) {
		c, err := st.Collection(ctx, "empty", CollectionOptions{})
		require.NoError(t, err)

		docs, err := c.Find(ctx)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("partial update", func(t *testing.T) {
		c, err := st.Collection(ctx, "updates", CollectionOptions{})
		require.NoError(t, err)

		id, err := c.InsertOne(ctx, Document{"name": "A", "email": "a@x.com", "message": "m"})
		require.NoError(t, err)

		updated, err := c.UpdateOne(ctx, id, Document{"message": "m2"})
		require.NoError(t, err)
		assert.Equal(t, Document{IDField: id, "name": "A", "email": "a@x.com", "message": "m2"}, updated)

		same, err := c.UpdateOne(ctx, id, Document{"message": "m2"})
		require.NoError(t, err, "re-applying identical values must succeed")
		assert.Equal(t, updated, same)

		stored, err := c.FindOne(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, updated, stored)
	})

	t.Run("missing documents", func(t *testing.T) {
		c, err := st.Collection(ctx, "missing", CollectionOptions{})
		require.NoError(t, err)

		for _, id := range []string{"does-not-exist", "65f000000000000000000000"} {
			_, err = c.FindOne(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = c.UpdateOne(ctx, id, Document{"name": "B"})
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, c.DeleteOne(ctx, id), ErrNotFound)
		}
		_, err = c.FindOneBy(ctx, "name", "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		c, err := st.Collection(ctx, "deletes", CollectionOptions{})
		require.NoError(t, err)

		id, err := c.InsertOne(ctx, Document{"name": "A"})
		require.NoError(t, err)
		require.NoError(t, c.DeleteOne(ctx, id))

		_, err = c.FindOne(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, c.DeleteOne(ctx, id), ErrNotFound)

		docs, err := c.Find(ctx)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("unique fields", func(t *testing.T) {
		c, err := st.Collection(ctx, "users", CollectionOptions{Unique: []string{"email"}})
		require.NoError(t, err)

		id, err := c.InsertOne(ctx, Document{"username": "alice", "email": "alice@example.com"})
		require.NoError(t, err)

		_, err = c.InsertOne(ctx, Document{"username": "other", "email": "alice@example.com"})
		assert.ErrorIs(t, err, ErrDuplicate)

		found, err := c.FindOneBy(ctx, "email", "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, found[IDField])
		assert.Equal(t, "alice", found["username"])

		byName, err := c.FindOneBy(ctx, "username", "alice")
		require.NoError(t, err)
		assert.Equal(t, id, byName[IDField])

		_, err = c.UpdateOne(ctx, id, Document{"email": "new@example.com"})
		assert.ErrorIs(t, err, ErrImmutableField)

		require.NoError(t, c.DeleteOne(ctx, id))
		_, err = c.InsertOne(ctx, Document{"username": "alice2", "email": "alice@example.com"})
		assert.NoError(t, err, "deleting a document releases its unique values")
	})

	t.Run("concurrent unique inserts", func(t *testing.T) {
		c, err := st.Collection(ctx, "racers", CollectionOptions{Unique: []string{"email"}})
		require.NoError(t, err)

		const n = 8
		var wg sync.WaitGroup
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = c.InsertOne(ctx, Document{"email": "race@example.com"})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicate):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, succeeded)
	})
}

func TestMemoryStore(t *testing.T) {
	runCollectionSuite(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	pool, err := db.SQLiteConnect(ctx, filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitializeSchema(ctx, pool))

	st := NewSQLiteStore(pool)
	t.Cleanup(func() { st.Close(ctx) })

	runCollectionSuite(t, st)
}

func TestCheckSet(t *testing.T) {
	assert.NoError(t, checkSet(Document{"name": "x"}, []string{"email"}))
	assert.ErrorIs(t, checkSet(Document{"email": "x"}, []string{"email"}), ErrImmutableField)
	assert.ErrorIs(t, checkSet(Document{IDField: "x"}, nil), ErrImmutableField)
}
