package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore keeps each document in a hash and tracks insertion order in a
// sorted set. Unique values are claimed with SETNX on index keys.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an already connected client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Collection(_ context.Context, name string, opts CollectionOptions) (Collection, error) {
	return &redisCollection{rdb: s.rdb, name: name, unique: opts.Unique}, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close(context.Context) error {
	return s.rdb.Close()
}

type redisCollection struct {
	rdb    *redis.Client
	name   string
	unique []string
}

func (c *redisCollection) docKey(id string) string {
	return fmt.Sprintf("%s:doc:%s", c.name, id)
}

func (c *redisCollection) idsKey() string {
	return fmt.Sprintf("%s:ids", c.name)
}

func (c *redisCollection) uniqueKey(field, value string) string {
	return fmt.Sprintf("%s:uniq:%s:%s", c.name, field, value)
}

func (c *redisCollection) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "RedisCollection."+op, trace.WithAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.collection", c.name),
	))
}

func (c *redisCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	ctx, span := c.start(ctx, "InsertOne")
	defer span.End()

	id := uuid.New().String()
	stored := withoutID(doc)

	var claimed []string
	release := func() {
		if len(claimed) > 0 {
			c.rdb.Del(ctx, claimed...)
		}
	}
	for _, field := range c.unique {
		key := c.uniqueKey(field, stored[field])
		ok, err := c.rdb.SetNX(ctx, key, id, 0).Result()
		if err != nil {
			release()
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to claim unique value")
			return "", fmt.Errorf("failed to claim unique %s: %w", field, err)
		}
		if !ok {
			release()
			return "", ErrDuplicate
		}
		claimed = append(claimed, key)
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.docKey(id), toHash(stored))
		pipe.ZAdd(ctx, c.idsKey(), &redis.Z{Score: float64(time.Now().UnixNano()), Member: id})
		return nil
	})
	if err != nil {
		release()
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return "", fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	return id, nil
}

func (c *redisCollection) FindOne(ctx context.Context, id string) (Document, error) {
	ctx, span := c.start(ctx, "FindOne")
	defer span.End()

	data, err := c.rdb.HGetAll(ctx, c.docKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hgetall failed")
		return nil, fmt.Errorf("failed to read from %s: %w", c.name, err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return withID(data, id), nil
}

func (c *redisCollection) FindOneBy(ctx context.Context, field, value string) (Document, error) {
	ctx, span := c.start(ctx, "FindOneBy")
	defer span.End()
	span.SetAttributes(attribute.String("db.field", field))

	if field == IDField {
		return c.FindOne(ctx, value)
	}
	if isUnique(c.unique, field) {
		id, err := c.rdb.Get(ctx, c.uniqueKey(field, value)).Result()
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "unique lookup failed")
			return nil, fmt.Errorf("failed to look up %s.%s: %w", c.name, field, err)
		}
		return c.FindOne(ctx, id)
	}

	docs, err := c.Find(ctx)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if doc[field] == value {
			return doc, nil
		}
	}
	return nil, ErrNotFound
}

func (c *redisCollection) Find(ctx context.Context) ([]Document, error) {
	ctx, span := c.start(ctx, "Find")
	defer span.End()

	ids, err := c.rdb.ZRange(ctx, c.idsKey(), 0, -1).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "zrange failed")
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}

	pipe := c.rdb.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, c.docKey(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "pipeline failed")
			return nil, fmt.Errorf("failed to read %s: %w", c.name, err)
		}
	}

	docs := make([]Document, 0, len(ids))
	for i, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			// Deleted between ZRANGE and HGETALL.
			continue
		}
		docs = append(docs, withID(data, ids[i]))
	}
	return docs, nil
}

func (c *redisCollection) UpdateOne(ctx context.Context, id string, set Document) (Document, error) {
	ctx, span := c.start(ctx, "UpdateOne")
	defer span.End()

	if err := checkSet(set, c.unique); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return c.FindOne(ctx, id)
	}

	key := c.docKey(id)
	var updated map[string]string
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		var all *redis.StringStringMapCmd
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, toHash(set))
			all = pipe.HGetAll(ctx, key)
			return nil
		})
		if err != nil {
			return err
		}
		updated = all.Val()
		return nil
	}, key)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("failed to update %s: %w", c.name, err)
	}
	return withID(updated, id), nil
}

func (c *redisCollection) DeleteOne(ctx context.Context, id string) error {
	ctx, span := c.start(ctx, "DeleteOne")
	defer span.End()

	key := c.docKey(id)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return ErrNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, c.idsKey(), id)
			for _, field := range c.unique {
				pipe.Del(ctx, c.uniqueKey(field, data[field]))
			}
			return nil
		})
		return err
	}, key)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	return nil
}

func toHash(doc Document) map[string]interface{} {
	values := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		values[k] = v
	}
	return values
}
