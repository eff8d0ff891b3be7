package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MongoStore serves collections from one MongoDB database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore wraps an already connected client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		db:     client.Database(database),
	}
}

// Collection returns the named collection and makes sure a unique index
// exists for every unique field.
func (s *MongoStore) Collection(ctx context.Context, name string, opts CollectionOptions) (Collection, error) {
	ctx, span := tracer.Start(ctx, "MongoStore.Collection", trace.WithAttributes(
		attribute.String("db.collection", name),
	))
	defer span.End()

	coll := s.db.Collection(name)
	for _, field := range opts.Unique {
		_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create unique index")
			return nil, fmt.Errorf("failed to create unique index on %s.%s: %w", name, field, err)
		}
	}
	return &mongoCollection{coll: coll, name: name, unique: opts.Unique}, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type mongoCollection struct {
	coll   *mongo.Collection
	name   string
	unique []string
}

func (c *mongoCollection) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "MongoCollection."+op, trace.WithAttributes(
		attribute.String("db.system", "mongodb"),
		attribute.String("db.collection", c.name),
	))
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	ctx, span := c.start(ctx, "InsertOne")
	defer span.End()

	res, err := c.coll.InsertOne(ctx, toBSON(withoutID(doc)))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicate
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return "", fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (c *mongoCollection) FindOne(ctx context.Context, id string) (Document, error) {
	ctx, span := c.start(ctx, "FindOne")
	defer span.End()

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// A string that is not an ObjectID cannot name a stored document.
		return nil, ErrNotFound
	}
	return c.decodeOne(c.coll.FindOne(ctx, bson.M{"_id": oid}), span)
}

func (c *mongoCollection) FindOneBy(ctx context.Context, field, value string) (Document, error) {
	ctx, span := c.start(ctx, "FindOneBy")
	defer span.End()
	span.SetAttributes(attribute.String("db.field", field))

	if field == IDField {
		return c.FindOne(ctx, value)
	}
	return c.decodeOne(c.coll.FindOne(ctx, bson.M{field: value}), span)
}

func (c *mongoCollection) Find(ctx context.Context) ([]Document, error) {
	ctx, span := c.start(ctx, "Find")
	defer span.End()

	cursor, err := c.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "find failed")
		return nil, fmt.Errorf("failed to query %s: %w", c.name, err)
	}
	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cursor decode failed")
		return nil, fmt.Errorf("failed to decode %s: %w", c.name, err)
	}

	docs := make([]Document, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, fromBSON(m))
	}
	return docs, nil
}

func (c *mongoCollection) UpdateOne(ctx context.Context, id string, set Document) (Document, error) {
	ctx, span := c.start(ctx, "UpdateOne")
	defer span.End()

	if err := checkSet(set, c.unique); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return c.FindOne(ctx, id)
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	res := c.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": toBSON(set)},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	return c.decodeOne(res, span)
}

func (c *mongoCollection) DeleteOne(ctx context.Context, id string) error {
	ctx, span := c.start(ctx, "DeleteOne")
	defer span.End()

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *mongoCollection) decodeOne(res *mongo.SingleResult, span trace.Span) (Document, error) {
	var m bson.M
	if err := res.Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return nil, fmt.Errorf("failed to read from %s: %w", c.name, err)
	}
	return fromBSON(m), nil
}

func toBSON(doc Document) bson.M {
	m := make(bson.M, len(doc))
	for k, v := range doc {
		m[k] = v
	}
	return m
}

func fromBSON(m bson.M) Document {
	doc := make(Document, len(m))
	for k, v := range m {
		if k == "_id" {
			if oid, ok := v.(bson.ObjectID); ok {
				doc[IDField] = oid.Hex()
			} else {
				doc[IDField] = fmt.Sprint(v)
			}
			continue
		}
		if s, ok := v.(string); ok {
			doc[k] = s
		} else {
			doc[k] = fmt.Sprint(v)
		}
	}
	return doc
}
