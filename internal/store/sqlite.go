package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SQLiteStore keeps documents as JSON rows. Unique values live in
// document_keys, whose primary key rejects duplicates.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore wraps a database whose schema has been initialized with
// db.InitializeSchema.
func NewSQLiteStore(db *sqlx.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Collection(_ context.Context, name string, opts CollectionOptions) (Collection, error) {
	return &sqliteCollection{db: s.db, name: name, unique: opts.Unique}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}

type sqliteCollection struct {
	db     *sqlx.DB
	name   string
	unique []string
}

type documentRow struct {
	ID   string `db:"id"`
	Body string `db:"body"`
}

func (r documentRow) document() (Document, error) {
	doc := Document{}
	if err := json.Unmarshal([]byte(r.Body), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", r.ID, err)
	}
	doc[IDField] = r.ID
	return doc, nil
}

func (c *sqliteCollection) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "SQLiteCollection."+op, trace.WithAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.collection", c.name),
	))
}

func (c *sqliteCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	ctx, span := c.start(ctx, "InsertOne")
	defer span.End()

	stored := withoutID(doc)
	body, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	id := uuid.New().String()

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, field := range c.unique {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO document_keys (collection, field, value, id) VALUES (?, ?, ?, ?)`,
			c.name, field, stored[field], id)
		if err != nil {
			if isUniqueViolation(err) {
				return "", ErrDuplicate
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to claim unique value")
			return "", fmt.Errorf("failed to claim unique %s: %w", field, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`,
		c.name, id, string(body)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return "", fmt.Errorf("failed to insert into %s: %w", c.name, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit insert: %w", err)
	}
	return id, nil
}

func (c *sqliteCollection) FindOne(ctx context.Context, id string) (Document, error) {
	ctx, span := c.start(ctx, "FindOne")
	defer span.End()

	var row documentRow
	err := c.db.GetContext(ctx, &row,
		`SELECT id, body FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	return c.rowResult(row, err, span)
}

func (c *sqliteCollection) FindOneBy(ctx context.Context, field, value string) (Document, error) {
	ctx, span := c.start(ctx, "FindOneBy")
	defer span.End()
	span.SetAttributes(attribute.String("db.field", field))

	if field == IDField {
		return c.FindOne(ctx, value)
	}

	var row documentRow
	var err error
	if isUnique(c.unique, field) {
		err = c.db.GetContext(ctx, &row, `
			SELECT d.id, d.body FROM documents d
			JOIN document_keys k ON k.collection = d.collection AND k.id = d.id
			WHERE k.collection = ? AND k.field = ? AND k.value = ?`,
			c.name, field, value)
	} else {
		err = c.db.GetContext(ctx, &row, `
			SELECT id, body FROM documents
			WHERE collection = ? AND json_extract(body, ?) = ?
			ORDER BY seq LIMIT 1`,
			c.name, jsonPath(field), value)
	}
	return c.rowResult(row, err, span)
}

func (c *sqliteCollection) Find(ctx context.Context) ([]Document, error) {
	ctx, span := c.start(ctx, "Find")
	defer span.End()

	var rows []documentRow
	if err := c.db.SelectContext(ctx, &rows,
		`SELECT id, body FROM documents WHERE collection = ? ORDER BY seq`, c.name); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := row.document()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (c *sqliteCollection) UpdateOne(ctx context.Context, id string, set Document) (Document, error) {
	ctx, span := c.start(ctx, "UpdateOne")
	defer span.End()

	if err := checkSet(set, c.unique); err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return c.FindOne(ctx, id)
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var row documentRow
	err = tx.GetContext(ctx, &row,
		`SELECT id, body FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	doc, err := c.rowResult(row, err, span)
	if err != nil {
		return nil, err
	}

	for k, v := range set {
		doc[k] = v
	}
	body, err := json.Marshal(withoutID(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`,
		string(body), c.name, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("failed to update %s: %w", c.name, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return doc, nil
}

func (c *sqliteCollection) DeleteOne(ctx context.Context, id string) error {
	ctx, span := c.start(ctx, "DeleteOne")
	defer span.End()

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, c.name, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return fmt.Errorf("failed to delete from %s: %w", c.name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_keys WHERE collection = ? AND id = ?`, c.name, id); err != nil {
		return fmt.Errorf("failed to release unique values: %w", err)
	}
	return tx.Commit()
}

func (c *sqliteCollection) rowResult(row documentRow, err error, span trace.Span) (Document, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, fmt.Errorf("failed to read from %s: %w", c.name, err)
	}
	return row.document()
}

func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: PRIMARY KEY")
}
