package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gearrent-backend/internal/logger"

	"github.com/lib/pq"
)

const documentsSchema = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	version BIGINT NOT NULL,
	data JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
)`

var fieldName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// PostgresStore keeps every collection in one JSONB table and uses the
// version column for compare-and-swap.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the documents table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, documentsSchema)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	query := `SELECT version, data FROM documents WHERE collection = $1 AND id = $2`
	logger.StoreCall("get", collection, "id", id)

	var version int64
	var data []byte
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		logger.StoreResult("get", collection, err, "id", id)
		return nil, err
	}
	return decodeRow(id, version, data)
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, fields map[string]any, expectedVersion int64) (int64, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return 0, fmt.Errorf("failed to encode document: %w", err)
	}
	now := time.Now().UTC()

	var res sql.Result
	if expectedVersion == 0 {
		query := `INSERT INTO documents (collection, id, version, data, updated_at) VALUES ($1, $2, 1, $3, $4)
		          ON CONFLICT (collection, id) DO NOTHING`
		logger.StoreCall("create", collection, "id", id)
		res, err = s.db.ExecContext(ctx, query, collection, id, data, now)
	} else {
		query := `UPDATE documents SET version = version + 1, data = $1, updated_at = $2
		          WHERE collection = $3 AND id = $4 AND version = $5`
		logger.StoreCall("update", collection, "id", id, "expected_version", expectedVersion)
		res, err = s.db.ExecContext(ctx, query, data, now, collection, id, expectedVersion)
	}
	if err != nil {
		logger.StoreResult("put", collection, err, "id", id)
		return 0, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	var b strings.Builder
	b.WriteString(`SELECT id, version, data FROM documents WHERE collection = $1`)
	args := []any{collection}
	for _, f := range filters {
		if !fieldName.MatchString(f.Field) {
			return nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
		args = append(args, fmt.Sprint(f.Value))
		fmt.Fprintf(&b, ` AND data->>%s = $%d`, pq.QuoteLiteral(f.Field), len(args))
	}
	b.WriteString(` ORDER BY id`)

	logger.StoreCall("query", collection, "filters", len(filters))
	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		logger.StoreResult("query", collection, err)
		return nil, err
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		var id string
		var version int64
		var data []byte
		if err := rows.Scan(&id, &version, &data); err != nil {
			return nil, err
		}
		doc, err := decodeRow(id, version, data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string, expectedVersion int64) error {
	var res sql.Result
	var err error
	logger.StoreCall("delete", collection, "id", id)
	if expectedVersion == AnyVersion {
		res, err = s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2 AND version = $3`, collection, id, expectedVersion)
	}
	if err != nil {
		logger.StoreResult("delete", collection, err, "id", id)
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if expectedVersion == AnyVersion {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

func decodeRow(id string, version int64, data []byte) (*Document, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
	}
	return &Document{ID: id, Version: version, Fields: fields}, nil
}
