package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/webframp/changelogd/changelog"
)

var tracer = otel.Tracer("changelogd/db")

// Store keeps one changelog document, addressed by path, in sqlite.
type Store struct {
	DB   *sql.DB
	Path string
}

func NewStore(db *sql.DB, path string) *Store {
	return &Store{DB: db, Path: path}
}

// Revision is one accepted write.
type Revision struct {
	Version   int64
	Message   string
	CreatedAt time.Time
}

func startSpan(ctx context.Context, operation, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "sqlite"),
			attribute.String("db.operation", operation),
			attribute.String("store.path", path),
		),
	)
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (s *Store) Load(ctx context.Context) (*changelog.Document, changelog.Token, error) {
	ctx, span := startSpan(ctx, "load", s.Path)
	defer span.End()

	var content string
	var version int64
	err := s.DB.QueryRowContext(ctx,
		"SELECT content, version FROM documents WHERE path = ?", s.Path,
	).Scan(&content, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return changelog.NewDocument(), "", nil
	}
	if err != nil {
		fail(span, err)
		return nil, "", &changelog.StoreReadError{Body: err.Error()}
	}

	doc, err := changelog.Decode([]byte(content))
	if err != nil {
		fail(span, err)
		return nil, "", err
	}
	return doc, changelog.Token(strconv.FormatInt(version, 10)), nil
}

// Save inserts the document when token is empty and otherwise updates it only
// if the stored version still equals token.
func (s *Store) Save(ctx context.Context, doc *changelog.Document, token changelog.Token, message string) error {
	ctx, span := startSpan(ctx, "save", s.Path)
	defer span.End()

	content, err := changelog.Encode(doc)
	if err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		fail(span, err)
		return &changelog.StoreWriteError{Body: err.Error()}
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var next int64
	var res sql.Result
	if token == "" {
		next = 1
		res, err = tx.ExecContext(ctx,
			`INSERT INTO documents (path, content, version, message, updated_at)
			 VALUES (?, ?, 1, ?, ?) ON CONFLICT(path) DO NOTHING`,
			s.Path, string(content), message, now)
	} else {
		prev, perr := strconv.ParseInt(string(token), 10, 64)
		if perr != nil {
			return &changelog.StoreWriteError{Status: http.StatusConflict, Body: fmt.Sprintf("invalid token %q", token)}
		}
		next = prev + 1
		res, err = tx.ExecContext(ctx,
			`UPDATE documents SET content = ?, version = ?, message = ?, updated_at = ?
			 WHERE path = ? AND version = ?`,
			string(content), next, message, now, s.Path, prev)
	}
	if err != nil {
		fail(span, err)
		return &changelog.StoreWriteError{Body: err.Error()}
	}
	n, err := res.RowsAffected()
	if err != nil {
		fail(span, err)
		return &changelog.StoreWriteError{Body: err.Error()}
	}
	if n == 0 {
		err := &changelog.StoreWriteError{Status: http.StatusConflict, Body: s.Path + " was changed by another writer"}
		fail(span, err)
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO document_history (path, version, message, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.Path, next, message, string(content), now); err != nil {
		fail(span, err)
		return &changelog.StoreWriteError{Body: err.Error()}
	}
	if err := tx.Commit(); err != nil {
		fail(span, err)
		return &changelog.StoreWriteError{Body: err.Error()}
	}
	return nil
}

// History returns up to limit revisions, newest first. A limit of zero or
// less returns every revision.
func (s *Store) History(ctx context.Context, limit int) ([]Revision, error) {
	ctx, span := startSpan(ctx, "history", s.Path)
	defer span.End()

	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT version, message, created_at FROM document_history
		 WHERE path = ? ORDER BY version DESC LIMIT ?`, s.Path, limit)
	if err != nil {
		fail(span, err)
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var r Revision
		if err := rows.Scan(&r.Version, &r.Message, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
