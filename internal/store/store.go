// Package store persists users and their document history in Postgres.
// Active sessions never touch the database; only the raw extracted text is
// kept so a document can be reopened later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"

	"github.com/civitas-ai/civitas/models"
)

type Store struct {
	DB *sql.DB
}

func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// User operations
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// DocumentRecord is one row of a user's upload history.
type DocumentRecord struct {
	ID        string
	UserID    string
	Title     string
	Kind      string
	RawText   string
	CreatedAt time.Time
}

// Document operations
func (s *Store) CreateDocument(ctx context.Context, userID, title, kind, rawText string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO documents (user_id, title, kind, raw_text) VALUES ($1,$2,$3,$4) RETURNING id`,
		userID, title, kind, rawText).Scan(&id)
	return id, err
}

func (s *Store) ListDocuments(ctx context.Context, userID string) ([]DocumentRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_id, title, kind, created_at FROM documents WHERE user_id=$1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		if err := rows.Scan(&d.ID, &d.UserID, &d.Title, &d.Kind, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDocument(ctx context.Context, id, userID string) (DocumentRecord, error) {
	var d DocumentRecord
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, title, kind, raw_text, created_at FROM documents WHERE id=$1 AND user_id=$2`,
		id, userID).Scan(&d.ID, &d.UserID, &d.Title, &d.Kind, &d.RawText, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return DocumentRecord{}, models.ErrDocumentNotFound
	}
	return d, err
}

func (s *Store) DeleteDocument(ctx context.Context, id, userID string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM documents WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrDocumentNotFound
	}
	return nil
}
