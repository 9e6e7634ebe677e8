// Package store provides SQLite-based persistence for conversation records.
// The schema is created on open; callers construct the store first and pass
// it to whatever needs it.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/nicofic01/chatbot-backend/internal/fault"
)

const schema = `CREATE TABLE IF NOT EXISTS conversations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_message TEXT NOT NULL,
	ai_response TEXT NOT NULL,
	user_email TEXT,
	timestamp DATETIME NOT NULL
);`

// Store is the durable conversation store backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and ensures
// the conversations table exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		return nil, &fault.StorageError{Op: "open", Err: err}
	}
	// SQLite serializes writers; a single connection avoids busy errors
	// under concurrent inserts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, &fault.StorageError{Op: "migrate", Err: err}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert writes one exchange durably and returns the stored record with its
// engine-assigned id and the insert timestamp. userEmail may be empty; it is
// stored as NULL. Safe for concurrent callers.
func (s *Store) Insert(ctx context.Context, userMessage, aiResponse, userEmail string) (ConversationRecord, error) {
	now := time.Now().UTC()
	email := sql.NullString{String: userEmail, Valid: userEmail != ""}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (user_message, ai_response, user_email, timestamp) VALUES (?, ?, ?, ?);`,
		userMessage, aiResponse, email, now)
	if err != nil {
		return ConversationRecord{}, &fault.StorageError{Op: "insert", Err: err}
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ConversationRecord{}, &fault.StorageError{Op: "insert", Err: err}
	}

	return ConversationRecord{
		ID:          id,
		UserMessage: userMessage,
		AIResponse:  aiResponse,
		UserEmail:   userEmail,
		Timestamp:   now,
	}, nil
}

// List returns all records ordered by timestamp descending. An empty store
// yields an empty slice, not an error.
func (s *Store) List(ctx context.Context) ([]ConversationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_message, ai_response, user_email, timestamp FROM conversations ORDER BY timestamp DESC, id DESC;`)
	if err != nil {
		return nil, &fault.StorageError{Op: "list", Err: err}
	}
	defer rows.Close()

	out := make([]ConversationRecord, 0)
	for rows.Next() {
		var r ConversationRecord
		var email sql.NullString
		if err := rows.Scan(&r.ID, &r.UserMessage, &r.AIResponse, &email, &r.Timestamp); err != nil {
			return nil, &fault.StorageError{Op: "list", Err: err}
		}
		r.UserEmail = email.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &fault.StorageError{Op: "list", Err: err}
	}
	return out, nil
}

// DeleteByID removes the record with the given id. Deleting a missing id is
// not an error; the operation simply has no effect.
func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?;`, id); err != nil {
		return &fault.StorageError{Op: "delete", Err: err}
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations;`).Scan(&n); err != nil {
		return 0, &fault.StorageError{Op: "count", Err: err}
	}
	return n, nil
}
