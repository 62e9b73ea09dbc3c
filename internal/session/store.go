package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/docchat/internal/db"
)

// ErrSessionNotFound is returned when no session matches.
var ErrSessionNotFound = errors.New("session not found")

// Summary is a one-line description of a stored session.
type Summary struct {
	ID        string
	Mode      Source
	CreatedAt time.Time
	UpdatedAt time.Time
	Turns     int
}

// DocumentRecord notes one processed upload.
type DocumentRecord struct {
	ID          string
	Name        string
	Type        string
	Size        int64
	ContentHash string
	Chunks      int
	StagedPath  string
	ProcessedAt time.Time
}

// Store persists sessions in SQLite.
type Store struct {
	db *db.DB
}

// NewStore creates a Store over an open database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create starts and persists a new session.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	sess := New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, mode, tabular_source, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, string(sess.Mode), sess.TabularSource, sess.CreatedAt, sess.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return sess, nil
}

// Get loads a session and its turns.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	var (
		mode, tabular string
		createdAt     time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT mode, tabular_source, created_at FROM chat_sessions WHERE id = ?`, id,
	).Scan(&mode, &tabular, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	turns, err := s.turns(ctx, id)
	if err != nil {
		return nil, err
	}
	return Restore(id, createdAt, Source(mode), tabular, turns), nil
}

// Latest loads the most recently updated session.
func (s *Store) Latest(ctx context.Context) (*Session, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM chat_sessions ORDER BY updated_at DESC, created_at DESC LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest session: %w", err)
	}
	return s.Get(ctx, id)
}

// LatestOrCreate returns the latest session, creating one when none exist.
func (s *Store) LatestOrCreate(ctx context.Context) (*Session, error) {
	sess, err := s.Latest(ctx)
	if errors.Is(err, ErrSessionNotFound) {
		return s.Create(ctx)
	}
	return sess, err
}

// List returns every session, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.mode, s.created_at, s.updated_at, COUNT(t.id)
		 FROM chat_sessions s LEFT JOIN chat_turns t ON t.session_id = s.id
		 GROUP BY s.id ORDER BY s.updated_at DESC, s.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var mode string
		if err := rows.Scan(&sum.ID, &mode, &sum.CreatedAt, &sum.UpdatedAt, &sum.Turns); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.Mode = Source(mode)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// AppendTurn persists a turn at the end of the session.
func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn ChatTurn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var seq int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_turns WHERE session_id = ?`, sessionID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("counting turns: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_turns (id, session_id, seq, question, answer, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sessionID, seq, turn.Question, turn.Answer, string(turn.Source), turn.CreatedAt,
	); err != nil {
		return fmt.Errorf("adding turn: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = ? WHERE id = ?`, turn.CreatedAt, sessionID,
	); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return tx.Commit()
}

// SaveMode persists the session's question mode and tabular source.
func (s *Store) SaveMode(ctx context.Context, sess *Session) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE chat_sessions SET mode = ?, tabular_source = ?, updated_at = ? WHERE id = ?`,
		string(sess.Mode), sess.TabularSource, time.Now().UTC(), sess.ID,
	)
	if err != nil {
		return fmt.Errorf("updating session mode: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sess.ID)
	}
	return nil
}

func (s *Store) turns(ctx context.Context, sessionID string) ([]ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer, source, created_at FROM chat_turns
		 WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []ChatTurn
	for rows.Next() {
		var t ChatTurn
		var source string
		if err := rows.Scan(&t.Question, &t.Answer, &source, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Source = Source(source)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// RecordDocument notes a processed upload.
func (s *Store) RecordDocument(ctx context.Context, rec DocumentRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, type, size, content_hash, chunks, staged_path, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Type, rec.Size, rec.ContentHash, rec.Chunks, rec.StagedPath, rec.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("recording document: %w", err)
	}
	return nil
}

// ListDocuments returns processed uploads, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, size, content_hash, chunks, staged_path, processed_at
		 FROM documents ORDER BY processed_at DESC, name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRecord
	for rows.Next() {
		var r DocumentRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Type, &r.Size, &r.ContentHash, &r.Chunks, &r.StagedPath, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
