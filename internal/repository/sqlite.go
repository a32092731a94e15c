package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/supportiq/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens dsn and applies migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS chatbots (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			business_name TEXT NOT NULL DEFAULT '',
			system_prompt TEXT NOT NULL DEFAULT '',
			primary_color TEXT NOT NULL DEFAULT '#6366f1',
			welcome_message TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT 'en',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			chatbot_id TEXT NOT NULL,
			visitor_id TEXT NOT NULL,
			language TEXT NOT NULL DEFAULT 'en',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_chatbot ON sessions(chatbot_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS messages (
			message_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tokens INTEGER,
			confidence REAL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(session_id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			chatbot_id TEXT NOT NULL,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			chunk_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// UpsertChatbot inserts or replaces a chatbot.
func (s *SQLiteStore) UpsertChatbot(ctx context.Context, bot *domain.Chatbot) error {
	if bot.CreatedAt.IsZero() {
		bot.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chatbots (id, name, business_name, system_prompt, primary_color, welcome_message, language, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			business_name = excluded.business_name,
			system_prompt = excluded.system_prompt,
			primary_color = excluded.primary_color,
			welcome_message = excluded.welcome_message,
			language = excluded.language,
			is_active = excluded.is_active`,
		bot.ID, bot.Name, bot.BusinessName, bot.SystemPrompt, bot.PrimaryColor, bot.WelcomeMessage, bot.Language, bot.IsActive, bot.CreatedAt)
	return err
}

// GetChatbot retrieves a chatbot by id, active or not.
func (s *SQLiteStore) GetChatbot(ctx context.Context, id string) (*domain.Chatbot, error) {
	var bot domain.Chatbot
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, business_name, system_prompt, primary_color, welcome_message, language, is_active, created_at
		FROM chatbots WHERE id = ?`, id).
		Scan(&bot.ID, &bot.Name, &bot.BusinessName, &bot.SystemPrompt, &bot.PrimaryColor, &bot.WelcomeMessage, &bot.Language, &bot.IsActive, &bot.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

// CreateSession creates a new session.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, chatbot_id, visitor_id, language, created_at) VALUES (?, ?, ?, ?, ?)`,
		session.SessionID, session.ChatbotID, session.VisitorID, session.Language, session.CreatedAt.UTC())
	return err
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id, chatbot_id, visitor_id, language, created_at FROM sessions WHERE session_id = ?`,
		sessionID).Scan(&session.SessionID, &session.ChatbotID, &session.VisitorID, &session.Language, &session.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateMessage inserts a message. Messages are never updated.
func (s *SQLiteStore) CreateMessage(ctx context.Context, message *domain.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (message_id, session_id, role, content, tokens, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		message.MessageID, message.SessionID, string(message.Role), message.Content,
		nullInt(message.Tokens), nullFloat(message.Confidence), message.CreatedAt.UTC())
	return err
}

// GetRecentMessages returns the newest messages of a session, newest first.
func (s *SQLiteStore) GetRecentMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	return s.queryMessages(ctx, `WHERE session_id = ? ORDER BY created_at DESC, rowid DESC`, sessionID, limit)
}

// GetMessages returns the messages of a session in chronological order.
func (s *SQLiteStore) GetMessages(ctx context.Context, sessionID string, limit int) ([]domain.Message, error) {
	return s.queryMessages(ctx, `WHERE session_id = ? ORDER BY created_at ASC, rowid ASC`, sessionID, limit)
}

// CountMessages returns how many messages a session holds.
func (s *SQLiteStore) CountMessages(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE session_id = ?`, sessionID).Scan(&n)
	return n, err
}

func (s *SQLiteStore) queryMessages(ctx context.Context, clause, sessionID string, limit int) ([]domain.Message, error) {
	query := `SELECT message_id, session_id, role, content, tokens, confidence, created_at FROM messages ` + clause
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		var role string
		var tokens sql.NullInt64
		var confidence sql.NullFloat64
		if err := rows.Scan(&msg.MessageID, &msg.SessionID, &role, &msg.Content, &tokens, &confidence, &msg.CreatedAt); err != nil {
			return nil, err
		}
		msg.Role = domain.Role(role)
		if tokens.Valid {
			n := int(tokens.Int64)
			msg.Tokens = &n
		}
		if confidence.Valid {
			c := confidence.Float64
			msg.Confidence = &c
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// CreateDocument registers a document awaiting ingestion.
func (s *SQLiteStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt
	if doc.Status == "" {
		doc.Status = domain.DocumentStatusPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, chatbot_id, name, type, status, chunk_count, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.ChatbotID, doc.Name, doc.Type, string(doc.Status), doc.ChunkCount, doc.CreatedAt, doc.UpdatedAt)
	return err
}

// GetDocument retrieves a document by id.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, chatbot_id, name, type, status, chunk_count, created_at, updated_at FROM documents WHERE id = ?`, id).
		Scan(&doc.ID, &doc.ChatbotID, &doc.Name, &doc.Type, &status, &doc.ChunkCount, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

// UpdateDocumentStatus sets status, and chunk_count when given.
func (s *SQLiteStore) UpdateDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, chunkCount *int) (*domain.Document, error) {
	query := `UPDATE documents SET status = ?, updated_at = ?`
	args := []interface{}{string(status), time.Now().UTC()}
	if chunkCount != nil {
		query += `, chunk_count = ?`
		args = append(args, *chunkCount)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return s.GetDocument(ctx, id)
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
