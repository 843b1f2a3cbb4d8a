package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"leadchat/pkg"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRepository is a file-backed Store. Messages keep insertion order through an
// autoincrement sequence column.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository opens (and migrates) the database at dsn. ":memory:" is accepted.
func NewSQLiteRepository(dsn string) (*SQLiteRepository, error) {
	if dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// a single connection serialises writers and keeps ":memory:" databases alive
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    lead_score INTEGER NOT NULL DEFAULT 0,
    budget_range TEXT NOT NULL DEFAULT '',
    timeline TEXT NOT NULL DEFAULT '',
    pain_points TEXT NOT NULL DEFAULT '[]',
    recommended_service TEXT NOT NULL DEFAULT '',
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    conversation_id TEXT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, seq);
CREATE TABLE IF NOT EXISTS leads (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL,
    company TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    score INTEGER NOT NULL,
    budget_range TEXT NOT NULL DEFAULT '',
    timeline TEXT NOT NULL DEFAULT '',
    pain_points TEXT NOT NULL DEFAULT '[]',
    recommended_service TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`)
	return err
}

func (s *SQLiteRepository) FindConversation(ctx context.Context, id string) (*pkg.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, session_id, status, lead_score, budget_range, timeline,
pain_points, recommended_service, metadata, created_at, updated_at FROM conversations WHERE id = ?`, id)

	var (
		conv                 pkg.Conversation
		pain, meta           string
		createdAt, updatedAt int64
	)
	err := row.Scan(&conv.ID, &conv.SessionID, &conv.Status, &conv.LeadScore, &conv.BudgetRange, &conv.Timeline,
		&pain, &conv.RecommendedService, &meta, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	if err := sonic.UnmarshalString(pain, &conv.PainPoints); err != nil {
		return nil, fmt.Errorf("failed to decode pain points: %w", err)
	}
	if err := sonic.UnmarshalString(meta, &conv.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	conv.CreatedAt = time.UnixMilli(createdAt)
	conv.UpdatedAt = time.UnixMilli(updatedAt)
	return &conv, nil
}

func (s *SQLiteRepository) CreateConversation(ctx context.Context, sessionID string, metadata map[string]any) (*pkg.Conversation, error) {
	conv := newConversation(uuid.NewString(), sessionID, metadata, s.now())

	pain, meta, err := encodeConversation(conv)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO conversations(id, session_id, status, lead_score, budget_range, timeline,
pain_points, recommended_service, metadata, created_at, updated_at) VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		conv.ID, conv.SessionID, conv.Status, conv.LeadScore, conv.BudgetRange, conv.Timeline,
		pain, conv.RecommendedService, meta, conv.CreatedAt.UnixMilli(), conv.UpdatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return conv, nil
}

func (s *SQLiteRepository) UpdateConversation(ctx context.Context, conversation *pkg.Conversation) error {
	conversation.UpdatedAt = s.now()

	pain, meta, err := encodeConversation(conversation)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE conversations SET status = ?, lead_score = ?, budget_range = ?, timeline = ?,
pain_points = ?, recommended_service = ?, metadata = ?, updated_at = ? WHERE id = ?`,
		conversation.Status, conversation.LeadScore, conversation.BudgetRange, conversation.Timeline,
		pain, conversation.RecommendedService, meta, conversation.UpdatedAt.UnixMilli(), conversation.ID)
	if err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %s: %w", conversation.ID, ErrNotFound)
	}
	return nil
}

func encodeConversation(conv *pkg.Conversation) (string, string, error) {
	pain, err := sonic.MarshalString(nonNil(conv.PainPoints))
	if err != nil {
		return "", "", fmt.Errorf("failed to encode pain points: %w", err)
	}
	meta := "{}"
	if conv.Metadata != nil {
		if meta, err = sonic.MarshalString(conv.Metadata); err != nil {
			return "", "", fmt.Errorf("failed to encode metadata: %w", err)
		}
	}
	return pain, meta, nil
}

func (s *SQLiteRepository) AppendMessage(ctx context.Context, conversationID string, role pkg.Role, content string) (*pkg.Message, error) {
	msg := &pkg.Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now(),
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO messages(id, conversation_id, role, content, created_at)
SELECT ?,?,?,?,? WHERE EXISTS (SELECT 1 FROM conversations WHERE id = ?)`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt.UnixMilli(), msg.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	return msg, nil
}

func (s *SQLiteRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]pkg.Message, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, conversation_id, role, content, created_at FROM (
    SELECT seq, id, conversation_id, role, content, created_at FROM messages
    WHERE conversation_id = ? ORDER BY seq DESC LIMIT ?
) ORDER BY seq ASC`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []pkg.Message
	for rows.Next() {
		var (
			msg       pkg.Message
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.CreatedAt = time.UnixMilli(createdAt)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (s *SQLiteRepository) FindLeadByConversation(ctx context.Context, conversationID string) (*pkg.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, conversation_id, name, email, company, phone, status, score,
budget_range, timeline, pain_points, recommended_service, created_at, updated_at FROM leads WHERE conversation_id = ?`, conversationID)

	var (
		lead                 pkg.Lead
		pain                 string
		createdAt, updatedAt int64
	)
	err := row.Scan(&lead.ID, &lead.ConversationID, &lead.Name, &lead.Email, &lead.Company, &lead.Phone, &lead.Status,
		&lead.Score, &lead.BudgetRange, &lead.Timeline, &pain, &lead.RecommendedService, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lead for conversation %s: %w", conversationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load lead: %w", err)
	}
	if err := sonic.UnmarshalString(pain, &lead.PainPoints); err != nil {
		return nil, fmt.Errorf("failed to decode pain points: %w", err)
	}
	lead.CreatedAt = time.UnixMilli(createdAt)
	lead.UpdatedAt = time.UnixMilli(updatedAt)
	return &lead, nil
}

func (s *SQLiteRepository) CreateLead(ctx context.Context, lead *pkg.Lead) error {
	pain, err := sonic.MarshalString(nonNil(lead.PainPoints))
	if err != nil {
		return fmt.Errorf("failed to encode pain points: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO leads(id, conversation_id, name, email, company, phone, status, score,
budget_range, timeline, pain_points, recommended_service, created_at, updated_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		lead.ID, lead.ConversationID, lead.Name, lead.Email, lead.Company, lead.Phone, lead.Status, lead.Score,
		lead.BudgetRange, lead.Timeline, pain, lead.RecommendedService, lead.CreatedAt.UnixMilli(), lead.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

func (s *SQLiteRepository) UpdateLead(ctx context.Context, lead *pkg.Lead) error {
	pain, err := sonic.MarshalString(nonNil(lead.PainPoints))
	if err != nil {
		return fmt.Errorf("failed to encode pain points: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE leads SET name = ?, email = ?, company = ?, phone = ?, status = ?, score = ?,
budget_range = ?, timeline = ?, pain_points = ?, recommended_service = ?, updated_at = ? WHERE id = ?`,
		lead.Name, lead.Email, lead.Company, lead.Phone, lead.Status, lead.Score,
		lead.BudgetRange, lead.Timeline, pain, lead.RecommendedService, lead.UpdatedAt.UnixMilli(), lead.ID)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("lead %s: %w", lead.ID, ErrNotFound)
	}
	return nil
}

func (s *SQLiteRepository) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
