package store

import (
	"context"
	"database/sql"
	"time"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/common/llm"
	"logo-workers/internal/models"
)

const (
	insertTurnQuery = `INSERT INTO chat_history
		(user_id, conversation_id, user_message, ai_response, image_prompt, message_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	recentTurnsQuery = `SELECT id, user_id, conversation_id, user_message, ai_response, image_prompt, message_type, created_at
		FROM chat_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
)

// PostgresHistoryStore keeps resolved turns in the chat_history table.
type PostgresHistoryStore struct {
	db *sql.DB
}

func NewPostgresHistoryStore(db *sql.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db}
}

// Append stores turn and returns its row id.
func (s *PostgresHistoryStore) Append(ctx context.Context, userID string, turn models.ConversationTurn) (int64, error) {
	if turn.MessageType == "" {
		turn.MessageType = models.MessageTypeText
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := s.db.QueryRowContext(ctx, insertTurnQuery,
		userID,
		nullString(turn.ConversationID),
		turn.UserMessage,
		turn.AIResponse,
		nullString(turn.ImagePrompt),
		turn.MessageType,
		turn.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, apperrors.NewStoreOperationFailedError("append history", err)
	}
	return id, nil
}

// Recent returns up to limit turns, oldest first.
func (s *PostgresHistoryStore) Recent(ctx context.Context, userID string, limit int) ([]models.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx, recentTurnsQuery, userID, limit)
	if err != nil {
		return nil, apperrors.NewStoreOperationFailedError("load history", err)
	}
	defer rows.Close()

	var turns []models.ConversationTurn
	for rows.Next() {
		var (
			t              models.ConversationTurn
			conversationID sql.NullString
			imagePrompt    sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &conversationID, &t.UserMessage, &t.AIResponse,
			&imagePrompt, &t.MessageType, &t.CreatedAt); err != nil {
			return nil, apperrors.NewStoreOperationFailedError("scan history", err)
		}
		t.ConversationID = conversationID.String
		t.ImagePrompt = imagePrompt.String
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreOperationFailedError("load history", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// HistoryMessages flattens turns into the user/assistant messages the
// language model expects.
func HistoryMessages(turns []models.ConversationTurn) []llm.Message {
	out := make([]llm.Message, 0, len(turns)*2)
	for _, t := range turns {
		if t.UserMessage != "" {
			out = append(out, llm.Message{Role: llm.RoleUser, Content: t.UserMessage})
		}
		if t.AIResponse != "" {
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: t.AIResponse})
		}
	}
	return out
}
