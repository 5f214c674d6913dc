// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"logo-workers/internal/common/config"
	apperrors "logo-workers/internal/common/errors"

	_ "github.com/lib/pq"
)

const chatHistorySchema = `CREATE TABLE IF NOT EXISTS chat_history (
	id              BIGSERIAL PRIMARY KEY,
	user_id         TEXT NOT NULL,
	conversation_id TEXT,
	user_message    TEXT NOT NULL,
	ai_response     TEXT NOT NULL,
	image_prompt    TEXT,
	message_type    TEXT NOT NULL DEFAULT 'text',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const chatHistoryIndex = `CREATE INDEX IF NOT EXISTS chat_history_user_created_idx
	ON chat_history (user_id, created_at DESC, id DESC)`

// PostgresClient holds the pool behind conversation history.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}
	return NewPostgresFromDB(db, cfg), nil
}

// NewPostgresFromDB applies pool limits to an already opened handle.
func NewPostgresFromDB(db *sql.DB, cfg config.PostgresConfig) *PostgresClient {
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PostgresClient{DB: db}
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return apperrors.NewDatabaseConnectionFailedError(fmt.Errorf("postgres: %w", err))
	}
	return nil
}

// EnsureChatHistory creates the chat_history table and its lookup index.
func (c *PostgresClient) EnsureChatHistory(ctx context.Context) error {
	for _, stmt := range []string{chatHistorySchema, chatHistoryIndex} {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure chat_history: %w", err)
		}
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
