package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations run in order; each statement is idempotent.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "users table",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				telegram_id BIGINT PRIMARY KEY,
				username VARCHAR(255) NOT NULL DEFAULT '',
				points BIGINT NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_users_points ON users(points DESC);
		`,
	},
	{
		name: "game_sessions table",
		sql: `
			CREATE TABLE IF NOT EXISTS game_sessions (
				id TEXT PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				username VARCHAR(255) NOT NULL DEFAULT '',
				character_type VARCHAR(32) NOT NULL,
				ng_words TEXT[] NOT NULL DEFAULT '{}',
				status VARCHAR(16) NOT NULL DEFAULT 'active'
					CHECK (status IN ('active', 'completed', 'game_over')),
				message_count INT NOT NULL DEFAULT 0
					CHECK (message_count >= 0 AND message_count <= 20),
				play_date DATE NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_game_sessions_user_created ON game_sessions(user_id, created_at);
			CREATE UNIQUE INDEX IF NOT EXISTS uq_game_sessions_user_day_active
				ON game_sessions(user_id, play_date) WHERE status = 'active';
		`,
	},
	{
		name: "point_transactions table",
		sql: `
			CREATE TABLE IF NOT EXISTS point_transactions (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				amount BIGINT NOT NULL CHECK (amount <> 0),
				reason VARCHAR(120) NOT NULL,
				idempotency_key VARCHAR(128) UNIQUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_point_transactions_user_time ON point_transactions(user_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_point_transactions_time ON point_transactions(created_at);
		`,
	},
	{
		name: "chat_messages table",
		sql: `
			CREATE TABLE IF NOT EXISTS chat_messages (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
				session_id TEXT NOT NULL REFERENCES game_sessions(id) ON DELETE CASCADE,
				role VARCHAR(8) NOT NULL CHECK (role IN ('user', 'ai')),
				content TEXT NOT NULL,
				point INT,
				emotion VARCHAR(16),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, id);
		`,
	},
}

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")

	for i, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", i+1, m.name, err)
		}
		log.Info().Msgf("Migration %d: %s created", i+1, m.name)
	}

	log.Info().Msg("All migrations completed successfully")
	return nil
}
