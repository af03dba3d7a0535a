package repository

import (
	"context"
	"fmt"

	"otc-signals/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// ChannelRepository stores the Telegram destinations for scheduled broadcasts.
type ChannelRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewChannelRepository(pool PgxPool, tracer trace.Tracer) *ChannelRepository {
	return &ChannelRepository{pool: pool, tracer: tracer}
}

func (r *ChannelRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "channel-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS telegram_channels (
			id         TEXT        PRIMARY KEY,
			name       TEXT        NOT NULL,
			chat_id    TEXT        NOT NULL UNIQUE,
			enabled    BOOLEAN     NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("migrate telegram_channels: %w", err)
	}
	return nil
}

func (r *ChannelRepository) Create(ctx context.Context, name, chatID string) (domain.TelegramChannel, error) {
	_, span := r.tracer.Start(ctx, "channel-repo.create")
	defer span.End()

	ch := domain.TelegramChannel{ID: uuid.NewString(), Name: name, ChatID: chatID, Enabled: true}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO telegram_channels (id, name, chat_id, enabled)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (chat_id) DO UPDATE SET name = EXCLUDED.name, enabled = TRUE
		 RETURNING id`,
		ch.ID, ch.Name, ch.ChatID,
	)
	if err := row.Scan(&ch.ID); err != nil {
		return domain.TelegramChannel{}, fmt.Errorf("insert channel %s: %w", chatID, err)
	}
	return ch, nil
}

func (r *ChannelRepository) List(ctx context.Context) ([]domain.TelegramChannel, error) {
	_, span := r.tracer.Start(ctx, "channel-repo.list")
	defer span.End()
	return r.query(ctx, `SELECT id, name, chat_id, enabled FROM telegram_channels ORDER BY created_at ASC`)
}

func (r *ChannelRepository) ListEnabled(ctx context.Context) ([]domain.TelegramChannel, error) {
	_, span := r.tracer.Start(ctx, "channel-repo.list-enabled")
	defer span.End()
	return r.query(ctx, `SELECT id, name, chat_id, enabled FROM telegram_channels WHERE enabled = TRUE ORDER BY created_at ASC`)
}

func (r *ChannelRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	_, span := r.tracer.Start(ctx, "channel-repo.set-enabled")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `UPDATE telegram_channels SET enabled = $2 WHERE id = $1`, id, enabled)
	if err != nil {
		return fmt.Errorf("update channel %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

func (r *ChannelRepository) Delete(ctx context.Context, id string) error {
	_, span := r.tracer.Start(ctx, "channel-repo.delete")
	defer span.End()

	tag, err := r.pool.Exec(ctx, `DELETE FROM telegram_channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete channel %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChannelNotFound
	}
	return nil
}

func (r *ChannelRepository) query(ctx context.Context, sql string) ([]domain.TelegramChannel, error) {
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer rows.Close()

	channels := []domain.TelegramChannel{}
	for rows.Next() {
		var ch domain.TelegramChannel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.ChatID, &ch.Enabled); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}
