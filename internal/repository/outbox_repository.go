package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/dukaan-ai/orderdesk/internal/database"
	"github.com/dukaan-ai/orderdesk/internal/models"
	"github.com/dukaan-ai/orderdesk/pkg/logger"
)

// OutboxRepository handles database operations for outbox messages
type OutboxRepository struct {
	db     *database.Database
	logger logger.Logger
}

// NewOutboxRepository creates a new OutboxRepository
func NewOutboxRepository(db *database.Database, logger logger.Logger) *OutboxRepository {
	return &OutboxRepository{
		db:     db,
		logger: logger,
	}
}

// CreateInTx inserts a new outbox message within a transaction, so the event
// commits or rolls back together with the order change that produced it.
func (r *OutboxRepository) CreateInTx(tx *sqlx.Tx, message *models.OutboxMessage) error {
	query := `
		INSERT INTO outbox_messages (
			aggregate_type, aggregate_id, event_type, payload,
			created_at, status
		) VALUES (
			$1, $2, $3, $4, $5, $6
		) RETURNING id
	`

	var id int64

	err := tx.QueryRow(
		query,
		message.AggregateType,
		message.AggregateID,
		message.EventType,
		message.Payload,
		message.CreatedAt,
		message.Status,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to create outbox message", "error", err)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	message.ID = id
	return nil
}

// GetPendingMessages retrieves pending outbox messages from the database
func (r *OutboxRepository) GetPendingMessages(ctx context.Context, limit int) ([]*models.OutboxMessage, error) {
	query := `
		SELECT id, aggregate_type, aggregate_id, event_type, payload,
			   created_at, processed_at, processing_attempts, last_error, status
		FROM outbox_messages
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	var messages []*models.OutboxMessage

	err := r.db.DB.SelectContext(
		ctx,
		&messages,
		query,
		models.OutboxStatusPending,
		limit,
	)

	if err != nil {
		r.logger.Error("Failed to get pending outbox messages", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return messages, nil
}

// MarkAsProcessing updates the status of an outbox message to processing
func (r *OutboxRepository) MarkAsProcessing(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_messages
		SET status = $1, processing_attempts = processing_attempts + 1
		WHERE id = $2
	`

	_, err := r.db.DB.ExecContext(ctx, query, models.OutboxStatusProcessing, id)

	if err != nil {
		r.logger.Error("Failed to mark outbox message as processing", "error", err, "message_id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// MarkAsCompleted updates the status of an outbox message to completed
func (r *OutboxRepository) MarkAsCompleted(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_messages
		SET status = $1, processed_at = $2
		WHERE id = $3
	`

	_, err := r.db.DB.ExecContext(ctx, query, models.OutboxStatusCompleted, models.GetCurrentTime(), id)

	if err != nil {
		r.logger.Error("Failed to mark outbox message as completed", "error", err, "message_id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// MarkAsPending puts a message back to pending so a later poll retries it
func (r *OutboxRepository) MarkAsPending(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE outbox_messages
		SET status = $1, last_error = $2
		WHERE id = $3
	`

	_, err := r.db.DB.ExecContext(ctx, query, models.OutboxStatusPending, errorMessage, id)

	if err != nil {
		r.logger.Error("Failed to mark outbox message as pending", "error", err, "message_id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}

// MarkAsFailed updates the status of an outbox message to failed
func (r *OutboxRepository) MarkAsFailed(ctx context.Context, id int64, errorMessage string) error {
	query := `
		UPDATE outbox_messages
		SET status = $1, last_error = $2
		WHERE id = $3
	`

	_, err := r.db.DB.ExecContext(ctx, query, models.OutboxStatusFailed, errorMessage, id)

	if err != nil {
		r.logger.Error("Failed to mark outbox message as failed", "error", err, "message_id", id)
		return fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	return nil
}
