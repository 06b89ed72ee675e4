package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"presence-hub/internal/models"
)

// ErrStorageUnavailable marks transient storage collaborator failures. The
// hub degrades to log-and-continue on it; realtime delivery never waits.
var ErrStorageUnavailable = errors.New("storage unavailable")

// MessageRepository is the durable side of the message pipeline.
type MessageRepository interface {
	AppendMessage(ctx context.Context, roomID, sender, body string, createdAt time.Time) (int64, error)
	MarkRoomRead(ctx context.Context, roomID string) (int, error)
	ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// AppendMessage durably appends a message and returns its ID.
func (r *MessageRepo) AppendMessage(ctx context.Context, roomID, sender, body string, createdAt time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (room_id, sender, body, status, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		roomID, sender, body, models.DeliverySent, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: append message: %v", ErrStorageUnavailable, err)
	}
	return id, nil
}

// MarkRoomRead bulk-transitions every unread message of a room to read and
// returns the number of rows updated. Messages already read are untouched.
func (r *MessageRepo) MarkRoomRead(ctx context.Context, roomID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET status=$1 WHERE room_id=$2 AND status<>$1`,
		models.DeliveryRead, roomID)
	if err != nil {
		return 0, fmt.Errorf("%w: mark room read: %v", ErrStorageUnavailable, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: mark room read: %v", ErrStorageUnavailable, err)
	}
	return int(count), nil
}

// ListRoomMessages returns a room's messages in creation order.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, room_id, sender, body, status, created_at FROM messages WHERE room_id=$1 ORDER BY created_at ASC`,
		roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: list room messages: %v", ErrStorageUnavailable, err)
	}
	return msgs, nil
}
