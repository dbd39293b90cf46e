package webhook

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Delivery is one recorded terminal delivery outcome. The log is an audit
// trail for the settings surface: entries are never replayed.
type Delivery struct {
	ID          string    `json:"id"`
	Intention   string    `json:"intention"`
	PageURL     string    `json:"page_url"`
	Destination string    `json:"destination"`
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
}

// timeLayout keeps trailing zeros so lexicographic order matches time
// order in SQL.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// History persists the delivery log.
type History struct {
	db *sql.DB
}

// NewHistory creates a delivery log over the given database.
func NewHistory(db *sql.DB) *History {
	return &History{db: db}
}

// Record inserts one delivery outcome, assigning its ID and timestamp.
func (h *History) Record(ctx context.Context, d *Delivery) error {
	d.ID = uuid.New().String()
	d.CreatedAt = time.Now().UTC()

	success := 0
	if d.Success {
		success = 1
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO deliveries (id, intention, page_url, destination, success, message, attempts, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.Intention, d.PageURL, d.Destination, success, d.Message, d.Attempts, d.CreatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting delivery: %w", err)
	}
	return nil
}

// Recent returns up to limit deliveries, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, intention, page_url, destination, success, message, attempts, created_at
		FROM deliveries ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing deliveries: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var deliveries []Delivery
	for rows.Next() {
		var d Delivery
		var success int
		var createdAt string
		if err := rows.Scan(&d.ID, &d.Intention, &d.PageURL, &d.Destination, &success, &d.Message, &d.Attempts, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning delivery: %w", err)
		}
		d.Success = success != 0
		d.CreatedAt, _ = time.Parse(timeLayout, createdAt)
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// Prune removes all but the newest keep entries.
func (h *History) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		keep = 500
	}
	_, err := h.db.ExecContext(ctx, `
		DELETE FROM deliveries WHERE id NOT IN (
			SELECT id FROM deliveries ORDER BY created_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning deliveries: %w", err)
	}
	return nil
}
