package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SlotRepository defines persistence operations for media slots.
type SlotRepository interface {
	Create(ctx context.Context, slot *Slot) error
	GetByID(ctx context.Context, id string) (*Slot, error)
	GetByKey(ctx context.Context, key string) (*Slot, error)
	List(ctx context.Context) ([]*Slot, error)
	Update(ctx context.Context, slot *Slot) error
	Delete(ctx context.Context, id string) error
}

// SQLiteSlotRepository implements SlotRepository backed by SQLite.
type SQLiteSlotRepository struct {
	db *sql.DB
}

// NewSlotRepository creates a SQLite-backed slot repository.
func NewSlotRepository(db *sql.DB) *SQLiteSlotRepository {
	return &SQLiteSlotRepository{db: db}
}

const slotColumns = `id, key, kind, title, url, embed_id, owner_id, updated_by, created_at, updated_at`

// Create inserts a new slot. The ID is generated if empty.
func (r *SQLiteSlotRepository) Create(ctx context.Context, slot *Slot) error {
	if err := slot.Validate(); err != nil {
		return err
	}
	if slot.ID == "" {
		slot.ID = "slot-" + uuid.New().String()[:8]
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	query := `INSERT INTO media_slots (` + slotColumns + `)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.Key,
		string(slot.Kind),
		slot.Title,
		nullString(slot.URL),
		nullString(slot.EmbedID),
		slot.OwnerID,
		nullString(slot.UpdatedBy),
		slot.CreatedAt.Format(time.RFC3339),
		slot.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrKeyExists
		}
		return fmt.Errorf("failed to create slot: %w", err)
	}
	return nil
}

// GetByID retrieves a slot by its ID.
func (r *SQLiteSlotRepository) GetByID(ctx context.Context, id string) (*Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM media_slots WHERE id = ?`
	return r.scanSlot(r.db.QueryRowContext(ctx, query, id))
}

// GetByKey retrieves a slot by its unique key.
func (r *SQLiteSlotRepository) GetByKey(ctx context.Context, key string) (*Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM media_slots WHERE key = ?`
	return r.scanSlot(r.db.QueryRowContext(ctx, query, key))
}

// List returns all slots ordered by key.
func (r *SQLiteSlotRepository) List(ctx context.Context) ([]*Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM media_slots ORDER BY key`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows, close error not actionable

	var slots []*Slot
	for rows.Next() {
		slot, err := r.scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Update persists changes to an existing slot. The key is immutable
// after creation; callers change content fields and UpdatedBy.
func (r *SQLiteSlotRepository) Update(ctx context.Context, slot *Slot) error {
	if err := slot.Validate(); err != nil {
		return err
	}
	slot.UpdatedAt = time.Now().UTC()

	query := `UPDATE media_slots
	          SET kind = ?, title = ?, url = ?, embed_id = ?, updated_by = ?, updated_at = ?
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(slot.Kind),
		slot.Title,
		nullString(slot.URL),
		nullString(slot.EmbedID),
		nullString(slot.UpdatedBy),
		slot.UpdatedAt.Format(time.RFC3339),
		slot.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// Delete removes a slot by ID.
func (r *SQLiteSlotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_slots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteSlotRepository) scanSlot(row scanner) (*Slot, error) {
	var (
		slot                 Slot
		kind                 string
		url, embedID, updBy  sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(
		&slot.ID,
		&slot.Key,
		&kind,
		&slot.Title,
		&url,
		&embedID,
		&slot.OwnerID,
		&updBy,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan slot: %w", err)
	}

	slot.Kind = Kind(kind)
	slot.URL = url.String
	slot.EmbedID = embedID.String
	slot.UpdatedBy = updBy.String

	slot.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	slot.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return &slot, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
