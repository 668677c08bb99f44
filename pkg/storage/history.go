package storage

import (
	"context"
	"time"
)

// Pagination bounds shared by all adapters.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Record is one completed translation.
type Record struct {
	ID             string    `json:"id"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	SourceText     string    `json:"source_text"`
	TranslatedText string    `json:"translated_text"`
	Model          string    `json:"model"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListOptions controls filtering, ordering, and cursor pagination of List.
type ListOptions struct {
	// Limit is the page size. Zero means DefaultListLimit; values above
	// MaxListLimit are clamped.
	Limit int

	// After returns records that sort after the record with this ID.
	After string

	// Before returns records that sort before the record with this ID.
	// Ignored when After is set.
	Before string

	// Order is "asc" or "desc" by creation time. Default "desc".
	Order string

	// SourceLanguage and TargetLanguage filter by language code when set.
	SourceLanguage string
	TargetLanguage string
}

// EffectiveLimit returns the page size after defaults and clamping.
func (o ListOptions) EffectiveLimit() int {
	switch {
	case o.Limit <= 0:
		return DefaultListLimit
	case o.Limit > MaxListLimit:
		return MaxListLimit
	default:
		return o.Limit
	}
}

// Ascending reports whether results are ordered oldest first.
func (o ListOptions) Ascending() bool {
	return o.Order == "asc"
}

// RecordList is one page of history records.
type RecordList struct {
	Object  string    `json:"object"`
	Data    []*Record `json:"data"`
	FirstID string    `json:"first_id,omitempty"`
	LastID  string    `json:"last_id,omitempty"`
	HasMore bool      `json:"has_more"`
}

// NewRecordList builds a page from records fetched with one extra row
// beyond limit, which signals that more records exist.
func NewRecordList(records []*Record, limit int) *RecordList {
	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	if records == nil {
		records = []*Record{}
	}
	list := &RecordList{
		Object:  "list",
		Data:    records,
		HasMore: hasMore,
	}
	if len(records) > 0 {
		list.FirstID = records[0].ID
		list.LastID = records[len(records)-1].ID
	}
	return list
}

// HistoryStore persists completed translations.
type HistoryStore interface {
	// Save persists a record. Returns ErrConflict if the ID already exists.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a record by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns a page of records.
	List(ctx context.Context, opts ListOptions) (*RecordList, error)

	// Delete removes a record. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// HealthCheck verifies the store is usable.
	HealthCheck(ctx context.Context) error

	// Close releases connections and resources.
	Close() error
}
