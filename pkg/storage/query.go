package storage

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Columns lists the history table columns in scan order.
var Columns = []string{
	"id", "source_language", "target_language",
	"source_text", "translated_text", "model", "created_at",
}

// Cursor returns the pagination cursor of o and whether it selects records
// after (true) or before (false) it.
func (o ListOptions) Cursor() (id string, after bool) {
	if o.After != "" {
		return o.After, true
	}
	return o.Before, false
}

// ListQuery applies the filters, cursor, ordering, and limit of opts to q.
// cursor is the record the options' cursor ID refers to, or nil. ts converts
// a timestamp into the column's representation. The limit is one row above
// the page size so NewRecordList can detect further pages.
func ListQuery(q sq.SelectBuilder, opts ListOptions, cursor *Record, ts func(time.Time) any) sq.SelectBuilder {
	if opts.SourceLanguage != "" {
		q = q.Where(sq.Eq{"source_language": opts.SourceLanguage})
	}
	if opts.TargetLanguage != "" {
		q = q.Where(sq.Eq{"target_language": opts.TargetLanguage})
	}

	asc := opts.Ascending()
	if cursor != nil {
		_, after := opts.Cursor()
		created := ts(cursor.CreatedAt)
		// Records after the cursor in an ascending list are greater; every
		// other combination flips the comparison.
		if asc == after {
			q = q.Where(sq.Or{
				sq.Gt{"created_at": created},
				sq.And{sq.Eq{"created_at": created}, sq.Gt{"id": cursor.ID}},
			})
		} else {
			q = q.Where(sq.Or{
				sq.Lt{"created_at": created},
				sq.And{sq.Eq{"created_at": created}, sq.Lt{"id": cursor.ID}},
			})
		}
	}

	if asc {
		q = q.OrderBy("created_at ASC", "id ASC")
	} else {
		q = q.OrderBy("created_at DESC", "id DESC")
	}

	return q.Limit(uint64(opts.EffectiveLimit() + 1))
}
