// Package pagination implements skip/limit listing.
package pagination

import "gorm.io/gorm"

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Window holds skip/limit parameters parsed from query strings.
type Window struct {
	Skip  int `form:"skip" binding:"omitempty,min=0"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// Defaults fills in the default limit when none was provided.
func (w *Window) Defaults() {
	if w.Skip < 0 {
		w.Skip = 0
	}
	if w.Limit <= 0 {
		w.Limit = DefaultLimit
	}
	if w.Limit > MaxLimit {
		w.Limit = MaxLimit
	}
}

// ListResponse wraps one window of items with the unwindowed total.
type ListResponse[T any] struct {
	Data  []T   `json:"data"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
}

// NewListResponse creates a ListResponse, never with a nil Data slice.
func NewListResponse[T any](data []T, w Window, total int64) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Data: data, Total: total, Skip: w.Skip, Limit: w.Limit}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for w.
// A zero Limit leaves the query unbounded.
func Paginate(w Window) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if w.Limit <= 0 {
			return db.Offset(w.Skip)
		}
		return db.Offset(w.Skip).Limit(w.Limit)
	}
}
