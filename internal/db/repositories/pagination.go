package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 25
)

// PageRequest is the common list filter: a free-text key plus paging.
type PageRequest struct {
	Key      string
	Page     int
	PageSize int
}

func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// Page is one slice of a listing plus the counters clients page with.
type Page[T any] struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
	Results []T   `json:"results"`
}

// NewPage fills the counters. Pages is total/size rounded down, which is
// what existing clients expect.
func NewPage[T any](req PageRequest, total int64, results []T) *Page[T] {
	req = req.Normalize()
	if results == nil {
		results = []T{}
	}
	return &Page[T]{
		Total:   total,
		Page:    req.Page,
		Pages:   int(total / int64(req.PageSize)),
		HasNext: total > int64(req.Offset()+req.PageSize),
		HasPrev: req.Page > 1,
		Results: results,
	}
}

// paginate counts q, then loads the requested window ordered by order.
// Preloads only apply to the window query.
func paginate[T any](ctx context.Context, q *gorm.DB, req PageRequest, order string, preloads ...string) (*Page[T], error) {
	req = req.Normalize()

	var total int64
	if err := q.WithContext(ctx).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	var results []T
	find := q.WithContext(ctx)
	for _, p := range preloads {
		find = find.Preload(p)
	}
	err := find.
		Order(order).
		Offset(req.Offset()).
		Limit(req.PageSize).
		Find(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rows: %w", err)
	}

	return NewPage(req, total, results), nil
}

func likeKey(key string) string {
	return "%" + key + "%"
}
