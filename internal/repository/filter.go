package repository

import (
	"fmt"

	"gorm.io/gorm"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// ListFilter is the conjunction of the supported article list predicates.
// Nil fields are not applied.
type ListFilter struct {
	Published  *bool
	CategoryID *uint
	TagID      *uint
}

// Apply translates the filter into store-level predicates.
func (f ListFilter) Apply(q *gorm.DB) *gorm.DB {
	if f.Published != nil {
		q = q.Where("published = ?", *f.Published)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.TagID != nil {
		q = q.Where("id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).
				Table("article_tags").
				Select("article_id").
				Where("tag_id = ?", *f.TagID))
	}
	return q
}

// CacheKey yields a stable string identifying this filter + page window,
// used as the redis list-cache key suffix.
func (f ListFilter) CacheKey(page, limit int) string {
	published, category, tag := "any", "any", "any"
	if f.Published != nil {
		published = fmt.Sprintf("%t", *f.Published)
	}
	if f.CategoryID != nil {
		category = fmt.Sprintf("%d", *f.CategoryID)
	}
	if f.TagID != nil {
		tag = fmt.Sprintf("%d", *f.TagID)
	}
	return fmt.Sprintf("p=%s:c=%s:t=%s:page=%d:limit=%d", published, category, tag, page, limit)
}

// Pagination describes one page of a list result.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NormalizePage clamps page and limit to sane bounds.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	return int((total + int64(limit) - 1) / int64(limit))
}
