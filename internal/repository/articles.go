package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/inkpress/inkpress/internal/errs"
	"github.com/inkpress/inkpress/internal/models"
	"github.com/inkpress/inkpress/internal/utils"
)

// ArticleRepository owns all article persistence. Every mutating operation
// runs in a single transaction: either the article row and all of its
// relation writes commit, or none do.
type ArticleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// CreateArticleParams are the fields accepted on create. Title, Content and
// AuthorID are required.
type CreateArticleParams struct {
	Title       string
	Content     string
	Description string
	Published   bool
	Keywords    string
	AuthorID    uint
	CategoryID  *uint
	TagIDs      []uint
}

// UpdateArticleParams is a partial update; nil fields are left untouched.
// A non-nil TagIDs replaces the article's tag set wholesale: tags omitted
// from the payload are dropped, which is the documented contract.
type UpdateArticleParams struct {
	Title       *string
	Content     *string
	Description *string
	Published   *bool
	Keywords    *string
	CategoryID  *uint
	TagIDs      *[]uint
}

// ArticleList is one page of articles plus its pagination metadata.
type ArticleList struct {
	Articles   []models.Article `json:"articles"`
	Pagination Pagination       `json:"pagination"`
}

// Create persists a new article, deriving its slug and reading time. The
// author must resolve, as must the category and every tag id when given.
// A derived slug colliding with an existing article fails with a conflict
// and nothing is written.
func (r *ArticleRepository) Create(ctx context.Context, p CreateArticleParams) (*models.Article, error) {
	if p.Title == "" {
		return nil, errs.Validationf("title is required")
	}
	if p.Content == "" {
		return nil, errs.Validationf("content is required")
	}
	if p.AuthorID == 0 {
		return nil, errs.Validationf("author id is required")
	}

	slug := utils.Slugify(p.Title)
	if slug == "" {
		return nil, errs.Validationf("title %q yields an empty slug", p.Title)
	}

	article := models.Article{
		Title:       p.Title,
		Slug:        slug,
		Content:     p.Content,
		Description: p.Description,
		Published:   p.Published,
		ReadingTime: utils.ReadingTime(p.Content),
		Keywords:    p.Keywords,
		AuthorID:    p.AuthorID,
		CategoryID:  p.CategoryID,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAuthor(tx, p.AuthorID); err != nil {
			return err
		}
		if p.CategoryID != nil {
			if err := requireCategory(tx, *p.CategoryID); err != nil {
				return err
			}
		}
		if err := requireSlugFree(tx, slug, 0); err != nil {
			return err
		}
		if err := requireTags(tx, p.TagIDs); err != nil {
			return err
		}

		if err := tx.Omit("Tags").Create(&article).Error; err != nil {
			return translateErr(err)
		}

		return insertTagRows(tx, article.ID, p.TagIDs)
	})
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, article.ID)
}

// Update applies a partial update. The slug is recomputed only when the
// title actually changes and the reading time only when the content does,
// so cosmetic edits keep their URL. There is no optimistic locking: two
// concurrent updates race and the later write wins.
func (r *ArticleRepository) Update(ctx context.Context, id uint, p UpdateArticleParams) (*models.Article, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Article
		if err := tx.First(&existing, id).Error; err != nil {
			return translateNotFound(err, "article %d", id)
		}

		updates := map[string]interface{}{}

		if p.Title != nil && *p.Title != existing.Title {
			slug := utils.Slugify(*p.Title)
			if slug == "" {
				return errs.Validationf("title %q yields an empty slug", *p.Title)
			}
			if slug != existing.Slug {
				if err := requireSlugFree(tx, slug, id); err != nil {
					return err
				}
			}
			updates["title"] = *p.Title
			updates["slug"] = slug
		}

		if p.Content != nil && *p.Content != existing.Content {
			if *p.Content == "" {
				return errs.Validationf("content cannot be empty")
			}
			updates["content"] = *p.Content
			updates["reading_time"] = utils.ReadingTime(*p.Content)
		}

		if p.Description != nil {
			updates["description"] = *p.Description
		}
		if p.Published != nil {
			updates["published"] = *p.Published
		}
		if p.Keywords != nil {
			updates["keywords"] = *p.Keywords
		}
		if p.CategoryID != nil {
			if err := requireCategory(tx, *p.CategoryID); err != nil {
				return err
			}
			updates["category_id"] = *p.CategoryID
		}

		if len(updates) > 0 {
			if err := tx.Model(&existing).Updates(updates).Error; err != nil {
				return translateErr(err)
			}
		}

		// Full replace: every existing join row goes, the payload's rows
		// come in. Tags omitted from the payload are dropped.
		if p.TagIDs != nil {
			if err := requireTags(tx, *p.TagIDs); err != nil {
				return err
			}
			if err := tx.Where("article_id = ?", id).Delete(&models.ArticleTag{}).Error; err != nil {
				return translateErr(err)
			}
			if err := insertTagRows(tx, id, *p.TagIDs); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}

// Delete removes an article and cascades its join rows. Irreversible.
func (r *ArticleRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Article
		if err := tx.First(&existing, id).Error; err != nil {
			return translateNotFound(err, "article %d", id)
		}
		if err := tx.Where("article_id = ?", id).Delete(&models.ArticleTag{}).Error; err != nil {
			return translateErr(err)
		}
		if err := tx.Delete(&models.Article{}, id).Error; err != nil {
			return translateErr(err)
		}
		return nil
	})
}

// FindByID returns the article with its author, category and resolved tags.
func (r *ArticleRepository) FindByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Category").
		Preload("Tags").
		First(&article, id).Error
	if err != nil {
		return nil, translateNotFound(err, "article %d", id)
	}
	return &article, nil
}

// List returns one page of articles matching the filter, newest first.
func (r *ArticleRepository) List(ctx context.Context, filter ListFilter, page, limit int) (*ArticleList, error) {
	page, limit = NormalizePage(page, limit)

	var total int64
	q := filter.Apply(r.db.WithContext(ctx).Model(&models.Article{}))
	if err := q.Count(&total).Error; err != nil {
		return nil, translateErr(err)
	}

	var articles []models.Article
	err := filter.Apply(r.db.WithContext(ctx).Model(&models.Article{})).
		Preload("Author").
		Preload("Category").
		Preload("Tags").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, translateErr(err)
	}

	if articles == nil {
		articles = []models.Article{}
	}

	return &ArticleList{
		Articles: articles,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages(total, limit),
		},
	}, nil
}

func requireAuthor(tx *gorm.DB, id uint) error {
	var author models.Author
	return translateNotFound(tx.First(&author, id).Error, "author %d", id)
}

func requireCategory(tx *gorm.DB, id uint) error {
	var category models.Category
	return translateNotFound(tx.First(&category, id).Error, "category %d", id)
}

func requireSlugFree(tx *gorm.DB, slug string, excludeID uint) error {
	var count int64
	q := tx.Model(&models.Article{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return translateErr(err)
	}
	if count > 0 {
		return errs.Conflictf("slug %q already exists", slug)
	}
	return nil
}

func requireTags(tx *gorm.DB, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&models.Tag{}).Where("id IN ?", tagIDs).Count(&count).Error; err != nil {
		return translateErr(err)
	}
	if count != int64(len(uniqueIDs(tagIDs))) {
		return errs.NotFoundf("one or more tag ids do not resolve")
	}
	return nil
}

func insertTagRows(tx *gorm.DB, articleID uint, tagIDs []uint) error {
	for _, tagID := range uniqueIDs(tagIDs) {
		row := models.ArticleTag{ArticleID: articleID, TagID: tagID}
		if err := tx.Create(&row).Error; err != nil {
			return translateErr(err)
		}
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func translateNotFound(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.NotFoundf(format, args...)
	}
	return translateErr(err)
}

// translateErr maps store-level constraint violations onto the error
// taxonomy; anything else passes through as an unknown internal error.
func translateErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflictf("unique constraint violated")
	}
	return err
}
