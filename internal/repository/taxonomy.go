package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/inkpress/inkpress/internal/errs"
	"github.com/inkpress/inkpress/internal/models"
)

// TaxonomyRepository manages the category and tag vocabularies the
// dashboard edits and articles attach to.
type TaxonomyRepository struct {
	db *gorm.DB
}

func NewTaxonomyRepository(db *gorm.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

func (r *TaxonomyRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, translateErr(err)
	}
	return categories, nil
}

func (r *TaxonomyRepository) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	if name == "" {
		return nil, errs.Validationf("category name is required")
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, translateErr(err)
	}
	if count > 0 {
		return nil, errs.Conflictf("category %q already exists", name)
	}

	category := models.Category{Name: name, Description: description}
	if err := r.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, translateErr(err)
	}
	return &category, nil
}

func (r *TaxonomyRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("name").Find(&tags).Error; err != nil {
		return nil, translateErr(err)
	}
	return tags, nil
}

func (r *TaxonomyRepository) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	if name == "" {
		return nil, errs.Validationf("tag name is required")
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Tag{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, translateErr(err)
	}
	if count > 0 {
		return nil, errs.Conflictf("tag %q already exists", name)
	}

	tag := models.Tag{Name: name}
	if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
		return nil, translateErr(err)
	}
	return &tag, nil
}
