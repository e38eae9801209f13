package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/inkpress/inkpress/internal/ai"
	"github.com/inkpress/inkpress/internal/cache"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/errs"
	"github.com/inkpress/inkpress/internal/logger"
	"github.com/inkpress/inkpress/internal/models"
	"github.com/inkpress/inkpress/internal/repository"
)

// Archiver mirrors archive.Archiver so the bucket export can be faked in
// tests and left nil when no endpoint is configured.
type Archiver interface {
	Put(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, slug string) error
}

type Handlers struct {
	config       *config.Config
	articles     *repository.ArticleRepository
	taxonomy     *repository.TaxonomyRepository
	orchestrator *ai.Orchestrator
	cache        *cache.RedisClient // optional
	archiver     Archiver           // optional
	validate     *validator.Validate
}

func NewHandlers(
	cfg *config.Config,
	articles *repository.ArticleRepository,
	taxonomy *repository.TaxonomyRepository,
	orchestrator *ai.Orchestrator,
	redis *cache.RedisClient,
	archiver Archiver,
) *Handlers {
	return &Handlers{
		config:       cfg,
		articles:     articles,
		taxonomy:     taxonomy,
		orchestrator: orchestrator,
		cache:        redis,
		archiver:     archiver,
		validate:     validator.New(),
	}
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": "1.0.0",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// ListArticles handles GET /api/v1/articles
func (h *Handlers) ListArticles(c *fiber.Ctx) error {
	filter := repository.ListFilter{}

	// The parameter being present at all turns the filter on; anything
	// other than "true" means unpublished.
	if c.Context().QueryArgs().Has("published") {
		value := c.Query("published") == "true"
		filter.Published = &value
	}
	if categoryID, ok := queryUint(c, "category"); ok {
		filter.CategoryID = &categoryID
	}
	if tagID, ok := queryUint(c, "tag"); ok {
		filter.TagID = &tagID
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	page, limit = repository.NormalizePage(page, limit)

	cacheKey := "articles:list:" + filter.CacheKey(page, limit)
	if data, ok := h.cached(c.Context(), cacheKey); ok {
		return c.Type("json").Send(data)
	}

	list, err := h.articles.List(c.Context(), filter, page, limit)
	if err != nil {
		return err
	}

	h.store(c.Context(), cacheKey, list)
	return c.JSON(list)
}

// GetArticle handles GET /api/v1/articles/:id
func (h *Handlers) GetArticle(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	cacheKey := fmt.Sprintf("articles:id:%d", id)
	if data, ok := h.cached(c.Context(), cacheKey); ok {
		return c.Type("json").Send(data)
	}

	article, err := h.articles.FindByID(c.Context(), id)
	if err != nil {
		return err
	}

	h.store(c.Context(), cacheKey, article)
	return c.JSON(article)
}

type createArticleRequest struct {
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
	Description string `json:"description"`
	Published   bool   `json:"published"`
	AuthorID    uint   `json:"author_id" validate:"required"`
	CategoryID  *uint  `json:"category_id"`
	Tags        []uint `json:"tags"`
	Keywords    string `json:"keywords"`
}

// CreateArticle handles POST /api/v1/articles
func (h *Handlers) CreateArticle(c *fiber.Ctx) error {
	var req createArticleRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	article, err := h.articles.Create(c.Context(), repository.CreateArticleParams{
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		Published:   req.Published,
		Keywords:    req.Keywords,
		AuthorID:    req.AuthorID,
		CategoryID:  req.CategoryID,
		TagIDs:      req.Tags,
	})
	if err != nil {
		return err
	}

	h.invalidate(c.Context())
	h.archivePublished(article)

	return c.Status(fiber.StatusCreated).JSON(article)
}

type updateArticleRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Description *string `json:"description"`
	Published   *bool   `json:"published"`
	CategoryID  *uint   `json:"category_id"`
	Tags        *[]uint `json:"tags"`
	Keywords    *string `json:"keywords"`
}

// UpdateArticle handles PUT /api/v1/articles/:id. Absent fields stay
// untouched; a present tags field replaces the tag set wholesale.
func (h *Handlers) UpdateArticle(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var req updateArticleRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	// Snapshot the current state so a published document that gets
	// unpublished or re-slugged can have its export removed.
	var prior *models.Article
	if h.archiver != nil {
		prior, err = h.articles.FindByID(c.Context(), id)
		if err != nil {
			return err
		}
	}

	article, err := h.articles.Update(c.Context(), id, repository.UpdateArticleParams{
		Title:       req.Title,
		Content:     req.Content,
		Description: req.Description,
		Published:   req.Published,
		Keywords:    req.Keywords,
		CategoryID:  req.CategoryID,
		TagIDs:      req.Tags,
	})
	if err != nil {
		return err
	}

	h.invalidate(c.Context())
	if prior != nil && prior.Published && (!article.Published || prior.Slug != article.Slug) {
		h.archiveRemove(prior.Slug)
	}
	h.archivePublished(article)

	return c.JSON(article)
}

// DeleteArticle handles DELETE /api/v1/articles/:id
func (h *Handlers) DeleteArticle(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	article, err := h.articles.FindByID(c.Context(), id)
	if err != nil {
		return err
	}

	if err := h.articles.Delete(c.Context(), id); err != nil {
		return err
	}

	h.invalidate(c.Context())
	h.archiveRemove(article.Slug)

	return c.JSON(fiber.Map{"success": true})
}

type generateRequest struct {
	Topic    string `json:"topic" validate:"required"`
	Keywords string `json:"keywords"`
	Tone     string `json:"tone"`
}

// Generate handles POST /api/v1/generate. The whole orchestration is
// bounded by the configured wall-clock ceiling; the draft is returned to
// the caller for review and never persisted here.
func (h *Handlers) Generate(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return errs.Validationf("invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Context(), h.config.AITimeout)
	defer cancel()

	draft, err := h.orchestrator.GenerateDraft(ctx, ai.DraftRequest{
		Topic:    req.Topic,
		Keywords: req.Keywords,
		Tone:     req.Tone,
	})
	if err != nil {
		return err
	}

	return c.JSON(draft)
}

// ListCategories handles GET /api/v1/categories
func (h *Handlers) ListCategories(c *fiber.Ctx) error {
	categories, err := h.taxonomy.ListCategories(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": categories})
}

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateCategory handles POST /api/v1/categories
func (h *Handlers) CreateCategory(c *fiber.Ctx) error {
	var req createCategoryRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	category, err := h.taxonomy.CreateCategory(c.Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// ListTags handles GET /api/v1/tags
func (h *Handlers) ListTags(c *fiber.Ctx) error {
	tags, err := h.taxonomy.ListTags(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tags": tags})
}

type createTagRequest struct {
	Name string `json:"name" validate:"required"`
}

// CreateTag handles POST /api/v1/tags
func (h *Handlers) CreateTag(c *fiber.Ctx) error {
	var req createTagRequest
	if err := h.parse(c, &req); err != nil {
		return err
	}

	tag, err := h.taxonomy.CreateTag(c.Context(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// parse decodes and validates a request body.
func (h *Handlers) parse(c *fiber.Ctx, req interface{}) error {
	if err := c.BodyParser(req); err != nil {
		return errs.Validationf("invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			return errs.Validationf("field %s is %s", fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return errs.Validationf("invalid request")
	}
	return nil
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, errs.Validationf("invalid article id %q", c.Params("id"))
	}
	return uint(id), nil
}

func queryUint(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(value), true
}

// cached returns the cached JSON payload for key, when a cache is wired.
func (h *Handlers) cached(ctx context.Context, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	data, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		logger.Get().Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return nil, false
	}
	return data, ok
}

func (h *Handlers) store(ctx context.Context, key string, value interface{}) {
	if h.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, key, data); err != nil {
		logger.Get().Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// invalidate drops every cached article payload after a mutation.
func (h *Handlers) invalidate(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, "articles:"); err != nil {
		logger.Get().Warn().Err(err).Msg("Cache invalidation failed")
	}
}

// archivePublished exports a published article in the background. Export
// failures are logged and never surfaced to the caller.
func (h *Handlers) archivePublished(article *models.Article) {
	if h.archiver == nil || !article.Published {
		return
	}
	snapshot := *article
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.archiver.Put(ctx, &snapshot); err != nil {
			logger.Get().Error().Err(err).Uint("id", snapshot.ID).Msg("Error archiving article")
		}
	}()
}

// archiveRemove drops an exported document in the background, mirroring
// archivePublished's best-effort semantics.
func (h *Handlers) archiveRemove(slug string) {
	if h.archiver == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.archiver.Delete(ctx, slug); err != nil {
			logger.Get().Error().Err(err).Str("slug", slug).Msg("Error deleting archived article")
		}
	}()
}
