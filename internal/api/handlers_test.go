package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkpress/inkpress/internal/ai"
	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/logger"
	"github.com/inkpress/inkpress/internal/middleware"
	"github.com/inkpress/inkpress/internal/models"
	"github.com/inkpress/inkpress/internal/repository"
)

type fixedGenerator struct {
	err error
}

func (f *fixedGenerator) GenerateText(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "generated text", nil
}

// fakeArchiver records exported and removed slugs in call order.
type fakeArchiver struct {
	mu      sync.Mutex
	puts    []string
	deletes []string
}

func (f *fakeArchiver) Put(ctx context.Context, article *models.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, article.Slug)
	return nil
}

func (f *fakeArchiver) Delete(ctx context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, slug)
	return nil
}

func (f *fakeArchiver) exported() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.puts...)
}

func (f *fakeArchiver) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deletes...)
}

func setupTestApp(t *testing.T, generator ai.TextGenerator, adminKey string, archiver Archiver) (*fiber.App, *gorm.DB) {
	t.Helper()

	logger.Init(logger.Config{Level: "error"})

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.Author{},
		&models.Category{},
		&models.Tag{},
		&models.Article{},
		&models.ArticleTag{},
	))

	cfg := &config.Config{
		AITimeout:   5 * time.Second,
		AdminAPIKey: adminKey,
	}

	handlers := NewHandlers(
		cfg,
		repository.NewArticleRepository(conn),
		repository.NewTaxonomyRepository(conn),
		ai.NewOrchestrator(generator, 0),
		nil,
		archiver,
	)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(recover.New())
	SetupRoutes(app, handlers, cfg)

	return app, conn
}

func seedAuthor(t *testing.T, conn *gorm.DB) *models.Author {
	t.Helper()
	author := &models.Author{Name: "Writer", Email: "writer@example.com"}
	require.NoError(t, conn.Create(author).Error)
	return author
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestCreateAndGetArticle(t *testing.T) {
	app, conn := setupTestApp(t, &fixedGenerator{}, "", nil)
	author := seedAuthor(t, conn)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/articles", fiber.Map{
		"title":     "My First Post",
		"content":   "Hello world content.",
		"author_id": author.ID,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Article
	decode(t, resp, &created)
	assert.Equal(t, "my-first-post", created.Slug)
	assert.Equal(t, 1, created.ReadingTime)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", created.ID), nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Article
	decode(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "writer@example.com", fetched.Author.Email)
}

func TestCreateArticleValidation(t *testing.T) {
	app, _ := setupTestApp(t, &fixedGenerator{}, "", nil)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/articles", fiber.Map{
		"content": "missing title and author",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateArticleSlugConflict(t *testing.T) {
	app, conn := setupTestApp(t, &fixedGenerator{}, "", nil)
	author := seedAuthor(t, conn)

	body := fiber.Map{"title": "Duplicate", "content": "body", "author_id": author.ID}
	resp := doJSON(t, app, http.MethodPost, "/api/v1/articles", body, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/articles", body, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestGetArticleNotFound(t *testing.T) {
	app, _ := setupTestApp(t, &fixedGenerator{}, "", nil)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/articles/99", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateArticleNotFound(t *testing.T) {
	app, _ := setupTestApp(t, &fixedGenerator{}, "", nil)

	resp := doJSON(t, app, http.MethodPut, "/api/v1/articles/99", fiber.Map{"title": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteArticle(t *testing.T) {
	app, conn := setupTestApp(t, &fixedGenerator{}, "", nil)
	author := seedAuthor(t, conn)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/articles", fiber.Map{
		"title": "Doomed", "content": "body", "author_id": author.ID,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Article
	decode(t, resp, &created)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/articles/%d", created.ID), nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/articles/%d", created.ID), nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListArticlesPagination(t *testing.T) {
	app, conn := setupTestApp(t, &fixedGenerator{}, "", nil)
	author := seedAuthor(t, conn)

	for i := 0; i < 12; i++ {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/articles", fiber.Map{
			"title":     fmt.Sprintf("Post %02d", i),
			"content":   "body",
			"author_id": author.ID,
			"published": true,
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := doJSON(t, app, http.MethodGet, "/api/v1/articles?published=true&page=2&limit=10", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list repository.ArticleList
	decode(t, resp, &list)
	assert.Len(t, list.Articles, 2)
	assert.EqualValues(t, 12, list.Pagination.Total)
	assert.Equal(t, 2, list.Pagination.TotalPages)
}

func TestListArticlesPublishedParamPresence(t *testing.T) {
	app, conn := setupTestApp(t, &fixedGenerator{}, "", nil)
	author := seedAuthor(t, conn)

	for _, published := range []bool{true, false} {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/articles", fiber.Map{
			"title":     fmt.Sprintf("Post published=%t", published),
			"content":   "body",
			"author_id": author.ID,
			"published": published,
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	// A present-but-empty value still filters: anything but "true" means
	// unpublished only.
	resp := doJSON(t, app, http.MethodGet, "/api/v1/articles?published=", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list repository.ArticleList
	decode(t, resp, &list)
	require.EqualValues(t, 1, list.Pagination.Total)
	assert.False(t, list.Articles[0].Published)

	// Absent parameter applies no filter at all.
	resp = doJSON(t, app, http.MethodGet, "/api/v1/articles", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &list)
	assert.EqualValues(t, 2, list.Pagination.Total)
}

func TestUpdateArticleUnpublishRemovesArchive(t *testing.T) {
	fake := &fakeArchiver{}
	app, conn := setupTestApp(t, &fixedGenerator{}, "", fake)
	author := seedAuthor(t, conn)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/articles", fiber.Map{
		"title":     "Published Piece",
		"content":   "body",
		"author_id": author.ID,
		"published": true,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Article
	decode(t, resp, &created)

	require.Eventually(t, func() bool {
		return len(fake.exported()) == 1
	}, time.Second, 10*time.Millisecond, "publishing must export the document")

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/articles/%d", created.ID), fiber.Map{
		"published": false,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		deleted := fake.deleted()
		return len(deleted) == 1 && deleted[0] == created.Slug
	}, time.Second, 10*time.Millisecond, "unpublishing must remove the exported document")
}

func TestUpdateArticleSlugChangeMovesArchive(t *testing.T) {
	fake := &fakeArchiver{}
	app, conn := setupTestApp(t, &fixedGenerator{}, "", fake)
	author := seedAuthor(t, conn)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/articles", fiber.Map{
		"title":     "Old Title",
		"content":   "body",
		"author_id": author.ID,
		"published": true,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Article
	decode(t, resp, &created)
	require.Equal(t, "old-title", created.Slug)

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/v1/articles/%d", created.ID), fiber.Map{
		"title": "New Title",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The stale document goes away and the article is re-exported under
	// its new slug.
	require.Eventually(t, func() bool {
		deleted := fake.deleted()
		return len(deleted) == 1 && deleted[0] == "old-title"
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(fake.exported()) == 2
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, fake.exported(), "new-title")
}

func TestGenerate(t *testing.T) {
	app, _ := setupTestApp(t, &fixedGenerator{}, "", nil)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/generate", fiber.Map{
		"topic":    "urban gardening",
		"keywords": "balcony, compost",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var draft ai.Draft
	decode(t, resp, &draft)
	assert.Equal(t, "generated text", draft.Title)
	assert.Equal(t, "generated text", draft.Content)
	assert.Equal(t, "balcony, compost", draft.Keywords)
}

func TestGenerateMissingTopic(t *testing.T) {
	app, _ := setupTestApp(t, &fixedGenerator{}, "", nil)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/generate", fiber.Map{"tone": "casual"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateBackendFailure(t *testing.T) {
	app, _ := setupTestApp(t, &fixedGenerator{err: errors.New("model overloaded")}, "", nil)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/generate", fiber.Map{"topic": "anything"}, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.NotContains(t, body["error"], "model overloaded", "internal causes must not leak")
}

func TestAdminGuard(t *testing.T) {
	app, conn := setupTestApp(t, &fixedGenerator{}, "sekrit", nil)
	author := seedAuthor(t, conn)

	body := fiber.Map{"title": "Guarded", "content": "body", "author_id": author.ID}

	resp := doJSON(t, app, http.MethodPost, "/api/v1/articles", body, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/articles", body, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/articles", body, map[string]string{"X-API-Key": "sekrit"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestTaxonomyEndpoints(t *testing.T) {
	app, _ := setupTestApp(t, &fixedGenerator{}, "", nil)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/categories", fiber.Map{"name": "Tech"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/categories", fiber.Map{"name": "Tech"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/v1/tags", fiber.Map{"name": "golang"}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/v1/categories", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var categories struct {
		Categories []models.Category `json:"categories"`
	}
	decode(t, resp, &categories)
	assert.Len(t, categories.Categories, 1)
}
