package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/inkpress/inkpress/internal/config"
	"github.com/inkpress/inkpress/internal/middleware"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, handlers *Handlers, cfg *config.Config) {
	// API group with versioning
	api := app.Group("/api/v1")

	// Health check endpoint
	api.Get("/health", handlers.HealthCheck)

	admin := middleware.AdminOnly(cfg.AdminAPIKey)

	// Article endpoints
	articles := api.Group("/articles")
	{
		articles.Get("", handlers.ListArticles)
		articles.Get("/:id", handlers.GetArticle)
		articles.Post("", admin, handlers.CreateArticle)
		articles.Put("/:id", admin, handlers.UpdateArticle)
		articles.Delete("/:id", admin, handlers.DeleteArticle)
	}

	// Draft generation
	api.Post("/generate", handlers.Generate)

	// Taxonomy endpoints
	api.Get("/categories", handlers.ListCategories)
	api.Post("/categories", admin, handlers.CreateCategory)
	api.Get("/tags", handlers.ListTags)
	api.Post("/tags", admin, handlers.CreateTag)

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
