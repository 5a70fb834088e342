package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron"

	config "github.com/avkravtsov/crosspost/configs"
	"github.com/avkravtsov/crosspost/internal/api/handlers"
	"github.com/avkravtsov/crosspost/internal/api/middleware"
	"github.com/avkravtsov/crosspost/internal/database"
	job "github.com/avkravtsov/crosspost/internal/jobs"
	"github.com/avkravtsov/crosspost/internal/media"
	"github.com/avkravtsov/crosspost/internal/publisher"
	"github.com/avkravtsov/crosspost/internal/repository"
	"github.com/avkravtsov/crosspost/internal/service"
	"github.com/avkravtsov/crosspost/internal/storyimage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := database.Open(cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := database.Migrate(db, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	logRepo := repository.NewPublicationLogRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	storyLogRepo := repository.NewStoryLogRepository(db)

	mirror := media.NewR2Mirror(cfg.R2)
	store := media.NewStore(cfg, mirror)
	compositor := storyimage.NewCompositor(cfg.FontPath)

	vk := publisher.NewVKPublisher(cfg.VK, store, compositor)
	telegram := publisher.NewTelegramPublisher(cfg.Telegram, store, compositor)
	instagram := publisher.NewInstagramPublisher(cfg.Instagram, store, compositor)
	registry := publisher.NewRegistry(vk, telegram, instagram)

	postService := service.NewPostService(postRepo, logRepo, cfg.MediaDir)
	storyService := service.NewStoryService(storyRepo, postRepo, storyLogRepo)
	publishService := service.NewPublishService(postRepo, logRepo, storyRepo, storyLogRepo, registry)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService, publishService)
	api.Post("/posts", post.CreatePost)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/:id", post.GetPost)
	api.Get("/posts/:id/logs", post.GetPostLogs)
	api.Put("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.RemovePost)
	api.Post("/posts/:id/publish/:platform", post.PublishPost)
	api.Post("/posts/:id/publish", post.PublishPostAll)

	story := handlers.NewStoryHandler(storyService, publishService)
	api.Post("/stories/:post_id/platform/:platform", story.CreateStory)
	api.Get("/stories", story.ListStories)
	api.Get("/stories/:id", story.GetStory)
	api.Get("/stories/:id/logs", story.GetStoryLogs)
	api.Post("/stories/:id/publish", story.PublishStory)

	// cron jobs
	cacheCleanupJob := job.NewCacheCleanupJob(store, time.Duration(cfg.CacheTTLHours)*time.Hour)

	c := cron.New()
	c.AddFunc("@every 01h00m00s", cacheCleanupJob.CleanupCache)
	c.Start()

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Printf("Server is running on %s", cfg.ListenAddr)

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
