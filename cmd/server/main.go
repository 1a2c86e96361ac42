package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aashish788/clouddrive/internal/config"
	"github.com/Aashish788/clouddrive/internal/database"
	"github.com/Aashish788/clouddrive/internal/handlers"
	"github.com/Aashish788/clouddrive/internal/middleware"
	"github.com/Aashish788/clouddrive/internal/services"
	"github.com/Aashish788/clouddrive/internal/storage"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/internal/uploads"
	"github.com/Aashish788/clouddrive/pkg/logger"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	objects, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("storage initialization failed: %v", err)
	}

	var sessions uploads.SessionStore
	switch cfg.Upload.SessionBackend {
	case "badger":
		sessions, err = uploads.NewBadgerSessionStore(cfg.Upload.BadgerDir, cfg.Upload.SessionTTL)
		if err != nil {
			log.Fatalf("badger initialization failed: %v", err)
		}
	default:
		sessions = uploads.NewMemorySessionStore()
	}
	defer sessions.Close()

	coordinator, err := uploads.NewCoordinator(sessions, objects, uploads.Options{
		TempDir:      cfg.Upload.TempDir,
		TTL:          cfg.Upload.SessionTTL,
		MaxChunkSize: cfg.Upload.MaxChunkSize,
		MaxFileSize:  cfg.Upload.MaxFileSize,
	})
	if err != nil {
		log.Fatalf("upload coordinator initialization failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	coordinator.StartSweeper(ctx, cfg.Upload.SweepInterval)

	dataStore := store.New(db)
	permService := services.NewPermissionService(dataStore)
	linkService := services.NewPublicLinkService(
		dataStore,
		services.NewMemoryLinkStore(),
		services.NewMemoryLinkStore(),
		cfg.Server.BaseURL,
	)
	if err := linkService.Rehydrate(ctx); err != nil {
		log.Fatalf("public link rehydration failed: %v", err)
	}

	authHandler := handlers.NewAuthHandler(dataStore)
	usersHandler := handlers.NewUsersHandler(dataStore)
	groupsHandler := handlers.NewGroupsHandler(dataStore)
	filesHandler := handlers.NewFilesHandler(dataStore, permService, objects)
	foldersHandler := handlers.NewFoldersHandler(dataStore, permService)
	uploadsHandler := handlers.NewUploadsHandler(dataStore, permService, coordinator)
	sharesHandler := handlers.NewSharesHandler(dataStore, permService)
	publicHandler := handlers.NewPublicHandler(dataStore, permService, linkService, objects)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: int(cfg.Upload.MaxChunkSize) + 1024*1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	prometheus := fiberprometheus.New("clouddrive")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)

	userRoutes := api.Group("/users", authMiddleware.RequireAuth)
	userRoutes.Get("/", usersHandler.List)
	userRoutes.Put("/:id/role", middleware.SuperAdminOnly, usersHandler.UpdateRole)

	groupRoutes := api.Group("/groups", authMiddleware.RequireAuth)
	groupRoutes.Post("/", middleware.AdminOnly, groupsHandler.Create)
	groupRoutes.Get("/", groupsHandler.List)
	groupRoutes.Get("/:id", groupsHandler.Get)
	groupRoutes.Put("/:id", middleware.AdminOnly, groupsHandler.Rename)
	groupRoutes.Delete("/:id", middleware.AdminOnly, groupsHandler.Delete)
	groupRoutes.Post("/:id/members", middleware.AdminOnly, groupsHandler.AddMember)
	groupRoutes.Put("/:id/members/:userId", middleware.AdminOnly, groupsHandler.UpdateMember)
	groupRoutes.Delete("/:id/members/:userId", middleware.AdminOnly, groupsHandler.RemoveMember)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Get("/", filesHandler.ListGroup)
	fileRoutes.Post("/binary", uploadsHandler.UploadGroupChunk)
	fileRoutes.Get("/:id", filesHandler.Get)
	fileRoutes.Get("/:id/download", filesHandler.Download)
	fileRoutes.Put("/:id", filesHandler.Rename)
	fileRoutes.Delete("/:id", filesHandler.Delete)
	fileRoutes.Patch("/:id/public", publicHandler.ToggleFilePublic)
	fileRoutes.Get("/:id/shares", sharesHandler.ListFileShares)
	fileRoutes.Post("/:id/shares", sharesHandler.AddFileShare)
	fileRoutes.Put("/:id/shares/:userId", sharesHandler.UpdateFileShare)
	fileRoutes.Delete("/:id/shares/:userId", sharesHandler.RemoveFileShare)

	personalRoutes := api.Group("/personal-files", authMiddleware.RequireAuth)
	personalRoutes.Get("/", filesHandler.ListPersonal)
	personalRoutes.Post("/binary", uploadsHandler.UploadPersonalChunk)

	folderRoutes := api.Group("/folders", authMiddleware.RequireAuth)
	folderRoutes.Post("/", foldersHandler.Create)
	folderRoutes.Get("/:id", foldersHandler.Get)
	folderRoutes.Put("/:id", foldersHandler.Rename)
	folderRoutes.Delete("/:id", foldersHandler.Delete)
	folderRoutes.Patch("/:id/public", publicHandler.ToggleFolderPublic)
	folderRoutes.Get("/:id/shares", sharesHandler.ListFolderShares)
	folderRoutes.Post("/:id/shares", sharesHandler.AddFolderShare)
	folderRoutes.Put("/:id/shares/:userId", sharesHandler.UpdateFolderShare)
	folderRoutes.Delete("/:id/shares/:userId", sharesHandler.RemoveFolderShare)

	app.Get("/public/file/:id/:token", publicHandler.DownloadPublicFile)
	app.Get("/public/folder/:id/:token", publicHandler.ListPublicFolder)

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
