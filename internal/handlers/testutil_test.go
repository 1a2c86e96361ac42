package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Aashish788/clouddrive/internal/database"
	"github.com/Aashish788/clouddrive/internal/middleware"
	"github.com/Aashish788/clouddrive/internal/models"
	"github.com/Aashish788/clouddrive/internal/services"
	"github.com/Aashish788/clouddrive/internal/storage"
	"github.com/Aashish788/clouddrive/internal/store"
	"github.com/Aashish788/clouddrive/internal/uploads"
	"github.com/Aashish788/clouddrive/pkg/logger"
	"github.com/Aashish788/clouddrive/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	store *store.Store
	links *services.PublicLinkService
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	objects, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed creating local object store: %v", err)
	}

	coordinator, err := uploads.NewCoordinator(uploads.NewMemorySessionStore(), objects, uploads.Options{
		TempDir:      t.TempDir(),
		TTL:          time.Hour,
		MaxChunkSize: 5 * 1024 * 1024,
		MaxFileSize:  50 * 1024 * 1024,
	})
	if err != nil {
		t.Fatalf("failed creating upload coordinator: %v", err)
	}

	dataStore := store.New(db)
	permService := services.NewPermissionService(dataStore)
	linkService := services.NewPublicLinkService(
		dataStore,
		services.NewMemoryLinkStore(),
		services.NewMemoryLinkStore(),
		"http://localhost:8080",
	)

	authHandler := NewAuthHandler(dataStore)
	usersHandler := NewUsersHandler(dataStore)
	groupsHandler := NewGroupsHandler(dataStore)
	filesHandler := NewFilesHandler(dataStore, permService, objects)
	foldersHandler := NewFoldersHandler(dataStore, permService)
	uploadsHandler := NewUploadsHandler(dataStore, permService, coordinator)
	sharesHandler := NewSharesHandler(dataStore, permService)
	publicHandler := NewPublicHandler(dataStore, permService, linkService, objects)

	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 10 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

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

	return &testEnv{app: app, db: db, store: dataStore, links: linkService}
}

func createTestUser(t *testing.T, db *gorm.DB, email, password string, role models.UserRole) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestGroup(t *testing.T, env *testEnv, creator *models.User, name string) *models.Group {
	t.Helper()

	group := &models.Group{Name: name, CreatedByID: creator.ID}
	if err := env.store.CreateGroupWithOwner(context.Background(), group); err != nil {
		t.Fatalf("failed creating test group: %v", err)
	}
	return group
}

func addTestMember(t *testing.T, env *testEnv, group *models.Group, user *models.User, permission models.Permission) {
	t.Helper()

	membership := &models.GroupMembership{
		UserID:     user.ID,
		GroupID:    group.ID,
		Permission: permission,
		AddedByID:  group.CreatedByID,
	}
	if err := env.store.AddMember(context.Background(), membership); err != nil {
		t.Fatalf("failed adding test member: %v", err)
	}
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

// uploadChunk posts one raw chunk to the binary upload endpoint.
func uploadChunk(t *testing.T, env *testEnv, token, path, fileName string, index, total int, data []byte, extra map[string]string) *http.Response {
	t.Helper()

	headers := authHeaders(token)
	headers["X-File-Name"] = fileName
	headers["X-File-Type"] = "application/octet-stream"
	headers["X-Chunk-Index"] = strconv.Itoa(index)
	headers["X-Total-Chunks"] = strconv.Itoa(total)
	for key, value := range extra {
		headers[key] = value
	}

	return performRequest(t, env.app, http.MethodPost, path, bytes.NewReader(data), headers)
}
