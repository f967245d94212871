package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"blogpost/internal/config"
	"blogpost/internal/database"
	"blogpost/internal/models"
	"blogpost/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-that-is-long-enough-123"

type testServer struct {
	srv   *Server
	app   *fiber.App
	mr    *miniredis.Miniredis
	store *storage.Memory
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:        testSecret,
		Port:             "0",
		Env:              "test",
		AllowedOrigins:   "http://localhost:5173",
		StorageBackend:   "memory",
		MediaMaxUploadMB: 1,
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// setupTestServer builds the full app over sqlite, miniredis and in-memory storage.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := storage.NewMemory()
	srv, err := NewServerWithDeps(testConfig(), openTestDB(t), rdb, store)
	require.NoError(t, err)

	return &testServer{srv: srv, app: srv.NewApp(), mr: mr, store: store}
}

func (ts *testServer) createUser(t *testing.T, email string, staff bool) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{Email: email, FullName: "Test User", Password: string(hash)}
	require.NoError(t, ts.srv.userRepo.Create(context.Background(), u))
	if staff {
		require.NoError(t, ts.srv.userRepo.SetStaff(context.Background(), u.ID, true))
		u.IsStaff = true
	}

	token, err := ts.srv.authService.GenerateToken(u.ID)
	require.NoError(t, err)
	return u, token
}

func (ts *testServer) do(t *testing.T, req *http.Request, token string) *http.Response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (ts *testServer) doJSON(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.do(t, req, token)
}

// createPost creates a post through the API and returns its decoded representation.
func (ts *testServer) createPost(t *testing.T, token, title string) map[string]interface{} {
	t.Helper()
	resp := ts.doJSON(t, http.MethodPost, "/blog/blogpost/", map[string]interface{}{
		"title": title,
		"text":  "Body of " + title,
	}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeMap(t, resp)
}

type formFile struct {
	field, filename, contentType string
	content                      []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string][]string, files ...formFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, w.WriteField(k, v))
		}
	}
	for _, f := range files {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + f.field + `"; filename="` + f.filename + `"`}
		h["Content-Type"] = []string{f.contentType}
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeMap(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func decodeList(t *testing.T, resp *http.Response) []map[string]interface{} {
	t.Helper()
	var body []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func idPath(prefix string, post map[string]interface{}, suffix string) string {
	return prefix + jsonID(post) + suffix
}

func jsonID(obj map[string]interface{}) string {
	return strconv.FormatInt(int64(obj["id"].(float64)), 10)
}
