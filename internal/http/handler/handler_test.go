package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wopihost/internal/config"
	"wopihost/internal/identity"
	"wopihost/internal/lock"
	"wopihost/internal/model"
	"wopihost/internal/resolver"
	"wopihost/internal/service"
	serviceMocks "wopihost/internal/service/mocks"
	"wopihost/internal/storage"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(_ context.Context) error { return p.err }

func newTestApp(svc service.WopiService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, stubPinger{}, svc, zap.NewNop())
	return app
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(stubPinger{}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(stubPinger{err: errors.New("disk gone")}))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Header.Get(ServerErrorHeader))
		assert.NotContains(t, readBody(t, resp), "disk gone")
	})
}

func TestLivenessCheck(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessCheck())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCheckFileInfo(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		svc.On("CheckFileInfo", mock.Anything, "abc123").Return(&model.FileInfo{
			BaseFileName: "abc123.docx",
			Size:         12,
			UserId:       "1",
			UserCanWrite: true,
		}, nil).Once()

		resp, err := newTestApp(svc).Test(httptest.NewRequest(http.MethodGet, "/wopi/files/abc123", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "abc123.docx", body["BaseFileName"])
		assert.EqualValues(t, 12, body["Size"])
		assert.Equal(t, "1", body["UserId"])
		assert.Equal(t, true, body["UserCanWrite"])
		svc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		svc.On("CheckFileInfo", mock.Anything, "missing").Return(nil, service.ErrNotFound).Once()

		resp, err := newTestApp(svc).Test(httptest.NewRequest(http.MethodGet, "/wopi/files/missing", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "File not found", readBody(t, resp))
		assert.Equal(t, "NOT_FOUND", resp.Header.Get(ServerErrorHeader))
	})

	t.Run("internal error hides cause", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		cause := errors.New("permission denied: /srv/docs/abc123.docx")
		svc.On("CheckFileInfo", mock.Anything, "abc123").
			Return(nil, errors.Join(service.ErrStorageRead, cause)).Once()

		resp, err := newTestApp(svc).Test(httptest.NewRequest(http.MethodGet, "/wopi/files/abc123", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		body := readBody(t, resp)
		assert.Equal(t, "Internal server error", body)
		assert.NotContains(t, body, "/srv/docs")
	})
}

func TestGetFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		svc.On("GetFile", mock.Anything, "abc123").Return([]byte("hello world!"), nil).Once()

		resp, err := newTestApp(svc).Test(httptest.NewRequest(http.MethodGet, "/wopi/files/abc123/contents", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, fiber.MIMEOctetStream, resp.Header.Get(fiber.HeaderContentType))
		assert.Equal(t, "hello world!", readBody(t, resp))
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		svc.On("GetFile", mock.Anything, "missing").Return(nil, service.ErrNotFound).Once()

		resp, err := newTestApp(svc).Test(httptest.NewRequest(http.MethodGet, "/wopi/files/missing/contents", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("read failure", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		svc.On("GetFile", mock.Anything, "abc123").Return(nil, service.ErrStorageRead).Once()

		resp, err := newTestApp(svc).Test(httptest.NewRequest(http.MethodGet, "/wopi/files/abc123/contents", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", resp.Header.Get(ServerErrorHeader))
	})
}

func TestPutFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		svc.On("PutFile", mock.Anything, "abc123", []byte("new content")).Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/wopi/files/abc123/contents", strings.NewReader("new content"))
		resp, err := newTestApp(svc).Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	t.Run("empty body", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		svc.On("PutFile", mock.Anything, "abc123", mock.Anything).Return(service.ErrEmptyContent).Once()

		req := httptest.NewRequest(http.MethodPost, "/wopi/files/abc123/contents", nil)
		resp, err := newTestApp(svc).Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No file content provided", readBody(t, resp))
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		svc.On("PutFile", mock.Anything, "missing", mock.Anything).Return(service.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodPost, "/wopi/files/missing/contents", strings.NewReader("x"))
		resp, err := newTestApp(svc).Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("write failure", func(t *testing.T) {
		svc := new(serviceMocks.MockWopiService)
		svc.On("PutFile", mock.Anything, "abc123", mock.Anything).Return(service.ErrStorageWrite).Once()

		req := httptest.NewRequest(http.MethodPost, "/wopi/files/abc123/contents", strings.NewReader("x"))
		resp, err := newTestApp(svc).Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Error saving file", readBody(t, resp))
		assert.Equal(t, "WRITE_FAILED", resp.Header.Get(ServerErrorHeader))
	})
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, stubPinger{}, new(serviceMocks.MockWopiService), zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", resp.Header.Get(ServerErrorHeader))

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/wopi/files/abc123/contents", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPutFileBodyLimit(t *testing.T) {
	svc := new(serviceMocks.MockWopiService)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(), BodyLimit: 16})
	RegisterRoutes(app, stubPinger{}, svc, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/wopi/files/abc123/contents", bytes.NewReader(make([]byte, 64)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	svc.AssertNotCalled(t, "PutFile", mock.Anything, mock.Anything, mock.Anything)
}

// newFilesystemApp wires the real stack over a temp directory.
func newFilesystemApp(t *testing.T) (*fiber.App, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFilesystem(dir)
	require.NoError(t, err)

	svc := service.NewWopiService(
		resolver.NewScan(store, false),
		store,
		lock.NewKeyed(),
		identity.NewStatic(config.IdentityConfig{UserID: "1", CanWrite: true}),
	)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, store, svc, zap.NewNop())
	return app, dir
}

func TestWopiFilesystemEndToEnd(t *testing.T) {
	app, dir := newFilesystemApp(t)
	path := filepath.Join(dir, "abc123.docx")
	require.NoError(t, os.WriteFile(path, []byte("hello world!"), 0o644))

	t.Run("check file info", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/wopi/files/abc123", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var info model.FileInfo
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		assert.Equal(t, "abc123.docx", info.BaseFileName)
		assert.EqualValues(t, 12, info.Size)
		assert.Equal(t, "1", info.UserId)
		assert.True(t, info.UserCanWrite)
	})

	t.Run("get file", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/wopi/files/abc123/contents", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "hello world!", readBody(t, resp))
	})

	t.Run("unknown id", func(t *testing.T) {
		for _, target := range []string{"/wopi/files/doesnotexist", "/wopi/files/doesnotexist/contents"} {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode, target)
		}

		req := httptest.NewRequest(http.MethodPost, "/wopi/files/doesnotexist/contents", strings.NewReader("x"))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.NoFileExists(t, filepath.Join(dir, "doesnotexist"))
	})

	t.Run("empty put leaves content", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/wopi/files/abc123/contents", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hello world!", string(got))
	})

	t.Run("put then get round trip", func(t *testing.T) {
		payload := []byte("updated content")
		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodPost, "/wopi/files/abc123/contents", bytes.NewReader(payload))
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/wopi/files/abc123/contents", nil))
		require.NoError(t, err)
		assert.Equal(t, string(payload), readBody(t, resp))

		resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/wopi/files/abc123", nil))
		require.NoError(t, err)
		var info model.FileInfo
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		assert.EqualValues(t, len(payload), info.Size)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestCheckFileInfoNumericUserID(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc123.docx"), []byte("hello world!"), 0o644))
	store, err := storage.NewFilesystem(dir)
	require.NoError(t, err)

	svc := service.NewWopiService(
		resolver.NewScan(store, false),
		store,
		lock.NewKeyed(),
		identity.NewStatic(config.IdentityConfig{UserID: "1", CanWrite: true, UserIDNumeric: true}),
	)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	RegisterRoutes(app, store, svc, zap.NewNop())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/wopi/files/abc123", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(1), body["UserId"])
	assert.Equal(t, "abc123.docx", body["BaseFileName"])
}
