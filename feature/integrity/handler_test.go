package integrity

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"planner/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client) {
	app := fiber.New()
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, "test-bucket", setupDB(t), zap.NewNop())
	handler := NewHandler(svc)
	handler.RegisterRoutes(app)
	return app, mockClient
}

func emptyListing(mockClient *mocks.Client) {
	mockClient.On("BucketExists", mock.Anything, "test-bucket").Return(true, nil)
	ch := make(chan minio.ObjectInfo)
	close(ch)
	mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))
}

func TestHandleStructureCheck(t *testing.T) {
	app, mockClient := setupTestApp(t)
	emptyListing(mockClient)

	req := httptest.NewRequest("GET", "/integrity/structure", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "checked", body["status"])
	assert.Equal(t, []any{"exports"}, body["missing"])
}

func TestHandleStructureFix(t *testing.T) {
	app, mockClient := setupTestApp(t)
	emptyListing(mockClient)
	mockClient.On("PutObject", mock.Anything, "test-bucket", "exports/", mock.Anything, int64(0), mock.Anything).Return(minio.UploadInfo{}, nil)

	req := httptest.NewRequest("GET", "/integrity/structure?fix=true", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "fixed", body["status"])
	mockClient.AssertExpectations(t)
}

func TestHandleServerCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/integrity/server", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["matched"])
}

func TestHandleDataCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/integrity/data", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleIntegrityCheck(t *testing.T) {
	app, mockClient := setupTestApp(t)
	emptyListing(mockClient)

	req := httptest.NewRequest("GET", "/integrity", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body, "structure")
	assert.Contains(t, body, "server")
	assert.Contains(t, body, "data")
}

func TestHandleStructureCheck_NoStorage(t *testing.T) {
	app := fiber.New()
	NewHandler(NewService(nil, "test-bucket", setupDB(t), zap.NewNop())).RegisterRoutes(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/integrity/structure", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "storage_disabled", body["code"])
}
