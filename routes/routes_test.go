package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"imagehost/db"
	"imagehost/storetables"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	gdb := db.InitDatabase(filepath.Join(dir, "test.db"), zap.NewNop())
	app := fiber.New()
	SetupRoutes(app, storetables.NewRepo(gdb, zap.NewNop()), filepath.Join(dir, "uploads"))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestStoreLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, "POST", "/api/stores", map[string]string{"name": "Test Store"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	storeID := body["id"].(float64)
	require.NotZero(t, storeID)

	resp, _ = doJSON(t, app, "GET", "/api/stores/1", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "DELETE", "/api/stores/1", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/stores/1", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestStoreScopedCRUDOverHTTP(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/stores", map[string]string{"name": "Store One"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/api/stores", map[string]string{"name": "Store Two"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, category := doJSON(t, app, "POST", "/api/stores/1/categories", map[string]string{"name": "Shoes"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	categoryID := int64(category["id"].(float64))

	// Same name in the second store succeeds independently
	resp, _ = doJSON(t, app, "POST", "/api/stores/2/categories", map[string]string{"name": "Shoes"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, product := doJSON(t, app, "POST", "/api/stores/1/products", map[string]interface{}{
		"name": "Sneaker", "category_id": categoryID,
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	productID := int64(product["id"].(float64))

	resp, _ = doJSON(t, app, "POST", "/api/stores/1/images", map[string]interface{}{
		"name": "Logo", "product_id": productID, "image_code": "logo",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// Duplicate code within the store is a conflict
	resp, _ = doJSON(t, app, "POST", "/api/stores/1/images", map[string]interface{}{
		"name": "Logo again", "product_id": productID, "image_code": "logo",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, image := doJSON(t, app, "GET", "/api/stores/1/images/code/logo", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "logo", image["image_code"])

	// Cascade delete through the API
	resp, _ = doJSON(t, app, "DELETE", "/api/stores/1/categories/1", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, listing := doJSON(t, app, "GET", "/api/stores/1/products", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), listing["total"])

	// Store 2 is untouched
	resp, listing = doJSON(t, app, "GET", "/api/stores/2/categories", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), listing["total"])
}

func TestAliasedStoreIDResolvesCanonicalTables(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/stores", map[string]string{"name": "Store One"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, app, "POST", "/api/stores/1/categories", map[string]string{"name": "Shoes"})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// "01" is the same store id; it must hit store_1_* rather than a
	// never-provisioned store_01_* table set
	resp, listing := doJSON(t, app, "GET", "/api/stores/01/categories", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), listing["total"])
}

func TestMalformedStoreIDOverHTTP(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, "GET", "/api/stores/not%3Bvalid/categories", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
