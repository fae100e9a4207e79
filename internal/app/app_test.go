package app_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopSender struct{}

func (nopSender) Send(context.Context, string, string) error { return nil }

func testConfig(store string) *config.Config {
	return &config.Config{
		AppEnv:        "development",
		StoreDriver:   store,
		DBDriver:      database.DriverSQLite,
		DBTimeout:     time.Second,
		JWTSecret:     "test_jwt_secret",
		OrderIDPrefix: "TST",
		CORSOrigins:   "*",
	}
}

func newTestApp(t *testing.T, store string) *app.App {
	t.Helper()
	db, err := database.OpenTest(t.Name())
	require.NoError(t, err)

	a, err := app.NewApp(context.Background(), testConfig(store), zap.NewNop(), app.Options{DB: db, Sender: nopSender{}})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Fiber.Shutdown()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return a
}

func TestHealthCheck(t *testing.T) {
	a := newTestApp(t, config.StoreGORM)

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, config.StoreGORM, body["store"])
}

func TestMetricsEndpointReportsRequests(t *testing.T) {
	a := newTestApp(t, config.StoreGORM)

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/products/below499", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `storefront_http_requests_total{method="GET",route="/api/products/below499",status="200"} 1`)
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	a := newTestApp(t, config.StoreGORM)

	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
}

func TestMemoryStoreKeepsUsersInSQL(t *testing.T) {
	a := newTestApp(t, config.StoreMemory)
	ctx := context.Background()

	details := models.StockDetails{}
	details.SetQuantity("M", "Red", 2)
	require.NoError(t, a.Stores.Products.Create(ctx, &models.Product{
		ID: "MEM-1", Collection: "Kids", Title: "Frock", Price: 300, StockDetails: details, IsActive: true,
	}))

	body := `{"userId":"u1","totalAmount":300,"paymentMethod":"cod",
		"shippingAddress":{"street":"1","village":"v","district":"d","state":"s","pincode":"600001","country":"India"},
		"items":[{"productId":"MEM-1","quantity":1,"selectedSize":"M","selectedColor":"Red"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders/place", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.Fiber.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var placed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&placed))
	assert.True(t, strings.HasPrefix(placed["orderId"].(string), "TST_"))

	_, err = a.Stores.Users.GetByPhone(ctx, "9999999999")
	assert.Error(t, err)
}

func TestNewAppRejectsUnknownStore(t *testing.T) {
	db, err := database.OpenTest(t.Name())
	require.NoError(t, err)

	_, err = app.NewApp(context.Background(), testConfig("cassandra"), nil, app.Options{DB: db})
	assert.Error(t, err)
}
