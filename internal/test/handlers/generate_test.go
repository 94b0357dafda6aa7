package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cakevision-backend/internal/gateway"
	"cakevision-backend/internal/handlers"
	"cakevision-backend/internal/middleware"
	"cakevision-backend/internal/models"
	"cakevision-backend/internal/services"
	"cakevision-backend/internal/supabase"
)

var testUserID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEntitlementStore backs the entitlement service in handler tests.
type fakeEntitlementStore struct {
	profile  *models.Profile
	yearly   int
	lifetime int
}

func (f *fakeEntitlementStore) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if f.profile == nil {
		return nil, supabase.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeEntitlementStore) YearlyGenerationCount(ctx context.Context, userID uuid.UUID, year int) (int, error) {
	return f.yearly, nil
}

func (f *fakeEntitlementStore) LifetimeGenerationCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return f.lifetime, nil
}

// newGatewayServer fakes the AI gateway. Requests carrying the image
// modality get an image entry; plain chat requests get greeting text.
func newGatewayServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		var body struct {
			Modalities []string `json:"modalities"`
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		if len(body.Modalities) > 0 {
			io.WriteString(w, `{"choices":[{"message":{"images":["data:image/png;base64,IMG"]}}]}`)
			return
		}
		io.WriteString(w, `{"choices":[{"message":{"content":"Happy birthday, Emma!"}}]}`)
	}))
}

func newGenerateRouter(gatewayURL string, store *fakeEntitlementStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := testLogger()

	gw := gateway.NewClient(gatewayURL, "test-key", "image-fast", "image-high", "text-model", log)
	entitlements := services.NewEntitlementService(store, 5, 100, log)
	handler := handlers.NewGenerateHandler(gw, entitlements, 30*time.Second, log)

	router := gin.New()
	router.POST("/api/v1/cakes/generate", func(c *gin.Context) {
		c.Set(middleware.UserIDKey, testUserID.String())
		handler.Generate(c)
	})
	return router
}

func postGenerate(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, _ := http.NewRequest("POST", "/api/v1/cakes/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func baseRequest() map[string]any {
	return map[string]any{
		"name":     "Emma",
		"occasion": "birthday",
		"relation": "daughter",
		"gender":   "female",
	}
}

func TestGenerate_DecoratedBatch(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK)
	defer server.Close()

	router := newGenerateRouter(server.URL, &fakeEntitlementStore{})
	w := postGenerate(t, router, baseRequest())

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.GenerateCakeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Images, 3)
	assert.Equal(t, []string{"Front View", "Side View", "Top-Down View"}, resp.ImageLabels)
	assert.False(t, resp.GenerateBothStyles)
	assert.Equal(t, "Happy birthday, Emma!", resp.GreetingMessage)
}

func TestGenerate_SculptedBatchHasTwoViews(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK)
	defer server.Close()

	router := newGenerateRouter(server.URL, &fakeEntitlementStore{})
	body := baseRequest()
	body["cakeStyle"] = "sculpted"
	w := postGenerate(t, router, body)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.GenerateCakeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Images, 2)
	assert.Equal(t, []string{"Sculpted View", "Top-Down View"}, resp.ImageLabels)
}

func TestGenerate_CharacterBatchHasFourViewsAndBothStyles(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK)
	defer server.Close()

	store := &fakeEntitlementStore{
		profile: &models.Profile{ID: testUserID, IsPremium: true},
	}
	router := newGenerateRouter(server.URL, store)
	body := baseRequest()
	body["character"] = "dragon"
	w := postGenerate(t, router, body)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.GenerateCakeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Images, 4)
	assert.True(t, resp.GenerateBothStyles)
	assert.Equal(t, []string{"Front View", "Side View", "Top-Down View", "Sculpted View"}, resp.ImageLabels)
}

func TestGenerate_SpecificViewRegeneratesOneImage(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK)
	defer server.Close()

	router := newGenerateRouter(server.URL, &fakeEntitlementStore{})
	body := baseRequest()
	body["cakeStyle"] = "sculpted"
	body["specificView"] = "top"
	w := postGenerate(t, router, body)

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.RegenerateViewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "data:image/png;base64,IMG", resp.RegeneratedImage)
	assert.Equal(t, "top", resp.ViewName)
	assert.Equal(t, "sculpted", resp.ViewStyle)
	assert.Equal(t, 1, resp.ViewIndex)
}

func TestGenerate_NameTooLongIsRejected(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK)
	defer server.Close()

	router := newGenerateRouter(server.URL, &fakeEntitlementStore{})
	body := baseRequest()
	body["name"] = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	w := postGenerate(t, router, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerate_RateLimitPropagatesAs429(t *testing.T) {
	server := newGatewayServer(t, http.StatusTooManyRequests)
	defer server.Close()

	router := newGenerateRouter(server.URL, &fakeEntitlementStore{})
	w := postGenerate(t, router, baseRequest())

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
}

func TestGenerate_CreditsExhaustedIs500WithSuccessFalse(t *testing.T) {
	server := newGatewayServer(t, http.StatusPaymentRequired)
	defer server.Close()

	router := newGenerateRouter(server.URL, &fakeEntitlementStore{})
	w := postGenerate(t, router, baseRequest())

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Image generation credits exhausted", resp["error"])
}

func TestGenerate_PremiumCharacterRequiresPremium(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK)
	defer server.Close()

	router := newGenerateRouter(server.URL, &fakeEntitlementStore{})
	body := baseRequest()
	body["character"] = "unicorn"
	w := postGenerate(t, router, body)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "premium subscription")
}

func TestGenerate_FreeQuotaExhausted(t *testing.T) {
	server := newGatewayServer(t, http.StatusOK)
	defer server.Close()

	router := newGenerateRouter(server.URL, &fakeEntitlementStore{lifetime: 5})
	w := postGenerate(t, router, baseRequest())

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Generation limit reached")
}
