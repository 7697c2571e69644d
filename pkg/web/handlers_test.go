package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waflow/waflow/pkg/library"
	"github.com/waflow/waflow/pkg/models"
	"github.com/waflow/waflow/pkg/persistence/file"
	"github.com/waflow/waflow/pkg/services"
	"github.com/waflow/waflow/pkg/testutil"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	lib, err := library.LoadDefault()
	require.NoError(t, err)

	service := services.NewBlueprint(lib, file.NewPersistence(t.TempDir()), nil)
	handlers := NewAPIHandlers(service, validator.New(validator.WithRequiredStructEnabled()))

	return NewApp(handlers)
}

func doJSON(t *testing.T, app *fiber.App, method, target string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader

	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if err := resp.Body.Close(); err != nil {
		t.Logf("Failed to close response body: %v", err)
	}

	return resp, data
}

func TestRootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Waflow Blueprint API", string(body))
}

func TestGetNodes(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/nodes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Nodes []models.NodeDefinition `json:"nodes"`
	}

	require.NoError(t, json.Unmarshal(body, &payload))
	assert.NotEmpty(t, payload.Nodes)
}

func TestGetNodes_CategoryFilter(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/nodes?category=trigger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Nodes []models.NodeDefinition `json:"nodes"`
	}

	require.NoError(t, json.Unmarshal(body, &payload))
	require.NotEmpty(t, payload.Nodes)

	for _, def := range payload.Nodes {
		assert.Equal(t, models.CategoryTrigger, def.Category)
	}
}

func TestValidateBlueprintEndpoint(t *testing.T) {
	app := setupTestApp(t)

	t.Run("valid blueprint", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/blueprints/validate", testutil.CreateTestBlueprint())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var payload ValidateBlueprintResponse
		require.NoError(t, json.Unmarshal(body, &payload))

		assert.True(t, payload.Result.Valid)
		assert.True(t, payload.Executable)
		assert.Greater(t, payload.Complexity, 0)
	})

	t.Run("invalid blueprint still returns 200 with defects", func(t *testing.T) {
		bp := testutil.CreateTestBlueprint(
			testutil.WithNodes(testutil.CreateTestNode(testutil.WithType("teleport"))),
			testutil.WithEdges(),
		)

		resp, body := doJSON(t, app, http.MethodPost, "/blueprints/validate", bp)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var payload ValidateBlueprintResponse
		require.NoError(t, json.Unmarshal(body, &payload))

		assert.False(t, payload.Result.Valid)
		assert.NotEmpty(t, payload.Result.Errors)
		assert.False(t, payload.Executable)
	})

	t.Run("malformed payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/blueprints/validate", bytes.NewReader([]byte("{not json")))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)

		defer func() {
			if err := resp.Body.Close(); err != nil {
				t.Logf("Failed to close response body: %v", err)
			}
		}()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestRecommendEndpoint(t *testing.T) {
	app := setupTestApp(t)

	t.Run("returns ranked suggestions", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/blueprints/recommend", RecommendRequest{
			Action: "reply to the customer with their order status",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var payload RecommendResponse
		require.NoError(t, json.Unmarshal(body, &payload))

		assert.NotEmpty(t, payload.Recommendations)
		assert.LessOrEqual(t, len(payload.Recommendations), 3)
	})

	t.Run("action too short", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/blueprints/recommend", RecommendRequest{Action: "hi"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSelectionEndpoint(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/blueprints/selection", SelectionRequest{
		NodeTypes: []string{"whatsapp_trigger", "shopify", "whatsapp_reply"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Valid       bool     `json:"valid"`
		Suggestions []string `json:"suggestions"`
	}

	require.NoError(t, json.Unmarshal(body, &payload))
	assert.True(t, payload.Valid)
	require.Len(t, payload.Suggestions, 1)
	assert.Contains(t, payload.Suggestions[0], "try_catch")
}

func TestBlueprintCRUD(t *testing.T) {
	app := setupTestApp(t)

	// Create
	resp, body := doJSON(t, app, http.MethodPost, "/bots/bot-1/blueprints/", testutil.CreateTestBlueprint())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Blueprint
	require.NoError(t, json.Unmarshal(body, &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "bot-1", created.BotID)

	// List
	resp, body = doJSON(t, app, http.MethodGet, "/bots/bot-1/blueprints/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Blueprints []models.Blueprint `json:"blueprints"`
	}

	require.NoError(t, json.Unmarshal(body, &listing))
	require.Len(t, listing.Blueprints, 1)

	// Get
	resp, body = doJSON(t, app, http.MethodGet, "/bots/bot-1/blueprints/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Blueprint
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	// Update
	update := testutil.CreateTestBlueprint()
	update.Name = "Renamed Blueprint"

	resp, body = doJSON(t, app, http.MethodPut, "/bots/bot-1/blueprints/"+created.ID, update)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Blueprint
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Renamed Blueprint", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	// Delete
	resp, _ = doJSON(t, app, http.MethodDelete, "/bots/bot-1/blueprints/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/bots/bot-1/blueprints/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateBlueprint_RejectsShortName(t *testing.T) {
	app := setupTestApp(t)

	bp := testutil.CreateTestBlueprint()
	bp.Name = "ab"

	resp, _ := doJSON(t, app, http.MethodPost, "/bots/bot-1/blueprints/", bp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPrepareEndpoint(t *testing.T) {
	app := setupTestApp(t)

	bp := testutil.CreateTestBlueprint(
		testutil.WithNodes(
			testutil.CreateTestNode(testutil.WithID("1"), testutil.WithType("whatsapp_trigger"), testutil.WithConfig(map[string]any{})),
			testutil.CreateTestNode(testutil.WithID("2"), testutil.WithConfig(map[string]any{
				"message": "Hi {{user.name}}",
			})),
		),
	)

	resp, body := doJSON(t, app, http.MethodPost, "/bots/bot-1/blueprints/", bp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Blueprint
	require.NoError(t, json.Unmarshal(body, &created))

	t.Run("resolves tokens", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/bots/bot-1/blueprints/"+created.ID+"/prepare", PrepareRequest{
			Context: *testutil.CreateTestInjectionContext(),
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var payload struct {
			Blueprint models.Blueprint `json:"blueprint"`
		}

		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "Hi Thandi", payload.Blueprint.Nodes[1].Config["message"])
	})

	t.Run("unknown blueprint", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodPost, "/bots/bot-1/blueprints/missing/prepare", PrepareRequest{})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPrepareEndpoint_InvalidBlueprint(t *testing.T) {
	app := setupTestApp(t)

	bp := testutil.CreateTestBlueprint(
		testutil.WithNodes(
			testutil.CreateTestNode(testutil.WithID("1"), testutil.WithType("whatsapp_trigger"), testutil.WithConfig(map[string]any{})),
			testutil.CreateTestNode(testutil.WithID("2"), testutil.WithType("ask_question"), testutil.WithConfig(map[string]any{})),
		),
	)

	resp, body := doJSON(t, app, http.MethodPost, "/bots/bot-1/blueprints/", bp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Blueprint
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body = doJSON(t, app, http.MethodPost, "/bots/bot-1/blueprints/"+created.ID+"/prepare", PrepareRequest{
		Context: *testutil.CreateTestInjectionContext(),
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Result *models.ValidationResult `json:"result"`
	}

	require.NoError(t, json.Unmarshal(body, &payload))
	require.NotNil(t, payload.Result)
	assert.False(t, payload.Result.Valid)
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Status string `json:"status"`
	}

	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "healthy", payload.Status)
}
