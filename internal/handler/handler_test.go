package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"carintel/internal/config"
	"carintel/internal/model"
	"carintel/internal/repository"
	"carintel/internal/service"
)

type stubGenerator struct {
	reply string
}

func (s stubGenerator) Generate(ctx context.Context, req service.GenerateRequest) (string, error) {
	return s.reply, nil
}

func float64Ptr(v float64) *float64 { return &v }

func newTestRouter(t *testing.T, gen service.Generator) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	compact := "Compact"
	source := "Car and Driver"
	ds := repository.NewDataset(map[model.VehicleType]repository.Partition{
		model.VehicleConventional: {
			Records: []model.VehicleRecord{
				{VehicleType: model.VehicleConventional, ModelYear: 2024, Make: "Honda", VehicleClass: &compact, Model: "Civic",
					CityLPer100Km: float64Ptr(9.0), HighwayLPer100Km: float64Ptr(6.5)},
				{VehicleType: model.VehicleConventional, ModelYear: 2023, Make: "Mazda", VehicleClass: &compact, Model: "3"},
			},
			Columns: repository.Columns{ModelYear: true, VehicleClass: true},
		},
	}, []model.RankingEntry{
		{Year: 2024, Category: "Best SUV", Rank: 1, Model: "RAV4", Manufacturer: "Toyota", Source: &source},
		{Year: 2023, Category: "Best Sedan", Rank: 1, Model: "Accord", Manufacturer: "Honda"},
	}, "")

	logger := zap.NewNop()
	catalog := service.NewCatalogService(ds)
	estimator := service.NewEstimatorService(catalog, config.EstimatorConfig{
		DefaultAnnualDistanceKm: 15000,
		DefaultCityPercent:      80,
		DefaultFuelPrice:        1.80,
		DefaultElectricityPrice: 0.14,
	})
	advisory := service.NewAdvisoryService(gen, estimator, service.AdvisoryOptions{Temperature: 0.3}, logger)
	chat := service.NewChatService(repository.NewMemoryConversationStore(), gen, service.ChatOptions{Temperature: 0.7}, logger)
	rankings := service.NewRankingsService(ds)

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger))
	RegisterRoutes(router, Handlers{
		Search:   NewSearchHandler(catalog, estimator, advisory),
		Chat:     NewChatHandler(chat),
		Rankings: NewRankingsHandler(rankings),
		System:   NewSystemHandler(rankings, BuildInfo{Version: "test"}),
	})
	return router
}

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestSystemEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = doRequest(router, http.MethodGet, "/api/v1/meta", nil)
	require.Equal(t, http.StatusOK, w.Code)
	meta := decode[model.MetaResponse](t, w)
	assert.Equal(t, repository.DefaultLastUpdated, meta.LastUpdated)
	assert.Equal(t, model.VehicleTypes, meta.VehicleTypes)
}

func TestCatalogEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"years", "/api/v1/catalog/conventional/years", http.StatusOK, `"years":[2023,2024]`},
		{"makes", "/api/v1/catalog/conventional/makes?year=2024", http.StatusOK, `{"makes":["Honda"]}`},
		{"makes without year", "/api/v1/catalog/conventional/makes", http.StatusOK, `{"makes":[]}`},
		{"classes", "/api/v1/catalog/conventional/classes?year=2024&make=Honda", http.StatusOK, `{"classes":["Compact"]}`},
		{"models absent pair", "/api/v1/catalog/conventional/models?year=2024&make=Lada", http.StatusOK, `{"models":[]}`},
		{"vehicle", "/api/v1/catalog/conventional/vehicle?year=2024&make=Honda&model=Civic", http.StatusOK, `"model":"Civic"`},
		{"vehicle without model", "/api/v1/catalog/conventional/vehicle?year=2024&make=Honda", http.StatusBadRequest, `"error":"VALIDATION_GAP"`},
		{"vehicle missing", "/api/v1/catalog/conventional/vehicle?year=2024&make=Honda&model=Fit", http.StatusNotFound, `"error":"NOT_FOUND"`},
		{"bad type", "/api/v1/catalog/hovercraft/years", http.StatusBadRequest, `"error":"BAD_REQUEST"`},
		{"bad year", "/api/v1/catalog/conventional/makes?year=soon", http.StatusBadRequest, `year must be a number`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestCascadeEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)
	year := "2024"

	w := doRequest(router, http.MethodPost, "/api/v1/catalog/cascade", model.CascadeRequest{
		Field: model.FieldModelYear,
		Value: &year,
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[model.CascadeResponse](t, w)
	assert.Equal(t, model.VehicleConventional, resp.Selection.VehicleType)
	assert.Equal(t, []string{"Honda"}, resp.Options.Makes)

	w = doRequest(router, http.MethodPost, "/api/v1/catalog/cascade", map[string]any{"field": "colour"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEstimateEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/estimate", model.EstimateRequest{
		VehicleType: "conventional", Year: "2024", Make: "Honda", Model: "Civic",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[model.EstimateResponse](t, w)
	assert.InDelta(t, 2295.0, resp.AnnualCost, 1e-9)
	assert.Equal(t, "Estimated annual fuel cost: $2,295 CAD (at 1.80 CAD/L)", resp.Message)

	w = doRequest(router, http.MethodPost, "/api/v1/estimate", model.EstimateRequest{
		VehicleType: "conventional", Year: "2023", Make: "Mazda", Model: "3",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Fuel data unavailable.")

	w = doRequest(router, http.MethodPost, "/api/v1/estimate", model.EstimateRequest{
		VehicleType: "conventional", Year: "2024", Make: "Honda", Model: "Civic", CityPercent: float64Ptr(120),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"BAD_REQUEST"`)

	w = doRequest(router, http.MethodPost, "/api/v1/estimate", model.EstimateRequest{VehicleType: "conventional", Year: "2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"VALIDATION_GAP"`)
	assert.Contains(t, w.Body.String(), "Please select Year, Make, and Model.")

	w = doRequest(router, http.MethodGet, "/api/v1/energy-pricing/bev", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Electricity price (CAD per kWh):")
}

func TestAdvisoryEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/advisory/report", model.AdvisoryRequest{Year: "2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select Year, Make, and Model.")

	w = doRequest(router, http.MethodPost, "/api/v1/advisory/report", model.AdvisoryRequest{
		VehicleType: "conventional", Year: "2024", Make: "Honda", Model: "Civic",
	})
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[model.VehicleReport](t, w)
	assert.Equal(t, "2024 Honda Civic", report.Title)
	assert.Equal(t, "KPI data unavailable.", report.KPIMessage)
}

func TestChatEndpoints(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: `{"recommendations":[{"rank":1,"model":"Civic","manufacturer":"Honda","year":2024}]}`})

	w := doRequest(router, http.MethodPost, "/api/v1/chat/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	session := decode[model.ChatSessionResponse](t, w)
	require.NotEmpty(t, session.SessionID)
	require.Len(t, session.Messages, 1, "the system prompt is hidden")
	assert.Equal(t, service.Greeting, session.Messages[0].Content)

	w = doRequest(router, http.MethodPost, "/api/v1/chat/sessions/"+session.SessionID+"/messages",
		model.ChatMessageRequest{Text: "reliable compact"})
	require.Equal(t, http.StatusOK, w.Code)
	turn := decode[model.ChatTurnResponse](t, w)
	assert.Equal(t, service.Acknowledgment, turn.Reply)
	assert.Equal(t, string(service.ExtractionOK), turn.Status)
	require.Len(t, turn.Cards, 1)
	assert.Equal(t, "#1", turn.Cards[0].Rank)
	assert.Equal(t, "2024 Civic (Honda)", turn.Cards[0].Title)
	assert.Len(t, turn.Messages, 3)

	w = doRequest(router, http.MethodGet, "/api/v1/chat/sessions/"+session.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[model.ChatSessionResponse](t, w).Messages, 3)

	w = doRequest(router, http.MethodGet, "/api/v1/chat/sessions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatStreamEndpoint(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: "What is your budget?"})

	w := doRequest(router, http.MethodPost, "/api/v1/chat/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	session := decode[model.ChatSessionResponse](t, w)

	w = doRequest(router, http.MethodPost, "/api/v1/chat/sessions/"+session.SessionID+"/messages/stream",
		model.ChatMessageRequest{Text: "something sporty"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))

	body := w.Body.String()
	for _, event := range []string{"event: start", "event: chunk", "event: turn", "event: done"} {
		assert.Contains(t, body, event)
	}
	assert.Contains(t, body, `"reply":"What is your budget?"`)

	w = doRequest(router, http.MethodPost, "/api/v1/chat/sessions/missing/messages/stream",
		model.ChatMessageRequest{Text: "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatStreamEndpoint_HoldsRecommendationJSON(t *testing.T) {
	router := newTestRouter(t, stubGenerator{reply: `Great picks: {"recommendations":[{"rank":1,"model":"Civic","manufacturer":"Honda","year":2024}]}`})

	w := doRequest(router, http.MethodPost, "/api/v1/chat/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	session := decode[model.ChatSessionResponse](t, w)

	w = doRequest(router, http.MethodPost, "/api/v1/chat/sessions/"+session.SessionID+"/messages/stream",
		model.ChatMessageRequest{Text: "reliable compact"})
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `"content":"Great picks: "`)
	assert.NotContains(t, body, `\"recommendations\"`)
	assert.Contains(t, body, `"reply":"`+service.Acknowledgment+`"`)

	w = doRequest(router, http.MethodGet, "/api/v1/chat/sessions/"+session.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	msgs := decode[model.ChatSessionResponse](t, w).Messages
	assert.Equal(t, service.Acknowledgment, msgs[len(msgs)-1].Content)
}

func TestProseFilter(t *testing.T) {
	var f proseFilter
	assert.Equal(t, "Here you go", f.Next("Here you go"))
	assert.Equal(t, ": ", f.Next(`: {"recommendations"`))
	assert.Equal(t, "", f.Next(`: []}`))
	assert.Equal(t, "", f.Next("trailing prose"))
}

func TestRankingsEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doRequest(router, http.MethodGet, "/api/v1/rankings/years", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"years":[2024,2023]}`, w.Body.String())

	w = doRequest(router, http.MethodGet, "/api/v1/rankings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Year       int                     `json:"year"`
		Categories []model.RankingCategory `json:"categories"`
	}](t, w)
	assert.Equal(t, 2024, resp.Year)
	require.Len(t, resp.Categories, 1)
	assert.Equal(t, "🚙", resp.Categories[0].Icon)

	w = doRequest(router, http.MethodGet, "/api/v1/rankings?year=2023", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Best Sedan")
}
