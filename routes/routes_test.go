package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/karthikosa11/smartcal-nutrition-tracker/config"
	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
	"github.com/karthikosa11/smartcal-nutrition-tracker/services"
	"github.com/karthikosa11/smartcal-nutrition-tracker/utils"
)

type testAPI struct {
	t   *testing.T
	db  *gorm.DB
	r   *gin.Engine
	hub *services.RealtimeHub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.OpenDB(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	hub := services.NewRealtimeHub()
	meals := services.NewMealService(db, nil, hub)
	r := SetupRouter(Deps{
		Auth:           services.NewAuthService(db, utils.NewTokenIssuer("test-secret", time.Hour), nil),
		Meals:          meals,
		Stats:          services.NewStatsService(db, hub),
		Estimator:      services.NewEstimationService(nil, nil, nil),
		Insights:       services.NewInsightsService(meals, nil),
		Hub:            hub,
		AllowedOrigins: []string{"http://localhost:5173"},
	})
	return &testAPI{t: t, db: db, r: r, hub: hub}
}

func (a *testAPI) call(method, path, token string, body any) (int, map[string]any) {
	a.t.Helper()
	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func (a *testAPI) signup(name string) string {
	a.t.Helper()
	code, body := a.call(http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": name, "email": name + "@example.com", "password": "secret123",
	})
	require.Equal(a.t, http.StatusCreated, code, body)
	return body["token"].(string)
}

func today() string { return utils.FormatDate(time.Now()) }

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	code, body := api.call(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("alice")

	code, body := api.call(http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Username or email already exists", body["error"])

	code, body = api.call(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid credentials", body["error"])

	code, body = api.call(http.MethodPost, "/api/auth/login", "", gin.H{"email": "alice@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "passwordHash")

	code, body = api.call(http.MethodGet, "/api/auth/verify", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", body["user"].(map[string]any)["username"])

	code, body = api.call(http.MethodPut, "/api/auth/profile", token, gin.H{"dailyCalorieTarget": 2500})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2500.0, body["user"].(map[string]any)["dailyCalorieTarget"])

	code, _ = api.call(http.MethodPut, "/api/auth/profile", token, gin.H{"dailyCalorieTarget": 200})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.call(http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)
	code, body = api.call(http.MethodGet, "/api/meals", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired token", body["error"])
}

func TestMealsRequireToken(t *testing.T) {
	api := newTestAPI(t)
	code, body := api.call(http.MethodGet, "/api/meals", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Access token required", body["error"])
}

func TestBindingRulesReportMessages(t *testing.T) {
	api := newTestAPI(t)

	code, body := api.call(http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": "alice", "email": "not-an-email", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid email address", body["error"])

	code, body = api.call(http.MethodPost, "/api/auth/signup", "", gin.H{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Username, email, and password are required", body["error"])

	token := api.signup("bob")
	meal := func(extra gin.H) gin.H {
		m := gin.H{"date": today(), "mealType": "Lunch", "foodItems": []gin.H{{"name": "Rice", "calories": 200}}}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	code, body = api.call(http.MethodPost, "/api/meals", token, meal(gin.H{"totalCalories": 1e19}))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Total calories must be a non-negative number no larger than 2147483647", body["error"])

	code, body = api.call(http.MethodPost, "/api/meals", token, meal(gin.H{"foodItems": []gin.H{{"name": "Rice", "calories": 1e308}, {"name": "Beans", "calories": 1e308}}}))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Nutrition values must be between 0 and 100000", body["error"])

	code, body = api.call(http.MethodPost, "/api/meals", token, meal(gin.H{"mealType": "Brunch"}))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Meal type must be one of Breakfast, Lunch, Dinner, Snack", body["error"])

	code, body = api.call(http.MethodPost, "/api/meals", token, meal(gin.H{"foodItems": []gin.H{}}))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "At least one food item is required", body["error"])

	code, body = api.call(http.MethodPost, "/api/meals", token, meal(nil))
	require.Equal(t, http.StatusCreated, code, body)
	id := body["log"].(map[string]any)["id"].(string)

	code, body = api.call(http.MethodPut, "/api/meals/"+id, token, gin.H{"totalCalories": 2e19})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Total calories must be a non-negative number no larger than 2147483647", body["error"])
}

func TestMealLifecycle(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("alice")

	code, body := api.call(http.MethodPost, "/api/meals", token, gin.H{
		"date":     today(),
		"mealType": "Breakfast",
		"foodItems": []gin.H{
			{"name": "2 Eggs", "calories": 140, "protein": 12, "carbs": 1.2, "fat": 10},
			{"name": "Toast", "calories": 80.4, "protein": 3, "carbs": 15, "fat": 1},
		},
	})
	require.Equal(t, http.StatusCreated, code, body)
	log := body["log"].(map[string]any)
	id := log["id"].(string)
	assert.Equal(t, 220.0, log["totalCalories"])
	assert.Len(t, log["foodItems"], 2)

	code, body = api.call(http.MethodPost, "/api/meals", token, gin.H{
		"date": today(), "mealType": "Brunch", "foodItems": []gin.H{{"name": "x", "calories": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["error"])

	code, body = api.call(http.MethodGet, "/api/meals", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["logs"], 1)

	code, body = api.call(http.MethodGet, "/api/meals/by-date?startDate="+today()+"&endDate="+today(), token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["logs"], 1)

	code, body = api.call(http.MethodPut, "/api/meals/"+id, token, gin.H{"notes": "with butter", "totalCalories": 300})
	require.Equal(t, http.StatusOK, code)
	log = body["log"].(map[string]any)
	assert.Equal(t, "with butter", log["notes"])
	assert.Equal(t, 300.0, log["totalCalories"])
	assert.Equal(t, "Breakfast", log["mealType"])

	// another user cannot see it
	bob := api.signup("bob")
	code, body = api.call(http.MethodGet, "/api/meals/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Meal log not found", body["error"])
	code, _ = api.call(http.MethodDelete, "/api/meals/"+id, bob, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = api.call(http.MethodGet, "/api/meals/stats/weekly", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, body["stats"])

	code, body = api.call(http.MethodDelete, "/api/meals/"+id, token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Meal log deleted successfully", body["message"])

	code, _ = api.call(http.MethodGet, "/api/meals/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestStatsFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("alice")

	for _, cal := range []int{500, 300} {
		code, _ := api.call(http.MethodPost, "/api/meals", token, gin.H{
			"date": today(), "mealType": "Lunch",
			"foodItems": []gin.H{{"name": "Rice", "calories": cal, "protein": 5, "carbs": 40, "fat": 2}},
		})
		require.Equal(t, http.StatusCreated, code)
	}

	code, body := api.call(http.MethodGet, "/api/stats/daily", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["stats"], "rollups are built by the ETL")

	code, body = api.call(http.MethodPost, "/api/stats/update", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Stats updated successfully", body["message"])

	code, body = api.call(http.MethodGet, "/api/stats/daily?startDate="+today(), token, nil)
	require.Equal(t, http.StatusOK, code)
	rows := body["stats"].([]any)
	require.Len(t, rows, 1)
	day := rows[0].(map[string]any)
	assert.Equal(t, today(), day["date"])
	assert.Equal(t, 800.0, day["total_calories"])
	assert.Equal(t, 2.0, day["meal_count"])

	code, body = api.call(http.MethodGet, "/api/stats/weekly", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["stats"], 1)

	code, body = api.call(http.MethodGet, "/api/stats/overview", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["days"], 7)

	code, body = api.call(http.MethodGet, "/api/stats/daily?startDate=yesterday", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid date format, expected YYYY-MM-DD", body["error"])
}

func TestAdminRebuild(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("alice")

	code, body := api.call(http.MethodPost, "/api/admin/stats/rebuild", token, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Insufficient permissions", body["error"])

	require.NoError(t, api.db.Model(&models.User{}).Where("username = ?", "alice").
		Update("role", models.RoleAdmin).Error)
	_, body = api.call(http.MethodPost, "/api/auth/login", "", gin.H{"username": "alice", "password": "secret123"})
	admin := body["token"].(string)

	code, _ = api.call(http.MethodPost, "/api/meals", admin, gin.H{
		"date": today(), "mealType": "Dinner", "foodItems": []gin.H{{"name": "Soup", "calories": 200}},
	})
	require.Equal(t, http.StatusCreated, code)

	code, body = api.call(http.MethodPost, "/api/admin/stats/rebuild", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["daily_rows"])
	assert.Equal(t, 1.0, body["weekly_rows"])
}

func TestAIFallbacks(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("alice")

	code, body := api.call(http.MethodPost, "/api/ai/parse-text", token, gin.H{"text": "I had 2 eggs and 100g rice"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, services.SourceParser, body["source"])
	assert.Len(t, body["items"], 2)

	code, _ = api.call(http.MethodPost, "/api/ai/parse-text", token, gin.H{"text": " "})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = api.call(http.MethodGet, "/api/ai/insights", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, services.SourceFallback, body["source"])
	assert.NotEmpty(t, body["tip"])
}

func TestNutritionEndpoints(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("alice")

	code, body := api.call(http.MethodPost, "/api/nutrition/seed", token, gin.H{
		"items": []gin.H{{"name": "Chicken 200g", "calories": 330, "protein": 62, "fat": 7.2}},
	})
	require.Equal(t, http.StatusOK, code)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)

	code, body = api.call(http.MethodPost, "/api/nutrition/recalculate", token, gin.H{"item": item, "quantity": "100"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 165.0, body["item"].(map[string]any)["calories"])

	huge := "1" + strings.Repeat("0", 308)
	code, body = api.call(http.MethodPost, "/api/nutrition/recalculate", token, gin.H{"item": item, "quantity": huge})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, body["item"], "overflowing quantity must still produce a body")
	assert.Equal(t, 330.0, body["item"].(map[string]any)["calories"])
	assert.Equal(t, 200.0, body["item"].(map[string]any)["quantity"])

	code, _ = api.call(http.MethodPost, "/api/nutrition/recalculate", token, gin.H{"item": item, "field": "sodium", "value": 1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = api.call(http.MethodPost, "/api/nutrition/seed", token, gin.H{"items": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/meals", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	api.r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebsocketReceivesOwnEvents(t *testing.T) {
	api := newTestAPI(t)
	_, body := api.call(http.MethodPost, "/api/auth/signup", "", gin.H{
		"username": "alice", "email": "alice@example.com", "password": "secret123",
	})
	token := body["token"].(string)
	userID := body["user"].(map[string]any)["id"].(string)

	srv := httptest.NewServer(api.r)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?access_token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return api.hub.Connected(userID) == 1 }, 2*time.Second, 10*time.Millisecond)

	code, _ := api.call(http.MethodPost, "/api/meals", token, gin.H{
		"date": today(), "mealType": "Snack", "foodItems": []gin.H{{"name": "Apple", "calories": 95}},
	})
	require.Equal(t, http.StatusCreated, code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev struct {
		Kind string         `json:"kind"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, services.EventMealCreated, ev.Kind)
	assert.Equal(t, 95.0, ev.Data["totalCalories"])

	conn.Close()
	assert.Eventually(t, func() bool { return api.hub.Connected(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebsocketRejectsUnknownOrigin(t *testing.T) {
	api := newTestAPI(t)
	token := api.signup("alice")

	srv := httptest.NewServer(api.r)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?access_token=" + token

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"http://localhost:5173"}})
	require.NoError(t, err)
	conn.Close()
}
