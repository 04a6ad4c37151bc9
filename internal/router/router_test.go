package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/englishgpt-practice/internal/config"
	"github.com/stemsi/englishgpt-practice/internal/handler"
	"github.com/stemsi/englishgpt-practice/internal/practice"
	"github.com/stemsi/englishgpt-practice/internal/service"
	"github.com/stemsi/englishgpt-practice/internal/validator"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := service.NewPracticeService(practice.NewBuiltinProvider(), nil, zerolog.Nop())
	t.Cleanup(svc.Shutdown)

	cfg := &config.Config{GinMode: gin.TestMode, RateLimitPerMinute: 60}
	return SetupRouter(ctx, &Handlers{
		Practice: handler.NewPracticeHandler(svc, nil, zerolog.Nop()),
		Result:   handler.NewResultHandler(nil, nil, zerolog.Nop()),
		WS:       handler.NewWSHandler(svc, zerolog.Nop(), nil),
	}, cfg, zerolog.Nop())
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRoutesRegistered(t *testing.T) {
	r := newTestRouter(t)

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	for _, want := range []string{
		"GET /api/v1/practice/categories",
		"POST /api/v1/practice/sessions",
		"GET /api/v1/practice/sessions/:session_id",
		"DELETE /api/v1/practice/sessions/:session_id",
		"POST /api/v1/practice/sessions/:session_id/start",
		"POST /api/v1/practice/sessions/:session_id/pause",
		"POST /api/v1/practice/sessions/:session_id/resume",
		"POST /api/v1/practice/sessions/:session_id/submit",
		"POST /api/v1/practice/sessions/:session_id/reset",
		"POST /api/v1/practice/sessions/:session_id/review",
		"POST /api/v1/practice/sessions/:session_id/next-category",
		"PUT /api/v1/practice/sessions/:session_id/category",
		"PUT /api/v1/practice/sessions/:session_id/answers",
		"GET /api/v1/practice/sessions/:session_id/exercise",
		"GET /api/v1/practice/sessions/:session_id/result",
		"GET /api/v1/practice/results",
		"GET /api/v1/practice/results/stream",
		"GET /api/v1/practice/stats",
		"GET /ws/v1/practice/sessions/:session_id/stream",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestSessionRoutesAreNotCached(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/practice/sessions", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/practice/sessions/not-a-uuid", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
