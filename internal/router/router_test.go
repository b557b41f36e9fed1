package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-wallet-accounts/config"
	"github.com/oksasatya/go-wallet-accounts/internal/container"
	"github.com/oksasatya/go-wallet-accounts/internal/infrastructure/jsonfile"
	"github.com/oksasatya/go-wallet-accounts/internal/interface/middleware"
)

func newTestRouter(t *testing.T, debug bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store, err := jsonfile.NewAccountStore(filepath.Join(t.TempDir(), "Accounts.json"), logger)
	require.NoError(t, err)

	container.SetConfig(&config.Config{AppName: "Wallet", RateLimitPerMinute: 60, DebugMetricsEnabled: debug})
	container.SetLogger(logger)
	container.SetAccountRepo(store)
	container.SetRedis(nil)
	container.SetES(nil)
	container.SetRabbitPub(nil)

	engine := gin.New()
	reg := NewRegistry(engine)
	reg.Use(middleware.RealIP())
	InitModules(reg)
	reg.RegisterAll()
	return engine
}

func TestRouter_AccountRoutes(t *testing.T) {
	r := newTestRouter(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", strings.NewReader(`{"username":"alice","email":"a@x.com","password":"p"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/accounts/alice", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/accounts", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "Method not allowed")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_BareOptionsIsOK(t *testing.T) {
	r := newTestRouter(t, false)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/accounts", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestRouter_DebugVars(t *testing.T) {
	r := newTestRouter(t, true)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "accounts_created")
}
