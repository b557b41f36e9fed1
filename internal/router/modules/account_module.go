package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-wallet-accounts/internal/container"
	handlers "github.com/oksasatya/go-wallet-accounts/internal/interface/http"
	"github.com/oksasatya/go-wallet-accounts/internal/interface/middleware"
)

// AccountModule wires the account endpoints:
// POST and OPTIONS /api/accounts, GET /api/accounts/search, GET /api/accounts/:username
// and GET /api/health.
type AccountModule struct {
	Handler      *handlers.AccountHandler
	WritesPerMin int
}

func NewAccountModule(h *handlers.AccountHandler, writesPerMin int) *AccountModule {
	return &AccountModule{Handler: h, WritesPerMin: writesPerMin}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	writeLimiter := middleware.RateLimit(container.GetRedis(), m.WritesPerMin, time.Minute, middleware.KeyByIPAndPath(), nil)
	readLimiter := middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP(), nil)

	rg.POST("/accounts", writeLimiter, m.Handler.Handle)
	rg.OPTIONS("/accounts", m.Handler.Preflight)
	rg.GET("/accounts/search", readLimiter, m.Handler.Search)
	rg.GET("/accounts/:username", readLimiter, m.Handler.Get)
	rg.GET("/health", m.Handler.Health)
}
