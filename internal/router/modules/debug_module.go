package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-wallet-accounts/internal/container"
	"github.com/oksasatya/go-wallet-accounts/internal/interface/middleware"
)

// DebugModule exposes expvar counters on the engine root at /debug/vars.
type DebugModule struct {
	Engine *gin.Engine
}

func NewDebugModule(engine *gin.Engine) *DebugModule { return &DebugModule{Engine: engine} }

func (m *DebugModule) Register(_ *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	m.Engine.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
