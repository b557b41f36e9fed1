package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-wallet-accounts/config"
)

// CORSConfig allows any origin unless CORS_ALLOWED_ORIGINS narrows it.
func CORSConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		c.AllowOrigins = origins
	} else {
		c.AllowAllOrigins = true
	}
	return c
}

// CORS answers cross-origin preflights. OPTIONS requests without an Origin
// fall through to the routes.
func CORS(cfg *config.Config) gin.HandlerFunc {
	return cors.New(CORSConfig(cfg))
}
