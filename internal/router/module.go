package router

import "github.com/gin-gonic/gin"

// Module registers its routes on a RouterGroup (usually /api).
type Module interface {
	Register(rg *gin.RouterGroup)
}
