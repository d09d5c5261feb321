package network

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MRamiBalles/SnakeWeb/server/internal/platform/logger"
)

//go:embed web/index.html
var indexHTML []byte

// NewRouter builds the HTTP handler: request logging, panic recovery, the
// browser page and every API route.
func NewRouter(api *API, log *logger.Logger, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.LoggerWithWriter(log.Writer(), "/healthz"))
	r.Use(gin.RecoveryWithWriter(log.Writer()))

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})
	api.RegisterRoutes(r)
	return r
}
