package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/config"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/core"
	"github.com/mehmetfatiherdem/collaborative-pixel-art-canvas/internal/identity"
)

// NewServer builds the HTTP server: informational routes, token verification,
// and the websocket endpoint.
func NewServer(hub *core.Hub, verifier identity.Verifier, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	registerInfoRoutes(router)
	router.POST("/verify-token", verifyTokenHandler(verifier, logger))
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, verifier, cfg.AllowedOrigins, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
