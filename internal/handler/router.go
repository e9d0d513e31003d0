package handler

import (
	"net/http"

	"github.com/CageChen/folderchat/internal/metrics"
	"github.com/CageChen/folderchat/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter wires the API, compatibility and operational routes. ws may be nil
// when change notifications are disabled.
func NewRouter(d *Dispatcher, ws *WSHandler, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(AccessLog(logger))
	r.Use(corsMiddleware())

	files := NewFileHandler(d)
	mcp := NewMCPHandler(d)

	api := r.Group("/api")
	{
		api.GET("/list_files", files.ListFiles)
		api.GET("/read_file", files.ReadFile)
		api.POST("/call", files.Call)
		if ws != nil {
			api.GET("/ws", ws.HandleWS)
		}
	}

	// MCP tools over streamable HTTP
	for _, path := range []string{"/", "/mcp"} {
		r.POST(path, mcp.Handle)
		r.GET(path, mcp.MethodNotAllowed)
	}

	// Plain-text routes for curl and older clients
	r.GET("/list_files", files.ListFilesText)
	r.GET("/read_file", files.ReadFileText)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "root": d.RootName()})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, protocol.ErrorResponse{
			Error: protocol.ErrorDetail{Kind: "not_found", Message: "no such route"},
		})
	})

	return r
}
