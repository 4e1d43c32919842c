package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# Bite Sync Daemon

Keeps the local restaurant database in step with the cloud ordering service.

## Routes

- GET /healthz
- GET /readyz
- GET /swagger/index.html
- GET /sync-local/status
- GET /sync-local/activity?limit=20
- POST /sync-local/trigger
- GET /sync-local/logs?type=FULL&status=COMPLETED&limit=50&offset=0
- GET /sync-local/logs/:id

## Environment

- SYNC_ENABLED
- REMOTE_API_URL
- REMOTE_API_KEY
- SYNC_INTERVAL_MINUTES
- SYNC_WEBSOCKET_ENABLED
`)
	})
}
