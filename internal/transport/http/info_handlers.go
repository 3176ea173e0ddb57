package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ServerVersion is reported by the /version route.
const ServerVersion = "1.0.0"

// registerInfoRoutes mounts the plain informational routes. The canvas itself
// only speaks over the websocket.
func registerInfoRoutes(router *gin.Engine) {
	plain := map[string]string{
		"/":         "Welcome to the Collaborative Pixel Art Canvas Backend!",
		"/health":   "Server is healthy!",
		"/status":   "Server is running!",
		"/info":     "This is the Collaborative Pixel Art Canvas Backend!",
		"/ping":     "Pong!",
		"/users":    "List of users: (placeholder)",
		"/canvas":   "Canvas state: (placeholder)",
		"/stats":    "Server stats: (placeholder)",
		"/help":     "Help: (placeholder)",
		"/about":    "About: (placeholder)",
		"/contact":  "Contact: (placeholder)",
		"/faq":      "FAQ: (placeholder)",
		"/terms":    "Terms: (placeholder)",
		"/privacy":  "Privacy: (placeholder)",
		"/api":      "API: (placeholder)",
		"/docs":     "Docs: (placeholder)",
		"/support":  "Support: (placeholder)",
		"/feedback": "Feedback: (placeholder)",
		"/report":   "Report: (placeholder)",
		"/admin":    "Admin: (placeholder)",
		"/settings": "Settings: (placeholder)",
		"/profile":  "Profile: (placeholder)",
	}
	for path, body := range plain {
		router.GET(path, func(body string) gin.HandlerFunc {
			return func(c *gin.Context) {
				c.String(http.StatusOK, body)
			}
		}(body))
	}

	router.GET("/version", func(c *gin.Context) {
		c.String(http.StatusOK, "Version "+ServerVersion)
	})
	router.GET("/time", func(c *gin.Context) {
		c.String(http.StatusOK, time.Now().UTC().Format(time.RFC3339))
	})
}
