package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response bodies are flat: success payloads are returned as-is and
// failures carry a single "error" field, matching the device-facing
// contract consumed by provisioning firmware.

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func OK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func Error(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
