package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// currentUserID reads the id set by the auth middleware, answering 401
// itself when it is absent.
func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("user_id")
	id, ok := userID.(uint)
	if !exists || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "Unauthorized",
			"error":   "User ID not found in token",
		})
		return 0, false
	}
	return id, true
}
