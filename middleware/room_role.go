package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codehive/coderoom_backend/storage"
	"github.com/gin-gonic/gin"
)

// RoomRole ensures the authenticated user holds one of the allowed
// roles in the room identified by the :id route parameter. Must run
// after JWTAuth.
func RoomRole(store storage.Storage, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.MustGet("userID").(uint)

		roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
			c.Abort()
			return
		}

		membership, err := store.FindMembership(uint(roomID), userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusForbidden, gin.H{"error": "You are not a member of this room"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking permissions"})
			}
			c.Abort()
			return
		}

		for _, role := range allowedRoles {
			if membership.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		c.Abort()
	}
}
