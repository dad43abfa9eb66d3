package controllers

import (
	"net/http"

	"github.com/codehive/coderoom_backend/storage"
	"github.com/gin-gonic/gin"
)

type MessageController struct {
	store storage.Storage
}

func NewMessageController(store storage.Storage) *MessageController {
	return &MessageController{store: store}
}

type CreateMessageInput struct {
	Content string `json:"content" binding:"required"`
}

// GetMessages returns all messages in a room
func (ctrl *MessageController) GetMessages(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}

	messages, err := ctrl.store.ListMessages(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// CreateMessage persists a message sent over HTTP rather than the
// websocket
func (ctrl *MessageController) CreateMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input CreateMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := ctrl.store.CreateMessage(roomID, userID, input.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}
