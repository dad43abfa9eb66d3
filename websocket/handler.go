package websocket

import (
	"net/http"
	"strings"

	"github.com/codehive/coderoom_backend/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

// HandleConnection returns a gin handler that authenticates and
// upgrades websocket connections. Rejected connections fail before any
// event handling is attached.
func HandleConnection(session *Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		identity, err := auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			session.log.WithError(err).Warn("error upgrading connection")
			return
		}

		client := &Client{
			id:       uuid.NewString(),
			session:  session,
			conn:     conn,
			send:     make(chan []byte, 256),
			identity: identity,
		}

		session.log.WithFields(map[string]interface{}{
			"connection_id": client.id,
			"user_id":       identity.UserID,
		}).Info("client connected")

		go client.readPump()
		go client.writePump()
	}
}
