package main

import (
	"os"

	"github.com/codehive/coderoom_backend/controllers"
	"github.com/codehive/coderoom_backend/database"
	"github.com/codehive/coderoom_backend/middleware"
	"github.com/codehive/coderoom_backend/models"
	"github.com/codehive/coderoom_backend/rooms"
	"github.com/codehive/coderoom_backend/storage"
	"github.com/codehive/coderoom_backend/websocket"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment variables")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Initialize database
	database.Connect()
	database.Migrate()

	store := storage.NewGormStorage(database.DB)

	// Real-time core: registry tracks live connections, the session
	// core handles room events, both injected explicitly
	registry := websocket.NewRegistry(log)
	session := websocket.NewSession(registry, store, log)
	flow := rooms.NewService(store, registry, log)

	authController := controllers.NewAuthController(store)
	roomController := controllers.NewRoomController(store, flow)
	messageController := controllers.NewMessageController(store)

	// Set up router
	router := gin.Default()

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Authentication routes
	auth := router.Group("/api")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
	}

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		// Room routes
		api.GET("/rooms", roomController.GetRooms)
		api.POST("/rooms", roomController.CreateRoom)
		api.GET("/rooms/:id", roomController.GetRoom)
		api.POST("/rooms/:id/join", roomController.JoinRoomRequest)

		// Members (room members only)
		api.GET("/rooms/:id/members",
			middleware.RoomRole(store, models.RoleOwner, models.RoleEditor, models.RoleViewer),
			roomController.GetMembers)

		// Join request management (owner only)
		api.GET("/rooms/:id/requests",
			middleware.RoomRole(store, models.RoleOwner),
			roomController.GetRoomRequests)
		api.POST("/rooms/:id/requests/:requestId/approve",
			middleware.RoomRole(store, models.RoleOwner),
			roomController.ApproveJoinRequest)
		api.POST("/rooms/:id/requests/:requestId/reject",
			middleware.RoomRole(store, models.RoleOwner),
			roomController.RejectJoinRequest)

		// Role management (owner re-checked inside the workflow)
		api.POST("/members/:memberId/promote", roomController.PromoteMember)
		api.DELETE("/members/:memberId", roomController.RemoveMember)

		// Messages
		api.GET("/rooms/:id/messages",
			middleware.RoomRole(store, models.RoleOwner, models.RoleEditor, models.RoleViewer),
			messageController.GetMessages)
		api.POST("/rooms/:id/messages",
			middleware.RoomRole(store, models.RoleOwner, models.RoleEditor, models.RoleViewer),
			messageController.CreateMessage)

		// Code snapshot
		api.GET("/rooms/:id/code", roomController.GetCodeSnapshot)
	}

	// WebSocket route
	router.GET("/ws", websocket.HandleConnection(session))

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Infof("Server running on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
