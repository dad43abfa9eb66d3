package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codehive/coderoom_backend/auth"
	"github.com/codehive/coderoom_backend/models"
	"github.com/codehive/coderoom_backend/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet("userID")})
	})
	router.GET("/rooms/:id", handlers...)
	return router
}

func Test_JWTAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	router := protectedRouter(JWTAuth())

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/rooms/1", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bad format", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/rooms/1", nil)
		req.Header.Set("Authorization", "token abc")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/rooms/1", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.GenerateToken(models.User{ID: 7, Email: "a@b.c"})
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/rooms/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":7`)
	})
}

func Test_RoomRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	request := func(router *gin.Engine, userID uint) *httptest.ResponseRecorder {
		token, err := auth.GenerateToken(models.User{ID: userID})
		if err != nil {
			t.Fatal(err)
		}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/rooms/10", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("not a member", func(t *testing.T) {
		store := &storage.MockStorage{}
		store.On("FindMembership", uint(10), uint(7)).Return(models.Membership{}, storage.ErrNotFound)
		router := protectedRouter(JWTAuth(), RoomRole(store, models.RoleOwner))

		w := request(router, 7)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("insufficient role", func(t *testing.T) {
		store := &storage.MockStorage{}
		store.On("FindMembership", uint(10), uint(7)).Return(models.Membership{RoomID: 10, UserID: 7, Role: models.RoleViewer}, nil)
		router := protectedRouter(JWTAuth(), RoomRole(store, models.RoleOwner))

		w := request(router, 7)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("allowed role", func(t *testing.T) {
		store := &storage.MockStorage{}
		store.On("FindMembership", uint(10), uint(7)).Return(models.Membership{RoomID: 10, UserID: 7, Role: models.RoleOwner}, nil)
		router := protectedRouter(JWTAuth(), RoomRole(store, models.RoleOwner))

		w := request(router, 7)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
