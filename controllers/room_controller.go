package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codehive/coderoom_backend/rooms"
	"github.com/codehive/coderoom_backend/storage"
	"github.com/gin-gonic/gin"
)

type RoomController struct {
	store storage.Storage
	flow  *rooms.Service
}

func NewRoomController(store storage.Storage, flow *rooms.Service) *RoomController {
	return &RoomController{store: store, flow: flow}
}

type CreateRoomInput struct {
	Name string `json:"name" binding:"required"`
}

type ApproveInput struct {
	Role string `json:"role"`
}

type PromoteInput struct {
	Role string `json:"role" binding:"required"`
}

// CreateRoom creates a room and the creator's OWNER membership
func (ctrl *RoomController) CreateRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input CreateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := ctrl.store.CreateRoom(input.Name, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Room created successfully",
		"room":    room,
	})
}

// GetRooms returns all rooms the authenticated user is a member of
func (ctrl *RoomController) GetRooms(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	roomList, err := ctrl.store.ListRoomsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": roomList})
}

// GetRoom returns details of a single room
func (ctrl *RoomController) GetRoom(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}

	room, err := ctrl.store.FindRoom(roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": room})
}

// GetMembers returns all members of a room
func (ctrl *RoomController) GetMembers(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}

	members, err := ctrl.store.ListMembers(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members})
}

// JoinRoomRequest creates a pending join request for the caller
func (ctrl *RoomController) JoinRoomRequest(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}

	request, err := ctrl.flow.Request(roomID, userID)
	if err != nil {
		switch {
		case errors.Is(err, rooms.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		case errors.Is(err, rooms.ErrAlreadyMember):
			c.JSON(http.StatusBadRequest, gin.H{"error": "You are already a member of this room"})
		case errors.Is(err, rooms.ErrRequestPending):
			c.JSON(http.StatusBadRequest, gin.H{"error": "A join request is already pending"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create join request"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Join request sent successfully",
		"request": request,
	})
}

// GetRoomRequests returns the pending join requests for a room
func (ctrl *RoomController) GetRoomRequests(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}

	requests, err := ctrl.store.ListPendingJoinRequests(roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch join requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ApproveJoinRequest accepts a pending join request and creates the
// membership
func (ctrl *RoomController) ApproveJoinRequest(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	requestID, ok := parseID(c, "requestId")
	if !ok {
		return
	}

	// Role is optional; an empty body defaults to VIEWER
	var input ApproveInput
	_ = c.ShouldBindJSON(&input)

	if err := ctrl.flow.Approve(requestID, userID, input.Role); err != nil {
		respondFlowError(c, err, "Failed to approve join request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Join request approved successfully"})
}

// RejectJoinRequest rejects a pending join request
func (ctrl *RoomController) RejectJoinRequest(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	requestID, ok := parseID(c, "requestId")
	if !ok {
		return
	}

	if err := ctrl.flow.Reject(requestID, userID); err != nil {
		respondFlowError(c, err, "Failed to reject join request")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Join request rejected"})
}

// PromoteMember raises a member's role to EDITOR or OWNER
func (ctrl *RoomController) PromoteMember(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	memberID, ok := parseID(c, "memberId")
	if !ok {
		return
	}

	var input PromoteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ctrl.flow.Promote(memberID, userID, input.Role); err != nil {
		respondFlowError(c, err, "Failed to promote member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member promoted successfully"})
}

// RemoveMember deletes a membership and evicts the user's live
// connections from the room
func (ctrl *RoomController) RemoveMember(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	memberID, ok := parseID(c, "memberId")
	if !ok {
		return
	}

	if err := ctrl.flow.Remove(memberID, userID); err != nil {
		respondFlowError(c, err, "Failed to remove member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}

// GetCodeSnapshot returns the latest shared code for a room
func (ctrl *RoomController) GetCodeSnapshot(c *gin.Context) {
	roomID, ok := parseID(c, "id")
	if !ok {
		return
	}

	snapshot, err := ctrl.store.FindCodeSnapshot(roomID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// No edits yet, return an empty snapshot
			c.JSON(http.StatusOK, gin.H{"code": ""})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch code snapshot"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": snapshot.Code, "updated_at": snapshot.UpdatedAt})
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + param})
		return 0, false
	}
	return uint(id), true
}

func respondFlowError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, rooms.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, rooms.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	case errors.Is(err, rooms.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
