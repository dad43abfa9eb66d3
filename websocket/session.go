package websocket

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codehive/coderoom_backend/storage"
	"github.com/sirupsen/logrus"
)

// Session is the room session core. It orchestrates join/leave,
// message broadcast, code-state mutation and ephemeral events within a
// room, checking membership before mutating shared state. The registry
// and storage are injected at construction.
type Session struct {
	registry *Registry
	store    storage.Storage
	log      *logrus.Logger
}

func NewSession(registry *Registry, store storage.Storage, log *logrus.Logger) *Session {
	return &Session{
		registry: registry,
		store:    store,
		log:      log,
	}
}

// Registry exposes the session registry for membership eviction wiring.
func (s *Session) Registry() *Registry {
	return s.registry
}

// HandleEvent processes a single incoming websocket frame from a client
func (s *Session) HandleEvent(c *Client, raw []byte) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		s.log.WithError(err).WithField("connection_id", c.id).Warn("error unmarshaling event")
		return
	}

	switch event.Type {
	case "join_room":
		var payload JoinRoomPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			s.sendError(c, "Invalid join_room payload.")
			return
		}
		s.handleJoinRoom(c, payload)
	case "send_message":
		var payload SendMessagePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			s.sendError(c, "Invalid send_message payload.")
			return
		}
		s.handleSendMessage(c, payload)
	case "code_update":
		var payload CodeUpdatePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			s.sendError(c, "Invalid code_update payload.")
			return
		}
		s.handleCodeUpdate(c, payload)
	case "cursor_movement":
		var payload CursorMovementPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return
		}
		s.handleCursorMovement(c, payload)
	case "language_change":
		var payload LanguageChangePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return
		}
		s.registry.Broadcast(payload.RoomID, "language_changed", map[string]interface{}{
			"language": payload.Language,
		}, nil)
	case "output_change":
		var payload OutputChangePayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return
		}
		s.registry.Broadcast(payload.RoomID, "output_changed", map[string]interface{}{
			"output": payload.Output,
			"error":  payload.Error,
		}, nil)
	case "leave_room":
		var payload LeaveRoomPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return
		}
		s.handleLeaveRoom(c, payload)
	default:
		s.log.WithField("type", event.Type).Debug("unknown event type")
	}
}

// handleJoinRoom registers the connection for a room after confirming
// the authenticated user holds a membership. Non-members only receive
// a scoped error; the registry is left untouched.
func (s *Session) handleJoinRoom(c *Client, payload JoinRoomPayload) {
	logCtx := s.log.WithFields(logrus.Fields{
		"user_id": c.identity.UserID,
		"room_id": payload.RoomID,
	})

	membership, err := s.store.FindMembership(payload.RoomID, c.identity.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logCtx.Warn("join rejected: not a member")
			s.sendError(c, "You are not a member of this room.")
			return
		}
		logCtx.WithError(err).Error("error joining room")
		s.sendError(c, "Failed to join the room.")
		return
	}

	s.registry.Join(c, payload.RoomID)
	logCtx.WithField("role", membership.Role).Info("user joined room")

	// The joining connection receives the broadcast too
	s.registry.Broadcast(payload.RoomID, "user_joined", map[string]interface{}{
		"userId":     c.identity.UserID,
		"roomId":     payload.RoomID,
		"membership": membership,
		"message":    fmt.Sprintf("%s has joined the room.", membership.User.Name),
	}, nil)
}

// handleSendMessage persists a chat message and fans it out to the
// whole room, sender included. Persistence must succeed before the
// broadcast goes out.
func (s *Session) handleSendMessage(c *Client, payload SendMessagePayload) {
	logCtx := s.log.WithFields(logrus.Fields{
		"user_id": payload.UserID,
		"room_id": payload.RoomID,
	})

	// The client-supplied user id is trusted here, matching the
	// existing wire contract; it is not cross-checked against the
	// connection's authenticated identity.
	if _, err := s.store.FindUser(payload.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.sendError(c, "User does not exist.")
			return
		}
		logCtx.WithError(err).Error("error sending message")
		s.sendError(c, "Failed to send the message.")
		return
	}

	if _, err := s.store.FindRoom(payload.RoomID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.sendError(c, "Room does not exist.")
			return
		}
		logCtx.WithError(err).Error("error sending message")
		s.sendError(c, "Failed to send the message.")
		return
	}

	// Membership is re-checked on every message so a connection whose
	// membership was removed after joining cannot keep posting.
	if _, err := s.store.FindMembership(payload.RoomID, payload.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.sendError(c, "You are not a member of this room.")
			return
		}
		logCtx.WithError(err).Error("error sending message")
		s.sendError(c, "Failed to send the message.")
		return
	}

	message, err := s.store.CreateMessage(payload.RoomID, payload.UserID, payload.Content)
	if err != nil {
		logCtx.WithError(err).Error("error saving message")
		s.sendError(c, "Failed to send the message.")
		return
	}

	s.registry.Broadcast(payload.RoomID, "receive_message", map[string]interface{}{
		"id":         message.ID,
		"content":    message.Content,
		"created_at": message.CreatedAt,
		"user": map[string]interface{}{
			"id":   message.User.ID,
			"name": message.User.Name,
		},
	}, nil)
}

// handleCodeUpdate upserts the room's code snapshot and broadcasts the
// new code to everyone except the sender, preventing local-echo loops
// in the editor. Concurrent updates resolve by arrival order; the last
// write wins.
func (s *Session) handleCodeUpdate(c *Client, payload CodeUpdatePayload) {
	if err := s.store.UpsertCodeSnapshot(payload.RoomID, payload.Code); err != nil {
		s.log.WithError(err).WithField("room_id", payload.RoomID).Error("error updating code snapshot")
		s.sendError(c, "Failed to update code.")
		return
	}

	s.registry.Broadcast(payload.RoomID, "code_updated", map[string]interface{}{
		"code": payload.Code,
	}, c)
}

// handleCursorMovement relays an ephemeral cursor position to the
// other connections in the room. Never persisted.
func (s *Session) handleCursorMovement(c *Client, payload CursorMovementPayload) {
	s.registry.Broadcast(payload.RoomID, "cursor_updated", map[string]interface{}{
		"username": payload.Username,
		"position": payload.Position,
	}, c)
}

func (s *Session) handleLeaveRoom(c *Client, payload LeaveRoomPayload) {
	s.registry.Leave(c, payload.RoomID)
	s.log.WithFields(logrus.Fields{
		"user_id": payload.UserID,
		"room_id": payload.RoomID,
	}).Info("user left room")

	s.registry.Broadcast(payload.RoomID, "user_left", map[string]interface{}{
		"userId":  payload.UserID,
		"roomId":  payload.RoomID,
		"message": fmt.Sprintf("User %d has left the room.", payload.UserID),
	}, nil)
}

// handleDisconnect silently deregisters the connection from every room
func (s *Session) handleDisconnect(c *Client) {
	s.registry.LeaveAll(c)
	s.log.WithField("connection_id", c.id).Info("client disconnected")
}

// sendError emits a targeted error event to the originating connection
// only. Other participants are never affected.
func (s *Session) sendError(c *Client, message string) {
	c.queueEvent("error", map[string]string{"message": message})
}
