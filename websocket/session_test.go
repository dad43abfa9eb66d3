package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/codehive/coderoom_backend/models"
	"github.com/codehive/coderoom_backend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(store *storage.MockStorage) *Session {
	return NewSession(NewRegistry(testLogger()), store, testLogger())
}

func sessionClient(s *Session, userID uint, name string) *Client {
	c := newTestClient(userID, name)
	c.session = s
	return c
}

func Test_handleJoinRoom_notAMember(t *testing.T) {
	store := &storage.MockStorage{}
	store.On("FindMembership", uint(10), uint(1)).Return(models.Membership{}, storage.ErrNotFound)

	session := newTestSession(store)
	c := sessionClient(session, 1, "conn-1")

	session.HandleEvent(c, []byte(`{"type":"join_room","payload":{"roomId":10}}`))

	event := recvEvent(t, c)
	assert.Equal(t, "error", event.Type, "non-member join must emit a scoped error")
	assert.Equal(t, 0, session.registry.roomSize(10), "registry must not be mutated")
	store.AssertExpectations(t)
}

func Test_handleJoinRoom_member(t *testing.T) {
	store := &storage.MockStorage{}
	membership := models.Membership{
		ID:     1,
		RoomID: 10,
		UserID: 1,
		Role:   models.RoleEditor,
		User:   models.User{ID: 1, Name: "alice"},
	}
	store.On("FindMembership", uint(10), uint(1)).Return(membership, nil)

	session := newTestSession(store)
	c := sessionClient(session, 1, "conn-1")
	other := sessionClient(session, 2, "conn-2")
	session.registry.Join(other, 10)

	session.HandleEvent(c, []byte(`{"type":"join_room","payload":{"roomId":10}}`))

	assert.Equal(t, 2, session.registry.roomSize(10))

	// Both the joiner and the existing member receive the broadcast
	for _, client := range []*Client{c, other} {
		event := recvEvent(t, client)
		assert.Equal(t, "user_joined", event.Type)

		var payload struct {
			UserID     uint              `json:"userId"`
			RoomID     uint              `json:"roomId"`
			Membership models.Membership `json:"membership"`
			Message    string            `json:"message"`
		}
		require.NoError(t, json.Unmarshal(event.Payload.(json.RawMessage), &payload))
		assert.Equal(t, uint(1), payload.UserID)
		assert.Equal(t, uint(10), payload.RoomID)
		assert.Equal(t, models.RoleEditor, payload.Membership.Role)
		assert.Equal(t, "alice has joined the room.", payload.Message)
	}
}

func Test_handleJoinRoom_twiceYieldsOneEntry(t *testing.T) {
	store := &storage.MockStorage{}
	membership := models.Membership{RoomID: 10, UserID: 1, Role: models.RoleViewer, User: models.User{ID: 1, Name: "alice"}}
	store.On("FindMembership", uint(10), uint(1)).Return(membership, nil)

	session := newTestSession(store)
	c := sessionClient(session, 1, "conn-1")

	session.HandleEvent(c, []byte(`{"type":"join_room","payload":{"roomId":10}}`))
	session.HandleEvent(c, []byte(`{"type":"join_room","payload":{"roomId":10}}`))

	assert.Equal(t, 1, session.registry.roomSize(10))
}

func Test_handleSendMessage(t *testing.T) {
	store := &storage.MockStorage{}
	store.On("FindUser", uint(2)).Return(models.User{ID: 2, Name: "bob"}, nil)
	store.On("FindRoom", uint(10)).Return(models.Room{ID: 10, Name: "r1"}, nil)
	store.On("FindMembership", uint(10), uint(2)).Return(models.Membership{RoomID: 10, UserID: 2, Role: models.RoleViewer}, nil)
	store.On("CreateMessage", uint(10), uint(2), "hi").Return(models.Message{
		ID:        7,
		Content:   "hi",
		RoomID:    10,
		UserID:    2,
		User:      models.User{ID: 2, Name: "bob"},
		CreatedAt: time.Now(),
	}, nil)

	session := newTestSession(store)
	sender := sessionClient(session, 2, "conn-1")
	other := sessionClient(session, 1, "conn-2")
	session.registry.Join(sender, 10)
	session.registry.Join(other, 10)

	session.HandleEvent(sender, []byte(`{"type":"send_message","payload":{"roomId":10,"userId":2,"content":"hi"}}`))

	// The whole room receives the message, sender included
	for _, client := range []*Client{sender, other} {
		event := recvEvent(t, client)
		assert.Equal(t, "receive_message", event.Type)

		var payload struct {
			ID      uint   `json:"id"`
			Content string `json:"content"`
			User    struct {
				ID   uint   `json:"id"`
				Name string `json:"name"`
			} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(event.Payload.(json.RawMessage), &payload))
		assert.Equal(t, uint(7), payload.ID)
		assert.Equal(t, "hi", payload.Content)
		assert.Equal(t, "bob", payload.User.Name)
	}
	store.AssertExpectations(t)
}

func Test_handleSendMessage_unknownUser(t *testing.T) {
	store := &storage.MockStorage{}
	store.On("FindUser", uint(99)).Return(models.User{}, storage.ErrNotFound)

	session := newTestSession(store)
	sender := sessionClient(session, 99, "conn-1")
	other := sessionClient(session, 1, "conn-2")
	session.registry.Join(sender, 10)
	session.registry.Join(other, 10)

	session.HandleEvent(sender, []byte(`{"type":"send_message","payload":{"roomId":10,"userId":99,"content":"hi"}}`))

	event := recvEvent(t, sender)
	assert.Equal(t, "error", event.Type, "sender gets a scoped error only")
	assertNoEvent(t, other)
	store.AssertNotCalled(t, "CreateMessage", uint(10), uint(99), "hi")
}

func Test_handleSendMessage_membershipRevoked(t *testing.T) {
	store := &storage.MockStorage{}
	store.On("FindUser", uint(2)).Return(models.User{ID: 2, Name: "bob"}, nil)
	store.On("FindRoom", uint(10)).Return(models.Room{ID: 10}, nil)
	store.On("FindMembership", uint(10), uint(2)).Return(models.Membership{}, storage.ErrNotFound)

	session := newTestSession(store)
	sender := sessionClient(session, 2, "conn-1")
	session.registry.Join(sender, 10)

	session.HandleEvent(sender, []byte(`{"type":"send_message","payload":{"roomId":10,"userId":2,"content":"hi"}}`))

	event := recvEvent(t, sender)
	assert.Equal(t, "error", event.Type, "a stale connection whose membership was removed must be rejected")
	store.AssertNotCalled(t, "CreateMessage", uint(10), uint(2), "hi")
}

func Test_handleCodeUpdate(t *testing.T) {
	store := &storage.MockStorage{}
	store.On("UpsertCodeSnapshot", uint(10), "print(1)").Return(nil)

	session := newTestSession(store)
	sender := sessionClient(session, 2, "conn-1")
	other := sessionClient(session, 1, "conn-2")
	session.registry.Join(sender, 10)
	session.registry.Join(other, 10)

	session.HandleEvent(sender, []byte(`{"type":"code_update","payload":{"roomId":10,"code":"print(1)"}}`))

	event := recvEvent(t, other)
	assert.Equal(t, "code_updated", event.Type)

	var payload struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(event.Payload.(json.RawMessage), &payload))
	assert.Equal(t, "print(1)", payload.Code)

	// The sender never receives its own echo
	assertNoEvent(t, sender)
	store.AssertExpectations(t)
}

func Test_handleCodeUpdate_lastWriteWins(t *testing.T) {
	store := &storage.MockStorage{}
	store.On("UpsertCodeSnapshot", uint(10), "v1").Return(nil)
	store.On("UpsertCodeSnapshot", uint(10), "v2").Return(nil)

	session := newTestSession(store)
	first := sessionClient(session, 1, "conn-1")
	second := sessionClient(session, 2, "conn-2")
	session.registry.Join(first, 10)
	session.registry.Join(second, 10)

	session.HandleEvent(first, []byte(`{"type":"code_update","payload":{"roomId":10,"code":"v1"}}`))
	session.HandleEvent(second, []byte(`{"type":"code_update","payload":{"roomId":10,"code":"v2"}}`))

	// The snapshot is upserted once per update, in arrival order
	store.AssertNumberOfCalls(t, "UpsertCodeSnapshot", 2)
	calls := store.Calls
	assert.Equal(t, "v2", calls[len(calls)-1].Arguments.String(1))
}

func Test_handleCodeUpdate_persistFailure(t *testing.T) {
	store := &storage.MockStorage{}
	store.On("UpsertCodeSnapshot", uint(10), "boom").Return(assert.AnError)

	session := newTestSession(store)
	sender := sessionClient(session, 1, "conn-1")
	other := sessionClient(session, 2, "conn-2")
	session.registry.Join(sender, 10)
	session.registry.Join(other, 10)

	session.HandleEvent(sender, []byte(`{"type":"code_update","payload":{"roomId":10,"code":"boom"}}`))

	event := recvEvent(t, sender)
	assert.Equal(t, "error", event.Type)
	// No broadcast when persistence fails
	assertNoEvent(t, other)
}

func Test_handleCursorMovement(t *testing.T) {
	session := newTestSession(&storage.MockStorage{})
	sender := sessionClient(session, 1, "conn-1")
	other := sessionClient(session, 2, "conn-2")
	session.registry.Join(sender, 10)
	session.registry.Join(other, 10)

	session.HandleEvent(sender, []byte(`{"type":"cursor_movement","payload":{"roomId":10,"username":"alice","position":{"line":3,"column":7}}}`))

	event := recvEvent(t, other)
	assert.Equal(t, "cursor_updated", event.Type)
	assertNoEvent(t, sender)
}

func Test_handleLanguageChange(t *testing.T) {
	session := newTestSession(&storage.MockStorage{})
	sender := sessionClient(session, 1, "conn-1")
	other := sessionClient(session, 2, "conn-2")
	session.registry.Join(sender, 10)
	session.registry.Join(other, 10)

	session.HandleEvent(sender, []byte(`{"type":"language_change","payload":{"roomId":10,"language":"go"}}`))

	// Language changes go to the whole room, sender included
	for _, client := range []*Client{sender, other} {
		event := recvEvent(t, client)
		assert.Equal(t, "language_changed", event.Type)
	}
}

func Test_handleOutputChange(t *testing.T) {
	session := newTestSession(&storage.MockStorage{})
	sender := sessionClient(session, 1, "conn-1")
	other := sessionClient(session, 2, "conn-2")
	session.registry.Join(sender, 10)
	session.registry.Join(other, 10)

	session.HandleEvent(sender, []byte(`{"type":"output_change","payload":{"roomId":10,"output":"42","error":""}}`))

	for _, client := range []*Client{sender, other} {
		event := recvEvent(t, client)
		assert.Equal(t, "output_changed", event.Type)

		var payload struct {
			Output string `json:"output"`
			Error  string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(event.Payload.(json.RawMessage), &payload))
		assert.Equal(t, "42", payload.Output)
	}
}

func Test_handleLeaveRoom(t *testing.T) {
	session := newTestSession(&storage.MockStorage{})
	leaver := sessionClient(session, 1, "conn-1")
	other := sessionClient(session, 2, "conn-2")
	session.registry.Join(leaver, 10)
	session.registry.Join(other, 10)

	session.HandleEvent(leaver, []byte(`{"type":"leave_room","payload":{"roomId":10,"userId":1}}`))

	assert.Equal(t, 1, session.registry.roomSize(10))

	event := recvEvent(t, other)
	assert.Equal(t, "user_left", event.Type)

	var payload struct {
		UserID uint `json:"userId"`
		RoomID uint `json:"roomId"`
	}
	require.NoError(t, json.Unmarshal(event.Payload.(json.RawMessage), &payload))
	assert.Equal(t, uint(1), payload.UserID)
	assert.Equal(t, uint(10), payload.RoomID)
}

func Test_handleDisconnect_silent(t *testing.T) {
	session := newTestSession(&storage.MockStorage{})
	c := sessionClient(session, 1, "conn-1")
	other := sessionClient(session, 2, "conn-2")
	session.registry.Join(c, 10)
	session.registry.Join(c, 20)
	session.registry.Join(other, 10)

	session.handleDisconnect(c)

	assert.Equal(t, 1, session.registry.roomSize(10))
	assert.Equal(t, 0, session.registry.roomSize(20))
	// Disconnects deregister without broadcasting
	assertNoEvent(t, other)
}

func Test_HandleEvent_malformedFrame(t *testing.T) {
	session := newTestSession(&storage.MockStorage{})
	c := sessionClient(session, 1, "conn-1")

	session.HandleEvent(c, []byte(`not json`))
	session.HandleEvent(c, []byte(`{"type":"join_room","payload":"nope"}`))

	event := recvEvent(t, c)
	assert.Equal(t, "error", event.Type, "bad payload shape yields a scoped error")
}
