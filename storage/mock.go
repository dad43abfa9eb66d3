package storage

import (
	"github.com/codehive/coderoom_backend/models"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of the Storage interface for tests.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateUser(name, email, password string) (models.User, error) {
	args := m.Called(name, email, password)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStorage) FindUser(userID uint) (models.User, error) {
	args := m.Called(userID)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStorage) FindUserByEmail(email string) (models.User, error) {
	args := m.Called(email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *MockStorage) CreateRoom(name string, creatorID uint) (models.Room, error) {
	args := m.Called(name, creatorID)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *MockStorage) FindRoom(roomID uint) (models.Room, error) {
	args := m.Called(roomID)
	return args.Get(0).(models.Room), args.Error(1)
}

func (m *MockStorage) ListRoomsForUser(userID uint) ([]models.Room, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.Room), args.Error(1)
}

func (m *MockStorage) FindMembership(roomID, userID uint) (models.Membership, error) {
	args := m.Called(roomID, userID)
	return args.Get(0).(models.Membership), args.Error(1)
}

func (m *MockStorage) FindMembershipByID(membershipID uint) (models.Membership, error) {
	args := m.Called(membershipID)
	return args.Get(0).(models.Membership), args.Error(1)
}

func (m *MockStorage) CreateMembership(roomID, userID uint, role string) (models.Membership, error) {
	args := m.Called(roomID, userID, role)
	return args.Get(0).(models.Membership), args.Error(1)
}

func (m *MockStorage) UpdateMembershipRole(membershipID uint, role string) error {
	args := m.Called(membershipID, role)
	return args.Error(0)
}

func (m *MockStorage) DeleteMembership(membershipID uint) error {
	args := m.Called(membershipID)
	return args.Error(0)
}

func (m *MockStorage) ListMembers(roomID uint) ([]models.Membership, error) {
	args := m.Called(roomID)
	return args.Get(0).([]models.Membership), args.Error(1)
}

func (m *MockStorage) CreateJoinRequest(roomID, userID uint) (models.JoinRequest, error) {
	args := m.Called(roomID, userID)
	return args.Get(0).(models.JoinRequest), args.Error(1)
}

func (m *MockStorage) FindJoinRequest(requestID uint) (models.JoinRequest, error) {
	args := m.Called(requestID)
	return args.Get(0).(models.JoinRequest), args.Error(1)
}

func (m *MockStorage) FindPendingJoinRequest(roomID, userID uint) (models.JoinRequest, error) {
	args := m.Called(roomID, userID)
	return args.Get(0).(models.JoinRequest), args.Error(1)
}

func (m *MockStorage) ListPendingJoinRequests(roomID uint) ([]models.JoinRequest, error) {
	args := m.Called(roomID)
	return args.Get(0).([]models.JoinRequest), args.Error(1)
}

func (m *MockStorage) UpdateJoinRequestStatus(requestID uint, status string) error {
	args := m.Called(requestID, status)
	return args.Error(0)
}

func (m *MockStorage) CreateMessage(roomID, userID uint, content string) (models.Message, error) {
	args := m.Called(roomID, userID, content)
	return args.Get(0).(models.Message), args.Error(1)
}

func (m *MockStorage) ListMessages(roomID uint) ([]models.Message, error) {
	args := m.Called(roomID)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) UpsertCodeSnapshot(roomID uint, code string) error {
	args := m.Called(roomID, code)
	return args.Error(0)
}

func (m *MockStorage) FindCodeSnapshot(roomID uint) (models.CodeSnapshot, error) {
	args := m.Called(roomID)
	return args.Get(0).(models.CodeSnapshot), args.Error(1)
}
