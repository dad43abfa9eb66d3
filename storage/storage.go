package storage

import (
	"github.com/codehive/coderoom_backend/models"
)

// Storage is the persistence interface consumed by the session core,
// the join-request workflow and the HTTP controllers. Any backend
// implementing it suffices; the default implementation is gorm/postgres.
type Storage interface {
	CreateUser(name, email, password string) (models.User, error)
	FindUser(userID uint) (models.User, error)
	FindUserByEmail(email string) (models.User, error)

	CreateRoom(name string, creatorID uint) (models.Room, error)
	FindRoom(roomID uint) (models.Room, error)
	ListRoomsForUser(userID uint) ([]models.Room, error)

	FindMembership(roomID, userID uint) (models.Membership, error)
	FindMembershipByID(membershipID uint) (models.Membership, error)
	CreateMembership(roomID, userID uint, role string) (models.Membership, error)
	UpdateMembershipRole(membershipID uint, role string) error
	DeleteMembership(membershipID uint) error
	ListMembers(roomID uint) ([]models.Membership, error)

	CreateJoinRequest(roomID, userID uint) (models.JoinRequest, error)
	FindJoinRequest(requestID uint) (models.JoinRequest, error)
	FindPendingJoinRequest(roomID, userID uint) (models.JoinRequest, error)
	ListPendingJoinRequests(roomID uint) ([]models.JoinRequest, error)
	UpdateJoinRequestStatus(requestID uint, status string) error

	CreateMessage(roomID, userID uint, content string) (models.Message, error)
	ListMessages(roomID uint) ([]models.Message, error)

	UpsertCodeSnapshot(roomID uint, code string) error
	FindCodeSnapshot(roomID uint) (models.CodeSnapshot, error)
}
