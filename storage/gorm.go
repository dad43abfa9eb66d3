package storage

import (
	"errors"
	"strings"

	"github.com/codehive/coderoom_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStorage implements Storage on top of a gorm DB handle.
type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

func (s *GormStorage) CreateUser(name, email, password string) (models.User, error) {
	// Registration creates a verified account; there is no separate
	// verification step.
	user := models.User{
		Name:     name,
		Email:    email,
		Password: password,
		Verified: true,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}

func (s *GormStorage) FindUser(userID uint) (models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}

func (s *GormStorage) FindUserByEmail(email string) (models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}

// CreateRoom creates a room and the creator's OWNER membership in a
// single transaction.
func (s *GormStorage) CreateRoom(name string, creatorID uint) (models.Room, error) {
	room := models.Room{
		Name:      name,
		CreatorID: creatorID,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		membership := models.Membership{
			RoomID: room.ID,
			UserID: creatorID,
			Role:   models.RoleOwner,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return models.Room{}, mapError(err)
	}
	return room, nil
}

func (s *GormStorage) FindRoom(roomID uint) (models.Room, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return models.Room{}, mapError(err)
	}
	return room, nil
}

func (s *GormStorage) ListRoomsForUser(userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := s.db.
		Joins("JOIN memberships ON memberships.room_id = rooms.id").
		Where("memberships.user_id = ?", userID).
		Find(&rooms).Error
	if err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

func (s *GormStorage) FindMembership(roomID, userID uint) (models.Membership, error) {
	var membership models.Membership
	err := s.db.Preload("User").
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&membership).Error
	if err != nil {
		return models.Membership{}, mapError(err)
	}
	return membership, nil
}

func (s *GormStorage) FindMembershipByID(membershipID uint) (models.Membership, error) {
	var membership models.Membership
	if err := s.db.Preload("User").First(&membership, membershipID).Error; err != nil {
		return models.Membership{}, mapError(err)
	}
	return membership, nil
}

func (s *GormStorage) CreateMembership(roomID, userID uint, role string) (models.Membership, error) {
	membership := models.Membership{
		RoomID: roomID,
		UserID: userID,
		Role:   role,
	}
	if err := s.db.Create(&membership).Error; err != nil {
		return models.Membership{}, mapError(err)
	}
	return membership, nil
}

func (s *GormStorage) UpdateMembershipRole(membershipID uint, role string) error {
	result := s.db.Model(&models.Membership{}).
		Where("id = ?", membershipID).
		Update("role", role)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStorage) DeleteMembership(membershipID uint) error {
	result := s.db.Delete(&models.Membership{}, membershipID)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStorage) ListMembers(roomID uint) ([]models.Membership, error) {
	var memberships []models.Membership
	err := s.db.Preload("User").Where("room_id = ?", roomID).Find(&memberships).Error
	if err != nil {
		return nil, mapError(err)
	}
	return memberships, nil
}

func (s *GormStorage) CreateJoinRequest(roomID, userID uint) (models.JoinRequest, error) {
	request := models.JoinRequest{
		RoomID: roomID,
		UserID: userID,
		Status: models.RequestPending,
	}
	if err := s.db.Create(&request).Error; err != nil {
		return models.JoinRequest{}, mapError(err)
	}
	return request, nil
}

func (s *GormStorage) FindJoinRequest(requestID uint) (models.JoinRequest, error) {
	var request models.JoinRequest
	if err := s.db.First(&request, requestID).Error; err != nil {
		return models.JoinRequest{}, mapError(err)
	}
	return request, nil
}

func (s *GormStorage) FindPendingJoinRequest(roomID, userID uint) (models.JoinRequest, error) {
	var request models.JoinRequest
	err := s.db.
		Where("room_id = ? AND user_id = ? AND status = ?", roomID, userID, models.RequestPending).
		First(&request).Error
	if err != nil {
		return models.JoinRequest{}, mapError(err)
	}
	return request, nil
}

func (s *GormStorage) ListPendingJoinRequests(roomID uint) ([]models.JoinRequest, error) {
	var requests []models.JoinRequest
	err := s.db.Preload("User").
		Where("room_id = ? AND status = ?", roomID, models.RequestPending).
		Find(&requests).Error
	if err != nil {
		return nil, mapError(err)
	}
	return requests, nil
}

func (s *GormStorage) UpdateJoinRequestStatus(requestID uint, status string) error {
	result := s.db.Model(&models.JoinRequest{}).
		Where("id = ?", requestID).
		Update("status", status)
	if result.Error != nil {
		return mapError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStorage) CreateMessage(roomID, userID uint, content string) (models.Message, error) {
	message := models.Message{
		Content: content,
		RoomID:  roomID,
		UserID:  userID,
	}
	if err := s.db.Create(&message).Error; err != nil {
		return models.Message{}, mapError(err)
	}
	if err := s.db.Preload("User").First(&message, message.ID).Error; err != nil {
		return models.Message{}, mapError(err)
	}
	return message, nil
}

func (s *GormStorage) ListMessages(roomID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Preload("User").
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, mapError(err)
	}
	return messages, nil
}

// UpsertCodeSnapshot inserts the snapshot row for a room or overwrites
// its code field. Last write wins.
func (s *GormStorage) UpsertCodeSnapshot(roomID uint, code string) error {
	snapshot := models.CodeSnapshot{
		RoomID: roomID,
		Code:   code,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "updated_at"}),
	}).Create(&snapshot).Error
	return mapError(err)
}

func (s *GormStorage) FindCodeSnapshot(roomID uint) (models.CodeSnapshot, error) {
	var snapshot models.CodeSnapshot
	if err := s.db.Where("room_id = ?", roomID).First(&snapshot).Error; err != nil {
		return models.CodeSnapshot{}, mapError(err)
	}
	return snapshot, nil
}

// mapError converts gorm errors to the package sentinels
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicate
	}
	return err
}
