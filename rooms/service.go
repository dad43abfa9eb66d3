package rooms

import (
	"errors"

	"github.com/codehive/coderoom_backend/models"
	"github.com/codehive/coderoom_backend/storage"
	"github.com/sirupsen/logrus"
)

// SessionEvictor removes a user's live connections from a room's
// active set. Implemented by the websocket registry.
type SessionEvictor interface {
	EvictUser(roomID, userID uint)
}

// Service implements the join-request lifecycle and membership
// management that gate room access. Every mutating operation
// re-checks the approver's OWNER role itself rather than relying on
// the routing layer alone.
type Service struct {
	store    storage.Storage
	sessions SessionEvictor
	log      *logrus.Logger
}

func NewService(store storage.Storage, sessions SessionEvictor, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		log:      log,
	}
}

// Request creates a PENDING join request for a non-member.
func (s *Service) Request(roomID, userID uint) (models.JoinRequest, error) {
	if _, err := s.store.FindRoom(roomID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.JoinRequest{}, ErrNotFound
		}
		return models.JoinRequest{}, err
	}

	if _, err := s.store.FindMembership(roomID, userID); err == nil {
		return models.JoinRequest{}, ErrAlreadyMember
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.JoinRequest{}, err
	}

	if _, err := s.store.FindPendingJoinRequest(roomID, userID); err == nil {
		return models.JoinRequest{}, ErrRequestPending
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.JoinRequest{}, err
	}

	request, err := s.store.CreateJoinRequest(roomID, userID)
	if err != nil {
		return models.JoinRequest{}, err
	}

	s.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": userID,
	}).Info("join request created")
	return request, nil
}

// Approve marks a request ACCEPTED and creates the membership. A
// request that is no longer pending is a no-op, and an existing
// membership is never duplicated. The role defaults to VIEWER.
func (s *Service) Approve(requestID, approverID uint, role string) error {
	request, err := s.store.FindJoinRequest(requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.requireOwner(request.RoomID, approverID); err != nil {
		return err
	}

	if request.Status != models.RequestPending {
		return nil
	}

	if role == "" {
		role = models.RoleViewer
	}
	if role != models.RoleViewer && role != models.RoleEditor && role != models.RoleOwner {
		return ErrInvalidRole
	}

	// The membership is created before the status flips so a failed
	// insert leaves the request PENDING and re-approvable, never
	// ACCEPTED with no membership behind it.
	if _, err := s.store.FindMembership(request.RoomID, request.UserID); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if _, err := s.store.CreateMembership(request.RoomID, request.UserID, role); err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return err
		}
	}

	if err := s.store.UpdateJoinRequestStatus(requestID, models.RequestAccepted); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"room_id":    request.RoomID,
		"user_id":    request.UserID,
		"role":       role,
	}).Info("join request approved")
	return nil
}

// Reject marks a request REJECTED. Rejecting a request that is no
// longer pending is a no-op, not an error.
func (s *Service) Reject(requestID, approverID uint) error {
	request, err := s.store.FindJoinRequest(requestID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.requireOwner(request.RoomID, approverID); err != nil {
		return err
	}

	if request.Status != models.RequestPending {
		return nil
	}

	if err := s.store.UpdateJoinRequestStatus(requestID, models.RequestRejected); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"room_id":    request.RoomID,
	}).Info("join request rejected")
	return nil
}

// Promote raises a member's role to EDITOR or OWNER.
func (s *Service) Promote(membershipID, approverID uint, newRole string) error {
	if newRole != models.RoleEditor && newRole != models.RoleOwner {
		return ErrInvalidRole
	}

	membership, err := s.store.FindMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.requireOwner(membership.RoomID, approverID); err != nil {
		return err
	}

	if err := s.store.UpdateMembershipRole(membershipID, newRole); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.log.WithFields(logrus.Fields{
		"membership_id": membershipID,
		"room_id":       membership.RoomID,
		"role":          newRole,
	}).Info("member promoted")
	return nil
}

// Remove deletes a membership and evicts the user's live connections
// from the room so a stale connection stops receiving broadcasts.
func (s *Service) Remove(membershipID, approverID uint) error {
	membership, err := s.store.FindMembershipByID(membershipID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := s.requireOwner(membership.RoomID, approverID); err != nil {
		return err
	}

	if err := s.store.DeleteMembership(membershipID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if s.sessions != nil {
		s.sessions.EvictUser(membership.RoomID, membership.UserID)
	}

	s.log.WithFields(logrus.Fields{
		"membership_id": membershipID,
		"room_id":       membership.RoomID,
		"user_id":       membership.UserID,
	}).Info("member removed")
	return nil
}

func (s *Service) requireOwner(roomID, userID uint) error {
	membership, err := s.store.FindMembership(roomID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotOwner
		}
		return err
	}
	if membership.Role != models.RoleOwner {
		return ErrNotOwner
	}
	return nil
}
