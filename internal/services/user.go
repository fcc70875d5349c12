package services

import (
	"context"
	"errors"
	"strings"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/models"
	"github.com/codesurge/hackathon/internal/store"
	"github.com/codesurge/hackathon/pkg/logger"
)

type UpdateUserRequest struct {
	TeamName string `json:"team_name" binding:"required"`
}

// UserService exposes team accounts to their owners and to admins.
type UserService struct {
	store store.UserStore
}

func NewUserService(st store.UserStore) *UserService {
	return &UserService{store: st}
}

func (s *UserService) List(ctx context.Context, actor models.Principal) ([]models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only admins can list users")
	}
	users, err := s.store.FindAllUsers(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, actor models.Principal, id string) (*models.User, error) {
	if !actor.CanActFor(id) {
		return nil, apperr.Forbidden("You can only view your own team")
	}
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user, nil
}

func (s *UserService) GetByTeamName(ctx context.Context, actor models.Principal, teamName string) (*models.User, error) {
	user, err := s.store.FindUserByTeamName(ctx, teamName)
	if err != nil {
		return nil, userLookupError(err)
	}
	if !actor.CanActFor(user.ID) {
		return nil, apperr.Forbidden("You can only view your own team")
	}
	return user, nil
}

// UpdateTeamName renames a team. Existing participations are untouched.
func (s *UserService) UpdateTeamName(ctx context.Context, actor models.Principal, id string, req *UpdateUserRequest) (*models.User, error) {
	if !actor.CanActFor(id) {
		return nil, apperr.Forbidden("You can only update your own team")
	}
	name := strings.TrimSpace(req.TeamName)
	if len(name) < 3 {
		return nil, apperr.Validation("Team name must be at least 3 characters")
	}

	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, userLookupError(err)
	}
	if user.TeamName == name {
		return user, nil
	}

	exists, err := s.store.ExistsUser(ctx, store.FieldTeamName, name)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if exists {
		return nil, apperr.Conflict(apperr.CodeTeamNameExists, "Team name is already taken")
	}

	old := user.TeamName
	user.TeamName = name
	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, userWriteError(err)
	}

	logger.Info().Str("user_id", id).Str("from", old).Str("to", name).Msg("[User] Team renamed")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actor models.Principal, id string) error {
	if !actor.IsAdmin() {
		return apperr.Forbidden("Only admins can delete users")
	}
	if actor.UserID == id {
		return apperr.Validation("You cannot delete your own account")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return userLookupError(err)
	}
	logger.Info().Str("user_id", id).Str("by", actor.Username).Msg("[User] User deleted")
	return nil
}

func userLookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.UserNotFound()
	}
	return apperr.Internal(err)
}

func userWriteError(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.UserNotFound()
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict(apperr.CodeTeamNameExists, "Team name is already taken")
	case errors.Is(err, store.ErrVersionConflict):
		return apperr.Conflict(apperr.CodeConcurrentModification, "Team was modified concurrently, please retry")
	default:
		return apperr.Internal(err)
	}
}
