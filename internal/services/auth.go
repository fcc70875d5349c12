package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/models"
	"github.com/codesurge/hackathon/internal/store"
	"github.com/codesurge/hackathon/internal/utils"
	"github.com/codesurge/hackathon/pkg/logger"
)

const (
	minTeamSize       = 4
	maxTeamSize       = 5
	minPasswordLength = 6
)

type RegisterRequest struct {
	Username    string              `json:"username" binding:"required"`
	Email       string              `json:"email" binding:"required"`
	Password    string              `json:"password" binding:"required"`
	TeamName    string              `json:"team_name" binding:"required"`
	TeamMembers []models.TeamMember `json:"team_members" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token    string       `json:"token"`
	ExpireAt time.Time    `json:"expire_at"`
	User     *models.User `json:"user"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// AuthService registers teams and issues tokens.
type AuthService struct {
	store     store.UserStore
	notifier  Notifier
	jwtConfig *config.JWTConfig
}

func NewAuthService(st store.UserStore, notifier Notifier, jwtCfg *config.JWTConfig) *AuthService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &AuthService{store: st, notifier: notifier, jwtConfig: jwtCfg}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.TeamName = strings.TrimSpace(req.TeamName)

	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	checks := []struct {
		field string
		value string
		err   *apperr.Error
	}{
		{store.FieldUsername, req.Username, apperr.Conflict(apperr.CodeUsernameExists, "Username is already taken")},
		{store.FieldEmail, req.Email, apperr.Conflict(apperr.CodeEmailExists, "Email is already registered")},
		{store.FieldTeamName, req.TeamName, apperr.Conflict(apperr.CodeTeamNameExists, "Team name is already taken")},
	}
	for _, c := range checks {
		exists, err := s.store.ExistsUser(ctx, c.field, c.value)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if exists {
			return nil, c.err
		}
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &models.User{
		Username:       req.Username,
		TeamName:       req.TeamName,
		Email:          req.Email,
		Password:       hash,
		Role:           models.RoleUser,
		IsActive:       true,
		TeamMembers:    req.TeamMembers,
		Participations: []models.Participation{},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict(apperr.CodeUsernameExists, "Username, email or team name is already taken")
		}
		return nil, apperr.Internal(err)
	}

	logger.Info().Str("username", user.Username).Str("team", user.TeamName).Msg("[Auth] Team registered")

	s.notifier.Notify(&NotificationEvent{
		Type:     EventUserRegistered,
		Email:    user.Email,
		Username: user.Username,
		TeamName: user.TeamName,
	})
	return user, nil
}

func validateRegistration(req *RegisterRequest) error {
	if len(req.Username) < 3 {
		return apperr.Validation("Username must be at least 3 characters")
	}
	if len(req.TeamName) < 3 {
		return apperr.Validation("Team name must be at least 3 characters")
	}
	if len(req.Password) < minPasswordLength {
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if !utils.IsValidEmail(req.Email) {
		return apperr.Validation("Invalid email format")
	}
	if utils.IsDisposableEmail(req.Email) {
		return apperr.Validation("Disposable email addresses are not allowed")
	}
	if n := len(req.TeamMembers); n < minTeamSize || n > maxTeamSize {
		return apperr.Validation(fmt.Sprintf("Team must have between %d and %d members", minTeamSize, maxTeamSize))
	}
	for i, m := range req.TeamMembers {
		if strings.TrimSpace(m.Name) == "" {
			return apperr.Validation(fmt.Sprintf("Team member %d is missing a name", i+1))
		}
		if !utils.IsValidEmail(m.Email) {
			return apperr.Validation(fmt.Sprintf("Team member %d has an invalid email", i+1))
		}
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResult, error) {
	user, err := s.store.FindUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Unauthorized(apperr.CodeInvalidCredentials, "Invalid username or password")
		}
		return nil, apperr.Internal(err)
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		return nil, apperr.Unauthorized(apperr.CodeInvalidCredentials, "Invalid username or password")
	}
	if !user.IsActive {
		return nil, apperr.Forbidden("Account is disabled")
	}

	hours := s.jwtConfig.ExpireHour
	if hours <= 0 {
		hours = 24
	}
	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, hours)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	logger.Info().Str("username", user.Username).Msg("[Auth] Login")
	return &LoginResult{
		Token:    token,
		ExpireAt: time.Now().Add(time.Duration(hours) * time.Hour),
		User:     user,
	}, nil
}

// ChangePassword updates the caller's own password.
func (s *AuthService) ChangePassword(ctx context.Context, actor models.Principal, req *ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}

	user, err := s.store.FindUserByID(ctx, actor.UserID)
	if err != nil {
		return userLookupError(err)
	}
	if !utils.CheckPassword(req.OldPassword, user.Password) {
		return apperr.Unauthorized(apperr.CodeInvalidCredentials, "Current password is incorrect")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return apperr.Internal(err)
	}
	user.Password = hash
	if err := s.store.SaveUser(ctx, user); err != nil {
		return userWriteError(err)
	}
	return nil
}

// CreateAdminIfNotExists bootstraps the first admin account.
func (s *AuthService) CreateAdminIfNotExists(ctx context.Context, cfg *config.AdminConfig) error {
	count, err := s.store.CountUsersByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:       cfg.Username,
		Email:          cfg.Email,
		TeamName:       cfg.TeamName,
		Password:       hash,
		Role:           models.RoleAdmin,
		IsActive:       true,
		TeamMembers:    []models.TeamMember{},
		Participations: []models.Participation{},
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Infof("[Auth] Default admin %q created", cfg.Username)
	return nil
}
