package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/models"
	"github.com/codesurge/hackathon/internal/store"
	"github.com/codesurge/hackathon/internal/utils"
)

func members(n int) []models.TeamMember {
	out := make([]models.TeamMember, n)
	for i := range out {
		out[i] = models.TeamMember{Name: fmt.Sprintf("Member %d", i+1), Email: fmt.Sprintf("m%d@example.com", i+1)}
	}
	out[0].IsLeader = true
	return out
}

func validRegistration() *RegisterRequest {
	return &RegisterRequest{
		Username:    "rocket",
		Email:       "Rocket@Example.com",
		Password:    "secret123",
		TeamName:    "Team Rocket",
		TeamMembers: members(4),
	}
}

func newAuthFixture() (*AuthService, *store.MemoryStore, *recordingNotifier) {
	st := store.NewMemoryStore()
	rec := &recordingNotifier{}
	return NewAuthService(st, rec, &config.JWTConfig{Secret: "test", ExpireHour: 2}), st, rec
}

func TestAuthService_Register(t *testing.T) {
	svc, st, rec := newAuthFixture()

	user, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if user.ID == "" {
		t.Error("registered user should have an id")
	}
	if user.Email != "rocket@example.com" {
		t.Errorf("Email = %q, expected lowercased", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Errorf("Role = %q, expected %q", user.Role, models.RoleUser)
	}
	if user.Password == "secret123" || !utils.CheckPassword("secret123", user.Password) {
		t.Error("password should be stored as a bcrypt hash")
	}

	stored, err := st.FindUserByUsername(context.Background(), "rocket")
	if err != nil {
		t.Fatalf("FindUserByUsername error: %v", err)
	}
	if len(stored.TeamMembers) != 4 {
		t.Errorf("TeamMembers = %d, expected 4", len(stored.TeamMembers))
	}

	events := rec.ofType(EventUserRegistered)
	if len(events) != 1 || events[0].Email != "rocket@example.com" || events[0].TeamName != "Team Rocket" {
		t.Errorf("registration notifications = %+v", events)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"short username", func(r *RegisterRequest) { r.Username = "ab" }},
		{"short team name", func(r *RegisterRequest) { r.TeamName = "AB" }},
		{"short password", func(r *RegisterRequest) { r.Password = "12345" }},
		{"invalid email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
		{"disposable email", func(r *RegisterRequest) { r.Email = "x@mailinator.com" }},
		{"too few members", func(r *RegisterRequest) { r.TeamMembers = members(3) }},
		{"too many members", func(r *RegisterRequest) { r.TeamMembers = members(6) }},
		{"member without name", func(r *RegisterRequest) { r.TeamMembers[2].Name = " " }},
		{"member with bad email", func(r *RegisterRequest) { r.TeamMembers[1].Email = "nope" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, st, rec := newAuthFixture()
			req := validRegistration()
			tt.mutate(req)

			_, err := svc.Register(context.Background(), req)
			if code := apperr.CodeOf(err); code != apperr.CodeValidation {
				t.Errorf("error code = %q, expected %q (err=%v)", code, apperr.CodeValidation, err)
			}
			if users, _ := st.FindAllUsers(context.Background()); len(users) != 0 {
				t.Errorf("no user should be created, got %d", len(users))
			}
			if len(rec.events) != 0 {
				t.Errorf("no notification expected, got %d", len(rec.events))
			}
		})
	}

	t.Run("five members allowed", func(t *testing.T) {
		svc, _, _ := newAuthFixture()
		req := validRegistration()
		req.TeamMembers = members(5)
		if _, err := svc.Register(context.Background(), req); err != nil {
			t.Errorf("Register with 5 members error: %v", err)
		}
	})
}

func TestAuthService_RegisterDuplicates(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*RegisterRequest)
		wantCode string
	}{
		{"username", func(r *RegisterRequest) { r.Email = "other@example.com"; r.TeamName = "Other Team" }, apperr.CodeUsernameExists},
		{"email", func(r *RegisterRequest) { r.Username = "other"; r.TeamName = "Other Team" }, apperr.CodeEmailExists},
		{"team name", func(r *RegisterRequest) { r.Username = "other"; r.Email = "other@example.com" }, apperr.CodeTeamNameExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newAuthFixture()
			if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
				t.Fatalf("first Register error: %v", err)
			}

			req := validRegistration()
			tt.mutate(req)
			_, err := svc.Register(context.Background(), req)
			if code := apperr.CodeOf(err); code != tt.wantCode {
				t.Errorf("error code = %q, expected %q", code, tt.wantCode)
			}
			if kind := apperr.KindOf(err); kind != apperr.KindConflict {
				t.Errorf("kind = %s, expected conflict", kind)
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := newAuthFixture()
	registered, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	res, err := svc.Login(context.Background(), &LoginRequest{Username: "rocket", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if res.User.ID != registered.ID {
		t.Errorf("User.ID = %q, expected %q", res.User.ID, registered.ID)
	}
	claims, err := utils.ParseToken(res.Token)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != registered.ID || claims.Role != models.RoleUser {
		t.Errorf("claims = %+v", claims)
	}

	tests := []struct {
		name     string
		req      LoginRequest
		wantCode string
	}{
		{"wrong password", LoginRequest{Username: "rocket", Password: "wrong"}, apperr.CodeInvalidCredentials},
		{"unknown user", LoginRequest{Username: "ghost", Password: "secret123"}, apperr.CodeInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Login(context.Background(), &req)
			if code := apperr.CodeOf(err); code != tt.wantCode {
				t.Errorf("error code = %q, expected %q", code, tt.wantCode)
			}
		})
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _, _ := newAuthFixture()
	user, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	actor := principalOf(user)

	err = svc.ChangePassword(context.Background(), actor, &ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newsecret"})
	if code := apperr.CodeOf(err); code != apperr.CodeInvalidCredentials {
		t.Errorf("wrong old password: code = %q", code)
	}
	err = svc.ChangePassword(context.Background(), actor, &ChangePasswordRequest{OldPassword: "secret123", NewPassword: "123"})
	if code := apperr.CodeOf(err); code != apperr.CodeValidation {
		t.Errorf("short new password: code = %q", code)
	}

	if err := svc.ChangePassword(context.Background(), actor, &ChangePasswordRequest{OldPassword: "secret123", NewPassword: "newsecret"}); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}
	if _, err := svc.Login(context.Background(), &LoginRequest{Username: "rocket", Password: "newsecret"}); err != nil {
		t.Errorf("Login with new password error: %v", err)
	}
	if _, err := svc.Login(context.Background(), &LoginRequest{Username: "rocket", Password: "secret123"}); err == nil {
		t.Error("Login with old password should fail")
	}
}

func TestAuthService_CreateAdminIfNotExists(t *testing.T) {
	svc, st, _ := newAuthFixture()
	cfg := &config.AdminConfig{Username: "admin", Email: "admin@example.com", Password: "admin123", TeamName: "Organizers"}

	for i := 0; i < 2; i++ {
		if err := svc.CreateAdminIfNotExists(context.Background(), cfg); err != nil {
			t.Fatalf("CreateAdminIfNotExists #%d error: %v", i+1, err)
		}
	}

	count, err := st.CountUsersByRole(context.Background(), models.RoleAdmin)
	if err != nil {
		t.Fatalf("CountUsersByRole error: %v", err)
	}
	if count != 1 {
		t.Errorf("admins = %d, expected 1", count)
	}

	res, err := svc.Login(context.Background(), &LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("admin Login error: %v", err)
	}
	if !res.User.IsAdmin() {
		t.Error("bootstrapped account should be an admin")
	}
}
