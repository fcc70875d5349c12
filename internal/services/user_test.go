package services

import (
	"context"
	"testing"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/store"
)

func TestUserService_Access(t *testing.T) {
	f := newHackathonFixture(t, nil)
	t1 := f.createTeam(t, "T1")
	t2 := f.createTeam(t, "T2")
	svc := NewUserService(f.store)
	ctx := context.Background()

	if _, err := svc.List(ctx, principalOf(t1)); apperr.CodeOf(err) != apperr.CodeForbidden {
		t.Errorf("List as user: err = %v, expected forbidden", err)
	}
	users, err := svc.List(ctx, adminPrincipal)
	if err != nil || len(users) != 2 {
		t.Errorf("List as admin = %d users, %v; expected 2, nil", len(users), err)
	}

	if _, err := svc.Get(ctx, principalOf(t1), t1.ID); err != nil {
		t.Errorf("Get own user error: %v", err)
	}
	if _, err := svc.Get(ctx, principalOf(t1), t2.ID); apperr.CodeOf(err) != apperr.CodeForbidden {
		t.Errorf("Get other user: err = %v, expected forbidden", err)
	}
	if _, err := svc.Get(ctx, adminPrincipal, "missing"); apperr.CodeOf(err) != apperr.CodeUserNotFound {
		t.Errorf("Get missing user: err = %v, expected not found", err)
	}

	if u, err := svc.GetByTeamName(ctx, adminPrincipal, "T2"); err != nil || u.ID != t2.ID {
		t.Errorf("GetByTeamName(T2) = %v, %v", u, err)
	}
	if _, err := svc.GetByTeamName(ctx, principalOf(t1), "T2"); apperr.CodeOf(err) != apperr.CodeForbidden {
		t.Errorf("GetByTeamName other team: err = %v, expected forbidden", err)
	}
}

func TestUserService_UpdateTeamName(t *testing.T) {
	f := newHackathonFixture(t, nil)
	t1 := f.createTeam(t, "T1-team")
	f.createTeam(t, "T2-team")
	svc := NewUserService(f.store)
	ctx := context.Background()

	tests := []struct {
		name     string
		teamName string
		wantCode string
	}{
		{"too short", "ab", apperr.CodeValidation},
		{"taken", "T2-team", apperr.CodeTeamNameExists},
		{"unchanged", "T1-team", ""},
		{"renamed", "Rockets", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateTeamName(ctx, principalOf(t1), t1.ID, &UpdateUserRequest{TeamName: tt.teamName})
			if code := apperr.CodeOf(err); code != tt.wantCode {
				t.Errorf("error code = %q, expected %q", code, tt.wantCode)
			}
		})
	}

	if got := f.reload(t, t1.ID).TeamName; got != "Rockets" {
		t.Errorf("TeamName = %q, expected Rockets", got)
	}
}

func TestUserService_Delete(t *testing.T) {
	f := newHackathonFixture(t, nil)
	t1 := f.createTeam(t, "T1")
	svc := NewUserService(f.store)
	ctx := context.Background()

	if err := svc.Delete(ctx, principalOf(t1), t1.ID); apperr.CodeOf(err) != apperr.CodeForbidden {
		t.Errorf("Delete as user: err = %v, expected forbidden", err)
	}
	if err := svc.Delete(ctx, adminPrincipal, adminPrincipal.UserID); apperr.CodeOf(err) != apperr.CodeValidation {
		t.Errorf("Delete self: err = %v, expected validation", err)
	}
	if err := svc.Delete(ctx, adminPrincipal, t1.ID); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := f.store.FindUserByID(ctx, t1.ID); err != store.ErrNotFound {
		t.Errorf("FindUserByID after delete: err = %v, expected ErrNotFound", err)
	}
	if err := svc.Delete(ctx, adminPrincipal, t1.ID); apperr.CodeOf(err) != apperr.CodeUserNotFound {
		t.Errorf("Delete twice: err = %v, expected not found", err)
	}
}
