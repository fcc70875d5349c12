// Package store persists users (with their embedded participations) and
// problems. Every user write is conditional on the version that was read,
// so concurrent lifecycle operations on one team cannot overwrite each other.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/models"
)

var (
	ErrNotFound        = errors.New("store: record not found")
	ErrVersionConflict = errors.New("store: version conflict")
	ErrDuplicate       = errors.New("store: duplicate key")
)

// Unique user fields accepted by ExistsUser.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldTeamName = "team_name"
)

type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByTeamName(ctx context.Context, teamName string) (*models.User, error)
	FindUsersByTeamNames(ctx context.Context, teamNames []string) ([]models.User, error)
	FindAllUsers(ctx context.Context) ([]models.User, error)
	FindUsersWithActiveParticipation(ctx context.Context) ([]models.User, error)
	FindUsersWithActiveHackathon(ctx context.Context, hackathonID string) ([]models.User, error)
	ExistsUser(ctx context.Context, field, value string) (bool, error)
	CountUsersByRole(ctx context.Context, role string) (int64, error)
	// CountTeamsWithProblem counts users whose participation in hackathonID
	// has problemID selected, whatever its state.
	CountTeamsWithProblem(ctx context.Context, problemID, hackathonID string) (int64, error)

	// CreateUser assigns ID, Version and timestamps.
	CreateUser(ctx context.Context, user *models.User) error
	// SaveUser replaces the stored user if its version still equals
	// user.Version, then bumps user.Version.
	SaveUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type ProblemStore interface {
	FindProblemByID(ctx context.Context, id string) (*models.Problem, error)
	FindProblemByTitle(ctx context.Context, title string) (*models.Problem, error)
	ListProblems(ctx context.Context, track string) ([]models.Problem, error)
	CreateProblem(ctx context.Context, problem *models.Problem) error
	SaveProblem(ctx context.Context, problem *models.Problem) error
	DeleteProblem(ctx context.Context, id string) error
}

type Store interface {
	UserStore
	ProblemStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open connects the store selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "mongodb", "mongo":
		return NewMongoStore(ctx, cfg)
	case "sqlite", "mysql", "postgres":
		return NewGormStore(cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func validUserField(field string) bool {
	switch field {
	case FieldUsername, FieldEmail, FieldTeamName:
		return true
	}
	return false
}
