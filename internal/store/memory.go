package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codesurge/hackathon/internal/models"
)

// MemoryStore keeps everything in process. It backs the "memory" driver for
// local runs and the service tests. Returned values are copies.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	problems map[string]*models.Problem
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*models.User),
		problems: make(map[string]*models.Problem),
		now:      time.Now,
	}
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (s *MemoryStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Username == username })
}

func (s *MemoryStore) FindUserByTeamName(ctx context.Context, teamName string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.TeamName == teamName })
}

func (s *MemoryStore) FindUsersByTeamNames(ctx context.Context, teamNames []string) ([]models.User, error) {
	wanted := make(map[string]bool, len(teamNames))
	for _, n := range teamNames {
		wanted[n] = true
	}
	return s.filterUsers(func(u *models.User) bool { return wanted[u.TeamName] }), nil
}

func (s *MemoryStore) FindAllUsers(ctx context.Context) ([]models.User, error) {
	return s.filterUsers(func(*models.User) bool { return true }), nil
}

func (s *MemoryStore) FindUsersWithActiveParticipation(ctx context.Context) ([]models.User, error) {
	return s.filterUsers(func(u *models.User) bool { return u.ActiveParticipation() != nil }), nil
}

func (s *MemoryStore) FindUsersWithActiveHackathon(ctx context.Context, hackathonID string) ([]models.User, error) {
	return s.filterUsers(func(u *models.User) bool {
		p := u.Participation(hackathonID)
		return p != nil && p.Active()
	}), nil
}

func (s *MemoryStore) ExistsUser(ctx context.Context, field, value string) (bool, error) {
	if !validUserField(field) {
		return false, fmt.Errorf("unknown user field: %s", field)
	}
	_, err := s.findUser(func(u *models.User) bool { return userField(u, field) == value })
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *MemoryStore) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	return int64(len(s.filterUsers(func(u *models.User) bool { return u.Role == role }))), nil
}

func (s *MemoryStore) CountTeamsWithProblem(ctx context.Context, problemID, hackathonID string) (int64, error) {
	users := s.filterUsers(func(u *models.User) bool {
		p := u.Participation(hackathonID)
		return p != nil && p.SelectedProblem != nil && p.SelectedProblem.ID == problemID
	})
	return int64(len(users)), nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflicts(user, "") {
		return ErrDuplicate
	}
	now := s.now()
	user.ID = uuid.NewString()
	user.Version = 1
	user.CreatedAt = now
	user.UpdatedAt = now
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != user.Version {
		return ErrVersionConflict
	}
	if s.conflicts(user, user.ID) {
		return ErrDuplicate
	}
	user.Version++
	user.UpdatedAt = s.now()
	s.users[user.ID] = user.Clone()
	return nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) FindProblemByID(ctx context.Context, id string) (*models.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.problems[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) FindProblemByTitle(ctx context.Context, title string) (*models.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.problems {
		if p.Title == title {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListProblems(ctx context.Context, track string) ([]models.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	problems := make([]models.Problem, 0, len(s.problems))
	for _, p := range s.problems {
		if track == "" || p.Track == track {
			problems = append(problems, *p)
		}
	}
	sort.Slice(problems, func(i, j int) bool {
		return problems[i].CreatedAt.Before(problems[j].CreatedAt) ||
			(problems[i].CreatedAt.Equal(problems[j].CreatedAt) && problems[i].ID < problems[j].ID)
	})
	return problems, nil
}

func (s *MemoryStore) CreateProblem(ctx context.Context, problem *models.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.problems {
		if p.Title == problem.Title {
			return ErrDuplicate
		}
	}
	now := s.now()
	problem.ID = uuid.NewString()
	problem.CreatedAt = now
	problem.UpdatedAt = now
	cp := *problem
	s.problems[problem.ID] = &cp
	return nil
}

func (s *MemoryStore) SaveProblem(ctx context.Context, problem *models.Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.problems[problem.ID]; !ok {
		return ErrNotFound
	}
	for id, p := range s.problems {
		if id != problem.ID && p.Title == problem.Title {
			return ErrDuplicate
		}
	}
	problem.UpdatedAt = s.now()
	cp := *problem
	s.problems[problem.ID] = &cp
	return nil
}

func (s *MemoryStore) DeleteProblem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.problems[id]; !ok {
		return ErrNotFound
	}
	delete(s.problems, id)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error  { return nil }
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func (s *MemoryStore) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return u.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

// filterUsers returns matching users ordered by creation time.
func (s *MemoryStore) filterUsers(match func(*models.User) bool) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0)
	for _, u := range s.users {
		if match(u) {
			users = append(users, *u.Clone())
		}
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt) ||
			(users[i].CreatedAt.Equal(users[j].CreatedAt) && users[i].ID < users[j].ID)
	})
	return users
}

// conflicts reports whether another user already holds one of u's unique fields.
func (s *MemoryStore) conflicts(u *models.User, selfID string) bool {
	for id, other := range s.users {
		if id == selfID {
			continue
		}
		if other.Username == u.Username || other.Email == u.Email || other.TeamName == u.TeamName {
			return true
		}
	}
	return false
}

func userField(u *models.User, field string) string {
	switch field {
	case FieldUsername:
		return u.Username
	case FieldEmail:
		return u.Email
	default:
		return u.TeamName
	}
}
