package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/models"
	"github.com/codesurge/hackathon/internal/store"
)

var adminPrincipal = models.Principal{UserID: "admin-id", Username: "admin", Role: models.RoleAdmin}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []NotificationEvent
}

func (n *recordingNotifier) Notify(e *NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, *e)
}

func (n *recordingNotifier) ofType(typ EventType) []NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []NotificationEvent
	for _, e := range n.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type hackathonFixture struct {
	store    *store.MemoryStore
	notifier *recordingNotifier
	clock    *fakeClock
	svc      *HackathonService
}

func newHackathonFixture(t *testing.T, cfg *config.HackathonConfig) *hackathonFixture {
	t.Helper()
	if cfg == nil {
		cfg = &config.HackathonConfig{}
	}
	st := store.NewMemoryStore()
	rec := &recordingNotifier{}
	clock := newFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := NewHackathonService(st, rec, cfg)
	svc.now = clock.Now
	return &hackathonFixture{store: st, notifier: rec, clock: clock, svc: svc}
}

func (f *hackathonFixture) createTeam(t *testing.T, teamName string) *models.User {
	t.Helper()
	user := &models.User{
		Username: teamName + "-lead",
		TeamName: teamName,
		Email:    teamName + "@example.com",
		Role:     models.RoleUser,
		IsActive: true,
		TeamMembers: []models.TeamMember{
			{Name: "Alice", Email: teamName + ".alice@example.com", IsLeader: true},
			{Name: "Bob", Email: teamName + ".bob@example.com"},
		},
	}
	if err := f.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) error: %v", teamName, err)
	}
	return user
}

func (f *hackathonFixture) createProblem(t *testing.T, title string) *models.Problem {
	t.Helper()
	problem := &models.Problem{Title: title, Track: "web"}
	if err := f.store.CreateProblem(context.Background(), problem); err != nil {
		t.Fatalf("CreateProblem(%s) error: %v", title, err)
	}
	return problem
}

func (f *hackathonFixture) start(t *testing.T, name string, hours int, teams ...string) *StartHackathonResult {
	t.Helper()
	res, err := f.svc.StartHackathon(context.Background(), adminPrincipal, &StartHackathonRequest{
		Name:          name,
		TeamNames:     teams,
		DurationHours: hours,
	})
	if err != nil {
		t.Fatalf("StartHackathon(%s) error: %v", name, err)
	}
	return res
}

func (f *hackathonFixture) reload(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.store.FindUserByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindUserByID(%s) error: %v", id, err)
	}
	return u
}

func principalOf(u *models.User) models.Principal {
	return models.Principal{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func activeCount(u *models.User) int {
	n := 0
	for i := range u.Participations {
		if u.Participations[i].Active() {
			n++
		}
	}
	return n
}
