package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/models"
	"github.com/codesurge/hackathon/internal/store"
	"github.com/codesurge/hackathon/internal/utils"
	"github.com/codesurge/hackathon/pkg/logger"
)

const maxUpdateAttempts = 3

// errNoChange aborts an update whose transition no longer applies, for
// example when another writer already closed the participation.
var errNoChange = errors.New("no change")

type StartHackathonRequest struct {
	Name          string     `json:"hackathon_name" binding:"required"`
	TeamNames     []string   `json:"team_names" binding:"required,min=1"`
	DurationHours int        `json:"duration_in_hours" binding:"required,gt=0"`
	StartTime     *time.Time `json:"start_time"`
}

type StartHackathonResult struct {
	HackathonID string    `json:"hackathon_id"`
	Name        string    `json:"hackathon_name"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Teams       []string  `json:"teams"`
	FailedTeams []string  `json:"failed_teams,omitempty"`
}

type SubmitSolutionRequest struct {
	GithubURL string `json:"github_url" form:"githubUrl" binding:"required"`
	HostedURL string `json:"hosted_url" form:"hostedUrl"`
}

// HackathonService runs the participation lifecycle: start, problem
// selection, submission, closing and time-based expiry.
type HackathonService struct {
	store    store.Store
	notifier Notifier
	cfg      *config.HackathonConfig
	now      func() time.Time
	newID    func() string
}

func NewHackathonService(st store.Store, notifier Notifier, cfg *config.HackathonConfig) *HackathonService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &HackathonService{
		store:    st,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// StartHackathon enrolls every listed team into a new hackathon. Teams are
// updated independently; a failure for one team does not undo the others.
// When some teams fail the result is still returned, listing both sides,
// together with the joined per-team errors.
func (s *HackathonService) StartHackathon(ctx context.Context, actor models.Principal, req *StartHackathonRequest) (*StartHackathonResult, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only admins can start a hackathon")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("Hackathon name is required")
	}
	if len(req.TeamNames) == 0 {
		return nil, apperr.Validation("At least one team must be selected")
	}
	if req.DurationHours <= 0 {
		return nil, apperr.Validation("Duration must be greater than 0")
	}

	users, err := s.store.FindUsersByTeamNames(ctx, req.TeamNames)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(users) == 0 {
		return nil, apperr.InvalidTeam()
	}

	now := s.now()
	start := now
	if req.StartTime != nil {
		start = *req.StartTime
	}
	start = start.UTC()
	end := start.Add(time.Duration(req.DurationHours) * time.Hour)
	hackathonID := s.newID()

	eventType := EventHackathonStarted
	if start.After(now) {
		eventType = EventHackathonScheduled
	}

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency())

	var (
		mu     sync.Mutex
		teams  = make([]string, 0, len(users))
		failed []string
		errs   []error
	)
	for i := range users {
		user := &users[i]
		g.Go(func() error {
			updated, err := s.updateLoaded(ctx, user, func(u *models.User) error {
				u.StartParticipation(models.NewParticipation(hackathonID, name, start, end), now)
				return nil
			})
			if err != nil {
				logger.Error().Err(err).Str("team", user.TeamName).Str("hackathon_id", hackathonID).
					Msg("[Hackathon] Failed to start hackathon for team")
				mu.Lock()
				failed = append(failed, user.TeamName)
				errs = append(errs, fmt.Errorf("start hackathon for team %s: %w", user.TeamName, err))
				mu.Unlock()
				return nil
			}

			mu.Lock()
			teams = append(teams, updated.TeamName)
			mu.Unlock()

			s.notifier.Notify(&NotificationEvent{
				Type:          eventType,
				Email:         updated.Email,
				Username:      updated.Username,
				TeamName:      updated.TeamName,
				HackathonID:   hackathonID,
				HackathonName: name,
				StartTime:     &start,
				EndTime:       &end,
				OccurredAt:    now,
			})
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(teams)
	sort.Strings(failed)

	logger.Info().Str("hackathon_id", hackathonID).Str("name", name).Int("teams", len(teams)).
		Int("failed", len(failed)).Time("start", start).Time("end", end).Msg("[Hackathon] Hackathon started")

	return &StartHackathonResult{
		HackathonID: hackathonID,
		Name:        name,
		StartTime:   start,
		EndTime:     end,
		Teams:       teams,
		FailedTeams: failed,
	}, errors.Join(errs...)
}

// SelectProblem locks problemID in for the user's active participation.
// An empty hackathonID means "whatever hackathon is active".
func (s *HackathonService) SelectProblem(ctx context.Context, actor models.Principal, problemID, userID, hackathonID string) (*models.Participation, error) {
	if !actor.CanActFor(userID) {
		return nil, apperr.Forbidden("You can only select problems for your own team")
	}
	problem, err := s.findProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	var now time.Time
	var selected models.Participation
	user, err := s.updateUser(ctx, userID, func(u *models.User) error {
		p, err := activeParticipation(u, hackathonID)
		if err != nil {
			return err
		}
		now = s.now()
		if err := p.CheckWindow(now); err != nil {
			return err
		}
		if err := p.CanSelectProblem(problem.ID); err != nil {
			return err
		}
		if err := s.checkCapacity(ctx, problem.ID, p.HackathonID); err != nil {
			return err
		}
		if err := p.SelectProblem(problem.Ref(), now); err != nil {
			return err
		}
		selected = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("team", user.TeamName).Str("hackathon_id", selected.HackathonID).
		Str("problem", problem.Title).Msg("[Hackathon] Problem selected")

	s.notifier.Notify(&NotificationEvent{
		Type:          EventProblemSelected,
		Email:         user.Email,
		Username:      user.Username,
		TeamName:      user.TeamName,
		HackathonID:   selected.HackathonID,
		HackathonName: selected.HackathonName,
		ProblemTitle:  problem.Title,
		StartTime:     &selected.StartTime,
		EndTime:       &selected.EndTime,
		OccurredAt:    now,
	})
	return &selected, nil
}

// AssignProblem lets an admin set a team's problem regardless of the time
// window and problem capacity.
func (s *HackathonService) AssignProblem(ctx context.Context, actor models.Principal, userID, problemID, hackathonID string) (*models.Participation, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("Only admins can assign problems")
	}
	problem, err := s.findProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	var now time.Time
	var assigned models.Participation
	user, err := s.updateUser(ctx, userID, func(u *models.User) error {
		p, err := activeParticipation(u, hackathonID)
		if err != nil {
			return err
		}
		now = s.now()
		if err := p.SelectProblem(problem.Ref(), now); err != nil {
			return err
		}
		assigned = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("team", user.TeamName).Str("hackathon_id", assigned.HackathonID).
		Str("problem", problem.Title).Str("by", actor.Username).Msg("[Hackathon] Problem assigned")

	s.notifier.Notify(&NotificationEvent{
		Type:          EventProblemSelected,
		Email:         user.Email,
		Username:      user.Username,
		TeamName:      user.TeamName,
		HackathonID:   assigned.HackathonID,
		HackathonName: assigned.HackathonName,
		ProblemTitle:  problem.Title,
		StartTime:     &assigned.StartTime,
		EndTime:       &assigned.EndTime,
		OccurredAt:    now,
	})
	return &assigned, nil
}

// SubmitSolution attaches the team's solution and ends its participation.
func (s *HackathonService) SubmitSolution(ctx context.Context, actor models.Principal, userID string, req *SubmitSolutionRequest) (*models.Participation, error) {
	if !actor.CanActFor(userID) {
		return nil, apperr.Forbidden("You can only submit solutions for your own team")
	}
	githubURL := strings.TrimSpace(req.GithubURL)
	hostedURL := strings.TrimSpace(req.HostedURL)
	if !utils.IsHTTPURL(githubURL) {
		return nil, apperr.Validation("GitHub URL must be a valid http(s) URL")
	}
	if hostedURL != "" && !utils.IsHTTPURL(hostedURL) {
		return nil, apperr.Validation("Hosted URL must be a valid http(s) URL")
	}

	var now time.Time
	var submitted models.Participation
	user, err := s.updateUser(ctx, userID, func(u *models.User) error {
		p := u.ActiveParticipation()
		if p == nil {
			return apperr.NoActiveHackathon()
		}
		if p.State != models.StateProblemSelected {
			return apperr.Validation("Please select a problem before submitting solution")
		}
		now = s.now()
		if !now.Before(p.EndTime) {
			return apperr.HackathonEnded()
		}
		if err := p.Submit(models.Solution{GithubURL: githubURL, HostedURL: hostedURL, SubmittedAt: now}); err != nil {
			return err
		}
		submitted = *p
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Str("team", user.TeamName).Str("hackathon_id", submitted.HackathonID).
		Msg("[Hackathon] Solution submitted")

	event := &NotificationEvent{
		Type:          EventSolutionSubmitted,
		Email:         user.Email,
		Username:      user.Username,
		TeamName:      user.TeamName,
		HackathonID:   submitted.HackathonID,
		HackathonName: submitted.HackathonName,
		GithubURL:     githubURL,
		HostedURL:     hostedURL,
		OccurredAt:    now,
	}
	if submitted.SelectedProblem != nil {
		event.ProblemTitle = submitted.SelectedProblem.Title
	}
	s.notifier.Notify(event)
	return &submitted, nil
}

// CloseHackathon ends every active participation of hackathonID and returns
// how many were closed.
func (s *HackathonService) CloseHackathon(ctx context.Context, actor models.Principal, hackathonID string) (int, error) {
	if !actor.IsAdmin() {
		return 0, apperr.Forbidden("Only admins can close a hackathon")
	}
	if strings.TrimSpace(hackathonID) == "" {
		return 0, apperr.Validation("Hackathon id is required")
	}

	users, err := s.store.FindUsersWithActiveHackathon(ctx, hackathonID)
	if err != nil {
		return 0, apperr.Internal(err)
	}

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency())

	var closed atomic.Int64
	for i := range users {
		user := &users[i]
		g.Go(func() error {
			var now time.Time
			var p models.Participation
			updated, err := s.updateLoaded(ctx, user, func(u *models.User) error {
				part := u.Participation(hackathonID)
				if part == nil || !part.Active() {
					return errNoChange
				}
				now = s.now()
				if err := part.Close(models.ReasonAdminClosure, now); err != nil {
					return err
				}
				p = *part
				return nil
			})
			if errors.Is(err, errNoChange) {
				return nil
			}
			if err != nil {
				logger.Error().Err(err).Str("team", user.TeamName).Str("hackathon_id", hackathonID).
					Msg("[Hackathon] Failed to close hackathon for team")
				return fmt.Errorf("close hackathon for team %s: %w", user.TeamName, err)
			}

			closed.Add(1)
			s.notifyEnded(updated, &p, now)
			return nil
		})
	}
	err = g.Wait()

	logger.Info().Str("hackathon_id", hackathonID).Int64("closed", closed.Load()).
		Str("by", actor.Username).Msg("[Hackathon] Hackathon closed")
	return int(closed.Load()), err
}

// ExpireStale closes every active participation whose end time has passed.
// It is the body of the periodic sweep.
func (s *HackathonService) ExpireStale(ctx context.Context) (int, error) {
	users, err := s.store.FindUsersWithActiveParticipation(ctx)
	if err != nil {
		return 0, err
	}

	expired := 0
	var errs []error
	for i := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := s.expireUser(ctx, &users[i])
		expired += n
		if err != nil {
			logger.Error().Err(err).Str("team", users[i].TeamName).Msg("[Hackathon] Failed to expire participation")
			errs = append(errs, err)
		}
	}

	if expired > 0 {
		logger.Info().Int("expired", expired).Msg("[Hackathon] Expired participations past their end time")
	}
	return expired, errors.Join(errs...)
}

// expireUser closes the user's participations that are past their end time.
// Only the writer whose save succeeds sends the ended notification.
func (s *HackathonService) expireUser(ctx context.Context, user *models.User) (int, error) {
	var now time.Time
	var closed []models.Participation
	updated, err := s.updateLoaded(ctx, user, func(u *models.User) error {
		now = s.now()
		closed = closed[:0]
		for i := range u.Participations {
			p := &u.Participations[i]
			if !p.Expired(now) {
				continue
			}
			if err := p.Close(models.ReasonTimeLimit, now); err != nil {
				return err
			}
			closed = append(closed, *p)
		}
		if len(closed) == 0 {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	for i := range closed {
		s.notifyEnded(updated, &closed[i], now)
	}
	return len(closed), nil
}

func (s *HackathonService) notifyEnded(u *models.User, p *models.Participation, at time.Time) {
	end := p.EndTime
	if p.ClosedReason != models.ReasonTimeLimit && p.ClosedAt != nil {
		end = *p.ClosedAt
	}
	event := &NotificationEvent{
		Type:          EventHackathonEnded,
		Email:         u.Email,
		Username:      u.Username,
		TeamName:      u.TeamName,
		HackathonID:   p.HackathonID,
		HackathonName: p.HackathonName,
		Reason:        p.ClosedReason,
		StartTime:     &p.StartTime,
		EndTime:       &end,
		OccurredAt:    at,
	}
	if p.SelectedProblem != nil {
		event.ProblemTitle = p.SelectedProblem.Title
	}
	s.notifier.Notify(event)
}

// updateUser loads the user and applies mutate through updateLoaded.
func (s *HackathonService) updateUser(ctx context.Context, userID string, mutate func(*models.User) error) (*models.User, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.UserNotFound()
		}
		return nil, apperr.Internal(err)
	}
	return s.updateLoaded(ctx, user, mutate)
}

// updateLoaded applies mutate to user and saves it conditionally on the
// version that was read. On a version conflict the user is reloaded and
// mutate runs again against the fresh copy. mutate errors abort the update
// before anything is written.
func (s *HackathonService) updateLoaded(ctx context.Context, user *models.User, mutate func(*models.User) error) (*models.User, error) {
	current := user.Clone()
	for attempt := 1; ; attempt++ {
		if err := mutate(current); err != nil {
			return nil, err
		}

		err := s.store.SaveUser(ctx, current)
		if err == nil {
			return current, nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.UserNotFound()
			}
			return nil, apperr.Internal(err)
		}
		if attempt >= maxUpdateAttempts {
			return nil, apperr.Conflict(apperr.CodeConcurrentModification, "Team was modified concurrently, please retry").WithCause(err)
		}

		logger.Debug().Str("user_id", user.ID).Int("attempt", attempt).Msg("[Hackathon] Version conflict, reloading")
		current, err = s.store.FindUserByID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, apperr.UserNotFound()
			}
			return nil, apperr.Internal(err)
		}
	}
}

func (s *HackathonService) findProblem(ctx context.Context, problemID string) (*models.Problem, error) {
	problem, err := s.store.FindProblemByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ProblemNotFound()
		}
		return nil, apperr.Internal(err)
	}
	return problem, nil
}

func (s *HackathonService) checkCapacity(ctx context.Context, problemID, hackathonID string) error {
	if s.cfg == nil || s.cfg.MaxTeamsPerProblem <= 0 {
		return nil
	}
	count, err := s.store.CountTeamsWithProblem(ctx, problemID, hackathonID)
	if err != nil {
		return apperr.Internal(err)
	}
	if count >= int64(s.cfg.MaxTeamsPerProblem) {
		return apperr.ProblemNotAvailable()
	}
	return nil
}

func (s *HackathonService) concurrency() int {
	if s.cfg == nil || s.cfg.StartConcurrency <= 0 {
		return 8
	}
	return s.cfg.StartConcurrency
}

// activeParticipation returns the user's active participation, requiring it
// to belong to hackathonID when one is given.
func activeParticipation(u *models.User, hackathonID string) (*models.Participation, error) {
	p := u.ActiveParticipation()
	if p == nil {
		return nil, apperr.NoActiveHackathon()
	}
	if hackathonID != "" && p.HackathonID != hackathonID {
		return nil, apperr.NoActiveHackathon()
	}
	return p, nil
}
