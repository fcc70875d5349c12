package services

import (
	"context"
	"sort"
	"time"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/models"
	"github.com/codesurge/hackathon/pkg/logger"
)

// DisplayTimeLayout is how hackathon times are rendered for people.
const DisplayTimeLayout = "Jan 2, 2006, 03:04 PM"

const notSelected = "Not selected"

// TeamStatus is one team's view of a running hackathon.
type TeamStatus struct {
	TeamName        string `json:"team_name"`
	HackathonName   string `json:"hackathon_name"`
	SelectedProblem string `json:"selected_problem"`
	HasSolution     bool   `json:"has_solution"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
}

// HackathonTeam is a team entry of a HackathonSummary.
type HackathonTeam struct {
	TeamName             string   `json:"team_name"`
	MemberEmails         []string `json:"member_emails"`
	HasSolution          bool     `json:"has_solution"`
	SelectedProblemTitle string   `json:"selected_problem_title"`
}

// HackathonSummary aggregates every participation sharing a hackathon id.
type HackathonSummary struct {
	HackathonID   string          `json:"hackathon_id"`
	HackathonName string          `json:"hackathon_name"`
	StartTime     string          `json:"start_time"`
	EndTime       string          `json:"end_time"`
	Active        bool            `json:"active"`
	Teams         []HackathonTeam `json:"teams"`

	start time.Time
}

// Status reports every running participation grouped by hackathon id.
// Participations found past their end time are expired on the way, with the
// same notification the sweep would send, and left out of the result.
func (s *HackathonService) Status(ctx context.Context, loc *time.Location) (map[string][]TeamStatus, error) {
	if loc == nil {
		loc = time.UTC
	}
	users, err := s.store.FindUsersWithActiveParticipation(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now()
	result := make(map[string][]TeamStatus)
	for i := range users {
		user := &users[i]
		p := user.ActiveParticipation()
		if p == nil {
			continue
		}
		if p.Expired(now) {
			if _, err := s.expireUser(ctx, user); err != nil {
				logger.Warn().Err(err).Str("team", user.TeamName).Msg("[Hackathon] Failed to expire participation during status read")
			}
			continue
		}

		problem := notSelected
		if p.SelectedProblem != nil {
			problem = p.SelectedProblem.Title
		}
		result[p.HackathonID] = append(result[p.HackathonID], TeamStatus{
			TeamName:        user.TeamName,
			HackathonName:   p.HackathonName,
			SelectedProblem: problem,
			HasSolution:     p.HasSolution(),
			StartTime:       p.StartTime.In(loc).Format(DisplayTimeLayout),
			EndTime:         p.EndTime.In(loc).Format(DisplayTimeLayout),
		})
	}
	return result, nil
}

// AllHackathons summarizes every hackathon ever started, newest first.
// It never modifies stored state.
func (s *HackathonService) AllHackathons(ctx context.Context, loc *time.Location) ([]HackathonSummary, error) {
	if loc == nil {
		loc = time.UTC
	}
	users, err := s.store.FindAllUsers(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	byID := make(map[string]*HackathonSummary)
	for i := range users {
		user := &users[i]
		for j := range user.Participations {
			p := &user.Participations[j]
			summary, ok := byID[p.HackathonID]
			if !ok {
				summary = &HackathonSummary{
					HackathonID:   p.HackathonID,
					HackathonName: p.HackathonName,
					StartTime:     p.StartTime.In(loc).Format(DisplayTimeLayout),
					EndTime:       p.EndTime.In(loc).Format(DisplayTimeLayout),
					Teams:         []HackathonTeam{},
					start:         p.StartTime,
				}
				byID[p.HackathonID] = summary
			}
			if p.Active() {
				summary.Active = true
			}

			title := notSelected
			if p.SelectedProblem != nil {
				title = p.SelectedProblem.Title
			}
			summary.Teams = append(summary.Teams, HackathonTeam{
				TeamName:             user.TeamName,
				MemberEmails:         user.MemberEmails(),
				HasSolution:          p.HasSolution(),
				SelectedProblemTitle: title,
			})
		}
	}

	summaries := make([]HackathonSummary, 0, len(byID))
	for _, summary := range byID {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].start.Equal(summaries[j].start) {
			return summaries[i].start.After(summaries[j].start)
		}
		return summaries[i].HackathonID < summaries[j].HackathonID
	})
	return summaries, nil
}

// ParticipationsFor returns a user's participation history.
func (s *HackathonService) ParticipationsFor(ctx context.Context, actor models.Principal, userID string) ([]models.Participation, error) {
	if !actor.CanActFor(userID) {
		return nil, apperr.Forbidden("You can only view your own team")
	}
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, userLookupError(err)
	}
	return user.Participations, nil
}
