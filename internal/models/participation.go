package models

import (
	"encoding/json"
	"time"

	"github.com/codesurge/hackathon/internal/apperr"
)

// ParticipationState is the lifecycle position of a team in one hackathon.
//
//	created -> problem_selected -> submitted
//	created | problem_selected -> closed
type ParticipationState string

const (
	StateCreated         ParticipationState = "created"
	StateProblemSelected ParticipationState = "problem_selected"
	StateSubmitted       ParticipationState = "submitted"
	StateClosed          ParticipationState = "closed"
)

// Active reports whether the state still accepts team actions.
func (s ParticipationState) Active() bool {
	return s == StateCreated || s == StateProblemSelected
}

// Close reasons
const (
	ReasonAdminClosure = "Admin Closure"
	ReasonTimeLimit    = "Time Limit Exceeded"
	ReasonSuperseded   = "Superseded"
)

// ProblemRef is the copy of a problem held by a participation. It does not
// follow later edits or deletion of the catalog entry.
type ProblemRef struct {
	ID    string `json:"id" bson:"id"`
	Title string `json:"title" bson:"title"`
	Track string `json:"track,omitempty" bson:"track,omitempty"`
}

type Solution struct {
	GithubURL   string    `json:"github_url" bson:"github_url"`
	HostedURL   string    `json:"hosted_url,omitempty" bson:"hosted_url,omitempty"`
	SubmittedAt time.Time `json:"submitted_at" bson:"submitted_at"`
}

type Participation struct {
	HackathonID       string             `json:"hackathon_id" bson:"hackathon_id"`
	HackathonName     string             `json:"hackathon_name" bson:"hackathon_name"`
	StartTime         time.Time          `json:"start_time" bson:"start_time"`
	EndTime           time.Time          `json:"end_time" bson:"end_time"`
	State             ParticipationState `json:"state" bson:"state"`
	SelectedProblem   *ProblemRef        `json:"selected_problem,omitempty" bson:"selected_problem,omitempty"`
	ProblemSelectedAt *time.Time         `json:"problem_selected_at,omitempty" bson:"problem_selected_at,omitempty"`
	Solution          *Solution          `json:"solution,omitempty" bson:"solution,omitempty"`
	ClosedAt          *time.Time         `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
	ClosedReason      string             `json:"closed_reason,omitempty" bson:"closed_reason,omitempty"`
}

func NewParticipation(hackathonID, name string, start, end time.Time) Participation {
	return Participation{
		HackathonID:   hackathonID,
		HackathonName: name,
		StartTime:     start,
		EndTime:       end,
		State:         StateCreated,
	}
}

func (p *Participation) Active() bool {
	return p.State.Active()
}

func (p *Participation) HasSolution() bool {
	return p.Solution != nil
}

// Expired reports whether an active participation has run past its end time.
func (p *Participation) Expired(now time.Time) bool {
	return p.Active() && !now.Before(p.EndTime)
}

// CheckWindow enforces the half-open window [StartTime, EndTime).
func (p *Participation) CheckWindow(now time.Time) error {
	if now.Before(p.StartTime) {
		return apperr.HackathonNotStarted()
	}
	if !now.Before(p.EndTime) {
		return apperr.HackathonEnded()
	}
	return nil
}

// CanSelectProblem reports whether problemID may be selected now, without
// looking at the time window or problem capacity.
func (p *Participation) CanSelectProblem(problemID string) error {
	switch p.State {
	case StateCreated:
		return nil
	case StateProblemSelected:
		if p.SelectedProblem != nil && p.SelectedProblem.ID == problemID {
			return apperr.ProblemAlreadySelected("This problem is already selected")
		}
		return apperr.ProblemAlreadySelected("Another problem is already selected for this hackathon")
	default:
		return apperr.NoActiveHackathon()
	}
}

func (p *Participation) SelectProblem(ref ProblemRef, at time.Time) error {
	if err := p.CanSelectProblem(ref.ID); err != nil {
		return err
	}
	p.SelectedProblem = &ref
	p.ProblemSelectedAt = &at
	p.State = StateProblemSelected
	return nil
}

// Submit attaches the solution and ends the participation.
func (p *Participation) Submit(solution Solution) error {
	switch p.State {
	case StateProblemSelected:
	case StateCreated:
		return apperr.Validation("Please select a problem before submitting solution")
	default:
		return apperr.NoActiveHackathon()
	}
	p.Solution = &solution
	p.State = StateSubmitted
	return nil
}

func (p *Participation) Close(reason string, at time.Time) error {
	if !p.Active() {
		return apperr.NoActiveHackathon()
	}
	p.State = StateClosed
	p.ClosedReason = reason
	p.ClosedAt = &at
	return nil
}

func (p Participation) clone() Participation {
	cp := p
	if p.SelectedProblem != nil {
		ref := *p.SelectedProblem
		cp.SelectedProblem = &ref
	}
	if p.ProblemSelectedAt != nil {
		t := *p.ProblemSelectedAt
		cp.ProblemSelectedAt = &t
	}
	if p.Solution != nil {
		s := *p.Solution
		cp.Solution = &s
	}
	if p.ClosedAt != nil {
		t := *p.ClosedAt
		cp.ClosedAt = &t
	}
	return cp
}

// MarshalJSON adds the derived "active" flag.
func (p Participation) MarshalJSON() ([]byte, error) {
	type alias Participation
	return json.Marshal(struct {
		alias
		Active bool `json:"active"`
	}{alias(p), p.Active()})
}
