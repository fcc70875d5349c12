package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/codesurge/hackathon/internal/apperr"
	"github.com/codesurge/hackathon/internal/models"
	"github.com/codesurge/hackathon/internal/store"
	"github.com/codesurge/hackathon/pkg/logger"
)

type ProblemRequest struct {
	Title       string     `json:"title" yaml:"title" binding:"required"`
	Description string     `json:"description" yaml:"description"`
	Track       string     `json:"track" yaml:"track"`
	ReleaseDate *time.Time `json:"release_date" yaml:"release_date"`
	Deadline    *time.Time `json:"deadline" yaml:"deadline"`
}

func (r *ProblemRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Track = strings.TrimSpace(r.Track)
	if r.Title == "" {
		return apperr.Validation("Title is required")
	}
	if r.ReleaseDate != nil && r.Deadline != nil && r.Deadline.Before(*r.ReleaseDate) {
		return apperr.Validation("Deadline must not be before the release date")
	}
	return nil
}

// ProblemService manages the problem catalog.
type ProblemService struct {
	store store.ProblemStore
}

func NewProblemService(st store.ProblemStore) *ProblemService {
	return &ProblemService{store: st}
}

func (s *ProblemService) List(ctx context.Context, track string) ([]models.Problem, error) {
	problems, err := s.store.ListProblems(ctx, strings.TrimSpace(track))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return problems, nil
}

func (s *ProblemService) Get(ctx context.Context, id string) (*models.Problem, error) {
	problem, err := s.store.FindProblemByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ProblemNotFound()
		}
		return nil, apperr.Internal(err)
	}
	return problem, nil
}

func (s *ProblemService) Create(ctx context.Context, req *ProblemRequest) (*models.Problem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	problem := &models.Problem{
		Title:       req.Title,
		Description: req.Description,
		Track:       req.Track,
		ReleaseDate: req.ReleaseDate,
		Deadline:    req.Deadline,
	}
	if err := s.store.CreateProblem(ctx, problem); err != nil {
		return nil, problemWriteError(err)
	}

	logger.Infof("[Problem] Created problem %q (%s)", problem.Title, problem.ID)
	return problem, nil
}

// Update replaces a problem's fields. Participations keep the title they
// were selected with.
func (s *ProblemService) Update(ctx context.Context, id string, req *ProblemRequest) (*models.Problem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	problem, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	problem.Title = req.Title
	problem.Description = req.Description
	problem.Track = req.Track
	problem.ReleaseDate = req.ReleaseDate
	problem.Deadline = req.Deadline
	if err := s.store.SaveProblem(ctx, problem); err != nil {
		return nil, problemWriteError(err)
	}

	logger.Infof("[Problem] Updated problem %q (%s)", problem.Title, problem.ID)
	return problem, nil
}

func (s *ProblemService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProblem(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.ProblemNotFound()
		}
		return apperr.Internal(err)
	}
	logger.Infof("[Problem] Deleted problem %s", id)
	return nil
}

// Seed creates the problems whose titles are not in the catalog yet and
// returns how many were added.
func (s *ProblemService) Seed(ctx context.Context, reqs []ProblemRequest) (int, error) {
	created := 0
	for i := range reqs {
		_, err := s.Create(ctx, &reqs[i])
		if apperr.CodeOf(err) == apperr.CodeProblemTitleExists {
			logger.Debug().Str("title", reqs[i].Title).Msg("[Problem] Already seeded, skipping")
			continue
		}
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

func problemWriteError(err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return apperr.Conflict(apperr.CodeProblemTitleExists, "A problem with this title already exists")
	case errors.Is(err, store.ErrNotFound):
		return apperr.ProblemNotFound()
	default:
		return apperr.Internal(err)
	}
}
