package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/models"
)

// userRecord is the SQL row for a user. Team members and participations are
// JSON columns so the user is still read and written as one unit.
// ActiveHackathonID mirrors the active participation for indexed lookups.
type userRecord struct {
	ID                string                 `gorm:"primaryKey;size:64"`
	Username          string                 `gorm:"uniqueIndex;size:100;not null"`
	TeamName          string                 `gorm:"uniqueIndex;size:100;not null"`
	Email             string                 `gorm:"uniqueIndex;size:255;not null"`
	Password          string                 `gorm:"size:255"`
	Role              string                 `gorm:"size:20;index"`
	IsActive          bool                   `gorm:"not null"`
	TeamMembers       []models.TeamMember    `gorm:"serializer:json;type:text"`
	Participations    []models.Participation `gorm:"serializer:json;type:text"`
	ActiveHackathonID string                 `gorm:"size:64;index"`
	Version           int64                  `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (userRecord) TableName() string {
	return "users"
}

type problemRecord struct {
	ID          string `gorm:"primaryKey;size:64"`
	Title       string `gorm:"uniqueIndex;size:255;not null"`
	Description string `gorm:"type:text"`
	Track       string `gorm:"size:100;index"`
	ReleaseDate *time.Time
	Deadline    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (problemRecord) TableName() string {
	return "problems"
}

type GormStore struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGormStore(cfg *config.DatabaseConfig) (*GormStore, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return NewGormStoreFromDB(db, cfg.Timeout())
}

// NewGormStoreFromDB wraps an open connection and migrates the schema.
func NewGormStoreFromDB(db *gorm.DB, timeout time.Duration) (*GormStore, error) {
	if err := db.AutoMigrate(&userRecord{}, &problemRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &GormStore{db: db, timeout: timeout}, nil
}

func (s *GormStore) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

func (s *GormStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *GormStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, "username = ?", username)
}

func (s *GormStore) FindUserByTeamName(ctx context.Context, teamName string) (*models.User, error) {
	return s.findUser(ctx, "team_name = ?", teamName)
}

func (s *GormStore) FindUsersByTeamNames(ctx context.Context, teamNames []string) ([]models.User, error) {
	if len(teamNames) == 0 {
		return []models.User{}, nil
	}
	return s.findUsers(ctx, "team_name IN ?", teamNames)
}

func (s *GormStore) FindAllUsers(ctx context.Context) ([]models.User, error) {
	return s.findUsers(ctx, "1 = 1")
}

func (s *GormStore) FindUsersWithActiveParticipation(ctx context.Context) ([]models.User, error) {
	return s.findUsers(ctx, "active_hackathon_id <> ?", "")
}

func (s *GormStore) FindUsersWithActiveHackathon(ctx context.Context, hackathonID string) ([]models.User, error) {
	return s.findUsers(ctx, "active_hackathon_id = ?", hackathonID)
}

func (s *GormStore) ExistsUser(ctx context.Context, field, value string) (bool, error) {
	if !validUserField(field) {
		return false, fmt.Errorf("unknown user field: %s", field)
	}
	db, cancel := s.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&userRecord{}).Where(field+" = ?", value).Count(&count).Error
	return count > 0, err
}

func (s *GormStore) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var count int64
	err := db.Model(&userRecord{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// CountTeamsWithProblem narrows candidates with a LIKE on the JSON column and
// checks the decoded participations exactly.
func (s *GormStore) CountTeamsWithProblem(ctx context.Context, problemID, hackathonID string) (int64, error) {
	users, err := s.findUsers(ctx, "participations LIKE ?", "%"+hackathonID+"%")
	if err != nil {
		return 0, err
	}

	var count int64
	for i := range users {
		p := users[i].Participation(hackathonID)
		if p != nil && p.SelectedProblem != nil && p.SelectedProblem.ID == problemID {
			count++
		}
	}
	return count, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	user.ID = uuid.NewString()
	user.Version = 1
	rec := toUserRecord(user)
	if err := db.Create(rec).Error; err != nil {
		return translateGormError(err)
	}
	user.CreatedAt = rec.CreatedAt
	user.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *GormStore) SaveUser(ctx context.Context, user *models.User) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	expected := user.Version
	rec := toUserRecord(user)
	rec.Version = expected + 1
	rec.UpdatedAt = time.Now()

	res := db.Model(&userRecord{}).
		Where("id = ? AND version = ?", user.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := db.Model(&userRecord{}).Where("id = ?", user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	user.Version = rec.Version
	user.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Delete(&userRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindProblemByID(ctx context.Context, id string) (*models.Problem, error) {
	return s.findProblem(ctx, "id = ?", id)
}

func (s *GormStore) FindProblemByTitle(ctx context.Context, title string) (*models.Problem, error) {
	return s.findProblem(ctx, "title = ?", title)
}

func (s *GormStore) ListProblems(ctx context.Context, track string) ([]models.Problem, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	query := db.Order("created_at ASC, id ASC")
	if track != "" {
		query = query.Where("track = ?", track)
	}

	var recs []problemRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}
	problems := make([]models.Problem, len(recs))
	for i := range recs {
		problems[i] = *recs[i].toModel()
	}
	return problems, nil
}

func (s *GormStore) CreateProblem(ctx context.Context, problem *models.Problem) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	problem.ID = uuid.NewString()
	rec := toProblemRecord(problem)
	if err := db.Create(rec).Error; err != nil {
		return translateGormError(err)
	}
	problem.CreatedAt = rec.CreatedAt
	problem.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *GormStore) SaveProblem(ctx context.Context, problem *models.Problem) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	rec := toProblemRecord(problem)
	rec.UpdatedAt = time.Now()
	res := db.Model(&problemRecord{}).
		Where("id = ?", problem.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return translateGormError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	problem.UpdatedAt = rec.UpdatedAt
	return nil
}

func (s *GormStore) DeleteProblem(ctx context.Context, id string) error {
	db, cancel := s.conn(ctx)
	defer cancel()

	res := db.Delete(&problemRecord{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) findUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rec userRecord
	if err := db.Where(query, args...).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec.toModel(), nil
}

func (s *GormStore) findUsers(ctx context.Context, query string, args ...interface{}) ([]models.User, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var recs []userRecord
	if err := db.Where(query, args...).Order("created_at ASC, id ASC").Find(&recs).Error; err != nil {
		return nil, err
	}
	users := make([]models.User, len(recs))
	for i := range recs {
		users[i] = *recs[i].toModel()
	}
	return users, nil
}

func (s *GormStore) findProblem(ctx context.Context, query string, args ...interface{}) (*models.Problem, error) {
	db, cancel := s.conn(ctx)
	defer cancel()

	var rec problemRecord
	if err := db.Where(query, args...).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec.toModel(), nil
}

func toUserRecord(u *models.User) *userRecord {
	rec := &userRecord{
		ID:             u.ID,
		Username:       u.Username,
		TeamName:       u.TeamName,
		Email:          u.Email,
		Password:       u.Password,
		Role:           u.Role,
		IsActive:       u.IsActive,
		TeamMembers:    u.TeamMembers,
		Participations: u.Participations,
		Version:        u.Version,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
	if rec.TeamMembers == nil {
		rec.TeamMembers = []models.TeamMember{}
	}
	if rec.Participations == nil {
		rec.Participations = []models.Participation{}
	}
	if active := u.ActiveParticipation(); active != nil {
		rec.ActiveHackathonID = active.HackathonID
	}
	return rec
}

func (r *userRecord) toModel() *models.User {
	return &models.User{
		ID:             r.ID,
		Username:       r.Username,
		TeamName:       r.TeamName,
		Email:          r.Email,
		Password:       r.Password,
		Role:           r.Role,
		IsActive:       r.IsActive,
		TeamMembers:    r.TeamMembers,
		Participations: r.Participations,
		Version:        r.Version,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toProblemRecord(p *models.Problem) *problemRecord {
	return &problemRecord{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Track:       p.Track,
		ReleaseDate: p.ReleaseDate,
		Deadline:    p.Deadline,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *problemRecord) toModel() *models.Problem {
	return &models.Problem{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Track:       r.Track,
		ReleaseDate: r.ReleaseDate,
		Deadline:    r.Deadline,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func translateGormError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
