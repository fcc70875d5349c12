package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/internal/models"
)

const (
	usersCollection    = "users"
	problemsCollection = "problems"
)

var activeStates = bson.A{string(models.StateCreated), string(models.StateProblemSelected)}

// MongoStore keeps each user, participations included, as one document.
type MongoStore struct {
	client      *mongo.Client
	db          *mongo.Database
	timeout     time.Duration
	now         func() time.Time
	Collections struct {
		Users    *mongo.Collection
		Problems *mongo.Collection
	}
}

func NewMongoStore(ctx context.Context, cfg *config.DatabaseConfig) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = "codesurge"
	}
	s := newMongoStore(client, client.Database(name), cfg.Timeout())
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func newMongoStore(client *mongo.Client, db *mongo.Database, timeout time.Duration) *MongoStore {
	s := &MongoStore{client: client, db: db, timeout: timeout, now: time.Now}
	s.Collections.Users = db.Collection(usersCollection)
	s.Collections.Problems = db.Collection(problemsCollection)
	return s
}

// EnsureIndexes creates the unique and lookup indexes the queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	unique := options.Index().SetUnique(true)
	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "team_name", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "participations.hackathon_id", Value: 1}, {Key: "participations.state", Value: 1}}},
	}
	if _, err := s.Collections.Users.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	problemIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "track", Value: 1}}},
	}
	if _, err := s.Collections.Problems.Indexes().CreateMany(ctx, problemIndexes); err != nil {
		return fmt.Errorf("failed to create problem indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *MongoStore) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *MongoStore) FindUserByTeamName(ctx context.Context, teamName string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"team_name": teamName})
}

func (s *MongoStore) FindUsersByTeamNames(ctx context.Context, teamNames []string) ([]models.User, error) {
	return s.findUsers(ctx, bson.M{"team_name": bson.M{"$in": teamNames}})
}

func (s *MongoStore) FindAllUsers(ctx context.Context) ([]models.User, error) {
	return s.findUsers(ctx, bson.M{})
}

func (s *MongoStore) FindUsersWithActiveParticipation(ctx context.Context) ([]models.User, error) {
	return s.findUsers(ctx, bson.M{
		"participations": bson.M{"$elemMatch": bson.M{"state": bson.M{"$in": activeStates}}},
	})
}

func (s *MongoStore) FindUsersWithActiveHackathon(ctx context.Context, hackathonID string) ([]models.User, error) {
	return s.findUsers(ctx, bson.M{
		"participations": bson.M{"$elemMatch": bson.M{
			"hackathon_id": hackathonID,
			"state":        bson.M{"$in": activeStates},
		}},
	})
}

func (s *MongoStore) ExistsUser(ctx context.Context, field, value string) (bool, error) {
	if !validUserField(field) {
		return false, fmt.Errorf("unknown user field: %s", field)
	}
	n, err := s.countUsers(ctx, bson.M{field: value})
	return n > 0, err
}

func (s *MongoStore) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	return s.countUsers(ctx, bson.M{"role": role})
}

func (s *MongoStore) CountTeamsWithProblem(ctx context.Context, problemID, hackathonID string) (int64, error) {
	return s.countUsers(ctx, bson.M{
		"participations": bson.M{"$elemMatch": bson.M{
			"hackathon_id":        hackathonID,
			"selected_problem.id": problemID,
		}},
	})
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now().UTC()
	user.ID = primitive.NewObjectID().Hex()
	user.Version = 1
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Participations == nil {
		user.Participations = []models.Participation{}
	}

	if _, err := s.Collections.Users.InsertOne(ctx, user); err != nil {
		return translateMongoError(err)
	}
	return nil
}

func (s *MongoStore) SaveUser(ctx context.Context, user *models.User) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	expected := user.Version
	next := *user
	next.Version = expected + 1
	next.UpdatedAt = s.now().UTC()

	res, err := s.Collections.Users.ReplaceOne(ctx, bson.M{"_id": user.ID, "version": expected}, &next)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		n, err := s.Collections.Users.CountDocuments(ctx, bson.M{"_id": user.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	user.Version = next.Version
	user.UpdatedAt = next.UpdatedAt
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.Collections.Users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) FindProblemByID(ctx context.Context, id string) (*models.Problem, error) {
	return s.findProblem(ctx, bson.M{"_id": id})
}

func (s *MongoStore) FindProblemByTitle(ctx context.Context, title string) (*models.Problem, error) {
	return s.findProblem(ctx, bson.M{"title": title})
}

func (s *MongoStore) ListProblems(ctx context.Context, track string) ([]models.Problem, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	filter := bson.M{}
	if track != "" {
		filter["track"] = track
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.Collections.Problems.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	problems := make([]models.Problem, 0)
	if err := cursor.All(ctx, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func (s *MongoStore) CreateProblem(ctx context.Context, problem *models.Problem) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	now := s.now().UTC()
	problem.ID = primitive.NewObjectID().Hex()
	problem.CreatedAt = now
	problem.UpdatedAt = now

	if _, err := s.Collections.Problems.InsertOne(ctx, problem); err != nil {
		return translateMongoError(err)
	}
	return nil
}

func (s *MongoStore) SaveProblem(ctx context.Context, problem *models.Problem) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	problem.UpdatedAt = s.now().UTC()
	res, err := s.Collections.Problems.ReplaceOne(ctx, bson.M{"_id": problem.ID}, problem)
	if err != nil {
		return translateMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteProblem(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.Collections.Problems.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.Collections.Users.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *MongoStore) findUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.Collections.Users.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := make([]models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoStore) countUsers(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.Collections.Users.CountDocuments(ctx, filter)
}

func (s *MongoStore) findProblem(ctx context.Context, filter bson.M) (*models.Problem, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var problem models.Problem
	if err := s.Collections.Problems.FindOne(ctx, filter).Decode(&problem); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &problem, nil
}

func translateMongoError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
