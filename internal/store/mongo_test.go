package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/codesurge/hackathon/internal/models"
)

func newMockMongoStore(mt *mtest.T) *MongoStore {
	return newMongoStore(mt.Client, mt.DB, 5*time.Second)
}

func userDoc(id, team string, version int64, participations bson.A) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "username", Value: team + "-user"},
		{Key: "team_name", Value: team},
		{Key: "email", Value: team + "@example.com"},
		{Key: "role", Value: models.RoleUser},
		{Key: "is_active", Value: true},
		{Key: "participations", Value: participations},
		{Key: "version", Value: version},
	}
}

func TestMongoStore_FindUserByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("decodes embedded participations", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

		mt.AddMockResponses(mtest.CreateCursorResponse(1, "codesurge.users", mtest.FirstBatch,
			userDoc("u1", "T1", 3, bson.A{
				bson.D{
					{Key: "hackathon_id", Value: "h1"},
					{Key: "hackathon_name", Value: "Spring2024"},
					{Key: "start_time", Value: start},
					{Key: "end_time", Value: start.Add(24 * time.Hour)},
					{Key: "state", Value: "problem_selected"},
					{Key: "selected_problem", Value: bson.D{{Key: "id", Value: "p1"}, {Key: "title", Value: "P1"}}},
				},
			})))

		u, err := s.FindUserByID(context.Background(), "u1")
		require.NoError(mt, err)
		assert.Equal(mt, "T1", u.TeamName)
		assert.Equal(mt, int64(3), u.Version)
		active := u.ActiveParticipation()
		require.NotNil(mt, active)
		assert.Equal(mt, "h1", active.HackathonID)
		require.NotNil(mt, active.SelectedProblem)
		assert.Equal(mt, "P1", active.SelectedProblem.Title)
	})

	mt.Run("maps no documents to ErrNotFound", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "codesurge.users", mtest.FirstBatch))

		_, err := s.FindUserByID(context.Background(), "missing")
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoStore_FindUsersWithActiveParticipation(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns all documents of the batch", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "codesurge.users", mtest.FirstBatch,
			userDoc("u1", "T1", 1, bson.A{}),
			userDoc("u2", "T2", 1, bson.A{}),
		))

		users, err := s.FindUsersWithActiveParticipation(context.Background())
		require.NoError(mt, err)
		require.Len(mt, users, 2)
		assert.Equal(mt, "u2", users[1].ID)
	})
}

func TestMongoStore_SaveUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("bumps version on match", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		u := &models.User{ID: "u1", Version: 4}
		require.NoError(mt, s.SaveUser(context.Background(), u))
		assert.Equal(mt, int64(5), u.Version)
	})

	mt.Run("reports version conflict when the document exists", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "codesurge.users", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		u := &models.User{ID: "u1", Version: 4}
		err := s.SaveUser(context.Background(), u)
		assert.ErrorIs(mt, err, ErrVersionConflict)
		assert.Equal(mt, int64(4), u.Version)
	})

	mt.Run("reports not found when the document is gone", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "codesurge.users", mtest.FirstBatch, bson.D{{Key: "n", Value: 0}}),
		)

		err := s.SaveUser(context.Background(), &models.User{ID: "u1", Version: 1})
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoStore_CreateUserDuplicate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("translates duplicate key errors", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: codesurge.users index: team_name_1",
		}))

		u := &models.User{Username: "a", TeamName: "T1", Email: "a@x.dev"}
		err := s.CreateUser(context.Background(), u)
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("assigns id and version on insert", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &models.User{Username: "a", TeamName: "T1", Email: "a@x.dev"}
		require.NoError(mt, s.CreateUser(context.Background(), u))
		assert.Len(mt, u.ID, 24)
		assert.Equal(mt, int64(1), u.Version)
		assert.NotNil(mt, u.Participations)
	})
}

func TestMongoStore_CountTeamsWithProblem(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns aggregated count", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "codesurge.users", mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(2)}}))

		n, err := s.CountTeamsWithProblem(context.Background(), "p1", "h1")
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)
	})
}

func TestMongoStore_DeleteProblem(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("not found when nothing deleted", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := s.DeleteProblem(context.Background(), "p1")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("deletes existing problem", func(mt *mtest.T) {
		s := newMockMongoStore(mt)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		require.NoError(mt, s.DeleteProblem(context.Background(), "p1"))
	})
}
