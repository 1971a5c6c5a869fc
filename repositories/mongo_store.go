package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/stage-engine/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps each record type in its own collection. Transactions need
// the server to run as a replica set.
type MongoStore struct {
	Client      *mongo.Client
	Database    *mongo.Database
	logger      *slog.Logger
	Collections struct {
		Tournaments    *mongo.Collection
		Stages         *mongo.Collection
		GroupStates    *mongo.Collection
		PlayoffStates  *mongo.Collection
		GroupMatches   *mongo.Collection
		BracketMatches *mongo.Collection
	}
}

func NewMongoStore(ctx context.Context, mongoURI, dbName string, logger *slog.Logger) (*MongoStore, error) {
	if dbName == "" {
		return nil, fmt.Errorf("mongo database name cannot be empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	db := client.Database(dbName)
	s := &MongoStore{Client: client, Database: db, logger: logger}
	s.Collections.Tournaments = db.Collection("tournaments")
	s.Collections.Stages = db.Collection("stages")
	s.Collections.GroupStates = db.Collection("stage_group_states")
	s.Collections.PlayoffStates = db.Collection("stage_playoff_states")
	s.Collections.GroupMatches = db.Collection("group_matches")
	s.Collections.BracketMatches = db.Collection("bracket_matches")

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Info("connected to mongo", slog.String("database", dbName))
	return s, nil
}

// EnsureIndexes creates the unique indexes the duplicate guards rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.Collections.Stages, mongo.IndexModel{
			Keys:    bson.D{{Key: "tournament_id", Value: 1}, {Key: "order", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.Collections.GroupMatches, mongo.IndexModel{
			Keys:    bson.D{{Key: "stage_id", Value: 1}, {Key: "match_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.Collections.GroupMatches, mongo.IndexModel{
			Keys: bson.D{{Key: "stage_id", Value: 1}, {Key: "matchday", Value: 1}},
		}},
		{s.Collections.BracketMatches, mongo.IndexModel{
			Keys:    bson.D{{Key: "stage_id", Value: 1}, {Key: "uid", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (s *MongoStore) Tournaments() TournamentRepository { return &mongoTournamentRepository{s: s} }
func (s *MongoStore) Stages() StageRepository           { return &mongoStageRepository{s: s} }
func (s *MongoStore) Matches() MatchRepository          { return &mongoMatchRepository{s: s} }

// WithTx runs fn in a multi-document transaction. The driver may call fn more
// than once on transient errors.
func (s *MongoStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}
	session, err := s.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start mongo session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	return err
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

type mongoTournamentRepository struct {
	s *MongoStore
}

func (r *mongoTournamentRepository) Create(ctx context.Context, t *models.Tournament, stages []models.StageDefinition) error {
	return r.s.WithTx(ctx, func(ctx context.Context, _ Store) error {
		if _, err := r.s.Collections.Tournaments.InsertOne(ctx, t); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrTournamentConflict
			}
			return fmt.Errorf("failed to insert tournament %s: %w", t.ID, err)
		}
		if len(stages) == 0 {
			return nil
		}
		docs := make([]interface{}, 0, len(stages))
		for _, st := range stages {
			st.TournamentID = t.ID
			docs = append(docs, st)
		}
		if _, err := r.s.Collections.Stages.InsertMany(ctx, docs); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrTournamentConflict
			}
			return fmt.Errorf("failed to insert stages of tournament %s: %w", t.ID, err)
		}
		return nil
	})
}

func (r *mongoTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	var t models.Tournament
	if err := r.s.Collections.Tournaments.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *mongoTournamentRepository) UpdateStatus(ctx context.Context, id string, status models.TournamentStatus) error {
	res, err := r.s.Collections.Tournaments.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}, "$currentDate": bson.M{"updated_at": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrTournamentNotFound
	}
	return nil
}

type mongoStageRepository struct {
	s *MongoStore
}

func (r *mongoStageRepository) GetByID(ctx context.Context, stageID string) (*models.StageDefinition, error) {
	var st models.StageDefinition
	if err := r.s.Collections.Stages.FindOne(ctx, bson.M{"_id": stageID}).Decode(&st); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStageNotFound
		}
		return nil, err
	}
	return &st, nil
}

func (r *mongoStageRepository) ListByTournament(ctx context.Context, tournamentID string) ([]models.StageDefinition, error) {
	cursor, err := r.s.Collections.Stages.Find(ctx,
		bson.M{"tournament_id": tournamentID},
		options.Find().SetSort(bson.D{{Key: "order", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stages of tournament %s: %w", tournamentID, err)
	}
	stages := make([]models.StageDefinition, 0)
	if err := cursor.All(ctx, &stages); err != nil {
		return nil, err
	}
	return stages, nil
}

// LockStage bumps a counter on the stage document. Two transactions touching
// the same stage then conflict and the driver retries the loser.
func (r *mongoStageRepository) LockStage(ctx context.Context, stageID string) error {
	res, err := r.s.Collections.Stages.UpdateOne(ctx, bson.M{"_id": stageID}, bson.M{"$inc": bson.M{"lock_seq": 1}})
	if err != nil {
		return fmt.Errorf("failed to lock stage %s: %w", stageID, err)
	}
	if res.MatchedCount == 0 {
		return ErrStageNotFound
	}
	return nil
}

func (r *mongoStageRepository) GetGroupState(ctx context.Context, stageID string) (*models.GroupRuntimeState, error) {
	var s models.GroupRuntimeState
	if err := r.s.Collections.GroupStates.FindOne(ctx, bson.M{"_id": stageID}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRuntimeStateNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *mongoStageRepository) CreateGroupState(ctx context.Context, state *models.GroupRuntimeState) error {
	if _, err := r.s.Collections.GroupStates.InsertOne(ctx, state); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrRuntimeStateExists
		}
		return fmt.Errorf("failed to insert group state of stage %s: %w", state.StageID, err)
	}
	return nil
}

func (r *mongoStageRepository) UpdateGroupState(ctx context.Context, state *models.GroupRuntimeState) error {
	res, err := r.s.Collections.GroupStates.ReplaceOne(ctx, bson.M{"_id": state.StageID}, state)
	if err != nil {
		return fmt.Errorf("failed to update group state of stage %s: %w", state.StageID, err)
	}
	if res.MatchedCount == 0 {
		return ErrRuntimeStateNotFound
	}
	return nil
}

func (r *mongoStageRepository) GetPlayoffsState(ctx context.Context, stageID string) (*models.PlayoffsRuntimeState, error) {
	var s models.PlayoffsRuntimeState
	if err := r.s.Collections.PlayoffStates.FindOne(ctx, bson.M{"_id": stageID}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRuntimeStateNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *mongoStageRepository) CreatePlayoffsState(ctx context.Context, state *models.PlayoffsRuntimeState) error {
	if _, err := r.s.Collections.PlayoffStates.InsertOne(ctx, state); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrRuntimeStateExists
		}
		return fmt.Errorf("failed to insert playoffs state of stage %s: %w", state.StageID, err)
	}
	return nil
}

type mongoMatchRepository struct {
	s *MongoStore
}

func (r *mongoMatchRepository) CreateMatchday(ctx context.Context, matches []models.MatchRecord) error {
	if len(matches) == 0 {
		return nil
	}
	docs := make([]interface{}, len(matches))
	for i := range matches {
		docs[i] = matches[i]
	}
	// InsertMany alone may stop halfway, so it always runs in a transaction.
	return r.s.WithTx(ctx, func(ctx context.Context, _ Store) error {
		if _, err := r.s.Collections.GroupMatches.InsertMany(ctx, docs); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrMatchdayExists
			}
			return fmt.Errorf("failed to insert matchday %d of stage %s: %w", matches[0].Matchday, matches[0].StageID, err)
		}
		return nil
	})
}

func (r *mongoMatchRepository) MatchdayExists(ctx context.Context, stageID string, matchday int) (bool, error) {
	n, err := r.s.Collections.GroupMatches.CountDocuments(ctx,
		bson.M{"stage_id": stageID, "matchday": matchday},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check matchday %d of stage %s: %w", matchday, stageID, err)
	}
	return n > 0, nil
}

func (r *mongoMatchRepository) ListByStage(ctx context.Context, stageID string, matchday *int) ([]models.MatchRecord, error) {
	filter := bson.M{"stage_id": stageID}
	if matchday != nil {
		filter["matchday"] = *matchday
	}
	cursor, err := r.s.Collections.GroupMatches.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "match_number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of stage %s: %w", stageID, err)
	}
	matches := make([]models.MatchRecord, 0)
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *mongoMatchRepository) GetByID(ctx context.Context, id string) (*models.MatchRecord, error) {
	var m models.MatchRecord
	if err := r.s.Collections.GroupMatches.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *mongoMatchRepository) RecordResult(ctx context.Context, id string, team1Score, team2Score int) error {
	res, err := r.s.Collections.GroupMatches.UpdateOne(ctx,
		bson.M{"_id": id, "is_complete": false},
		bson.M{"$set": bson.M{"team1_score": team1Score, "team2_score": team2Score, "is_complete": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to record result of match %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrMatchCompleted
	}
	return nil
}

func (r *mongoMatchRepository) CreateBracketMatches(ctx context.Context, matches []*models.BracketMatch) error {
	if len(matches) == 0 {
		return nil
	}
	docs := make([]interface{}, len(matches))
	for i, m := range matches {
		docs[i] = m
	}
	return r.s.WithTx(ctx, func(ctx context.Context, _ Store) error {
		if _, err := r.s.Collections.BracketMatches.InsertMany(ctx, docs); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrBracketMatchesConflict
			}
			return fmt.Errorf("failed to insert bracket of stage %s: %w", matches[0].StageID, err)
		}
		return nil
	})
}

func (r *mongoMatchRepository) ListBracketMatches(ctx context.Context, stageID string) ([]models.BracketMatch, error) {
	cursor, err := r.s.Collections.BracketMatches.Find(ctx,
		bson.M{"stage_id": stageID},
		options.Find().SetSort(bson.D{{Key: "round", Value: 1}, {Key: "order_in_round", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bracket of stage %s: %w", stageID, err)
	}
	matches := make([]models.BracketMatch, 0)
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}
