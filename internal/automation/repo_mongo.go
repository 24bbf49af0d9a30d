package automation

import (
	"context"
	"errors"
	"time"

	"brandbuzz/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "automation_jobs"

type MongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(Collection)}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	return utils.EnsureIndexes(ctx, r.coll,
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}}},
	)
}

func (r *MongoRepo) Insert(ctx context.Context, j *Job) error {
	if j.ID.IsZero() {
		j.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, j)
	return err
}

func (r *MongoRepo) FindByID(ctx context.Context, userID, id string) (Job, error) {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return Job{}, ErrNotFound
	}
	var j Job
	err := r.coll.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&j)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Job{}, ErrNotFound
	}
	return j, err
}

func (r *MongoRepo) Claim(ctx context.Context, id, workerID string, at, staleBefore time.Time) (Job, error) {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return Job{}, ErrNotFound
	}
	filter := bson.M{"_id": oid, "$or": bson.A{
		bson.M{"status": JobStatusQueued},
		bson.M{"status": JobStatusRunning, "updatedAt": bson.M{"$lt": staleBefore}},
	}}
	update := bson.M{"$set": bson.M{
		"status":    JobStatusRunning,
		"workerId":  workerID,
		"startedAt": at,
		"updatedAt": at,
	}}
	var j Job
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&j)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if cerr == nil && n == 0 {
			return Job{}, ErrNotFound
		}
		return Job{}, ErrNotClaimable
	}
	return j, err
}

func (r *MongoRepo) Advance(ctx context.Context, id, workerID string, completedSteps, progress int, at time.Time) error {
	return r.updateClaimed(ctx, id, workerID, bson.M{
		"completedSteps": completedSteps,
		"progress":       progress,
		"updatedAt":      at,
	})
}

func (r *MongoRepo) Finish(ctx context.Context, id, workerID string, status JobStatus, errMsg string, at time.Time) error {
	set := bson.M{"status": status, "finishedAt": at, "updatedAt": at}
	if errMsg != "" {
		set["error"] = errMsg
	}
	if status == JobStatusCompleted {
		set["progress"] = 100
	}
	return r.updateClaimed(ctx, id, workerID, set)
}

func (r *MongoRepo) updateClaimed(ctx context.Context, id, workerID string, set bson.M) error {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "workerId": workerID, "status": JobStatusRunning},
		bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrLostClaim
	}
	return nil
}

func (r *MongoRepo) Fail(ctx context.Context, id, errMsg string, at time.Time) error {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return ErrNotFound
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "status": JobStatusQueued},
		bson.M{"$set": bson.M{"status": JobStatusFailed, "error": errMsg, "finishedAt": at, "updatedAt": at}})
	return err
}
