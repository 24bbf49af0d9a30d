package calls

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

const (
	callsCollection      = "calls"
	recordingsCollection = "recordings"
)

type MongoRepo struct {
	calls      *mongo.Collection
	recordings *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		calls:      db.Collection(callsCollection),
		recordings: db.Collection(recordingsCollection),
	}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	if err := utils.EnsureIndexes(ctx, r.calls,
		mongo.IndexModel{Keys: bson.D{{Key: "callSid", Value: 1}}, Options: options.Index().SetUnique(true)},
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	); err != nil {
		return err
	}
	return utils.EnsureIndexes(ctx, r.recordings,
		mongo.IndexModel{Keys: bson.D{{Key: "recordingSid", Value: 1}}, Options: options.Index().SetUnique(true)},
		mongo.IndexModel{Keys: bson.D{{Key: "callSid", Value: 1}}},
	)
}

func (r *MongoRepo) Insert(ctx context.Context, c *Call) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.calls.InsertOne(ctx, c)
	return err
}

func (r *MongoRepo) FindBySid(ctx context.Context, sid string) (Call, error) {
	var c Call
	err := r.calls.FindOne(ctx, bson.M{"callSid": sid}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Call{}, ErrNotFound
	}
	return c, err
}

func (r *MongoRepo) ApplyStatus(ctx context.Context, sid string, u StatusUpdate) (Call, error) {
	filter := bson.M{"callSid": sid}
	set := bson.M{"status": u.Status, "lastEventAt": u.At, "updatedAt": time.Now().UTC()}
	if u.Sequence >= 0 {
		filter["lastSequence"] = bson.M{"$lt": u.Sequence}
		set["lastSequence"] = u.Sequence
	} else {
		filter["lastEventAt"] = bson.M{"$lte": u.At}
	}
	if u.HasDuration {
		set["duration"] = u.DurationSeconds
		set["cost"] = u.Cost
	}
	if u.Status.Terminal() {
		set["endedAt"] = u.At
	}

	var c Call
	err := r.calls.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, ferr := r.FindBySid(ctx, sid); ferr != nil {
			return Call{}, ferr
		}
		return Call{}, ErrStaleEvent
	}
	return c, err
}

func (r *MongoRepo) SetRecording(ctx context.Context, sid, url string) (Call, error) {
	return r.set(ctx, sid, bson.M{"recordingUrl": url})
}

func (r *MongoRepo) SetTranscription(ctx context.Context, sid, text, status string) (Call, error) {
	return r.set(ctx, sid, bson.M{"transcriptionText": text, "transcriptionStatus": status})
}

func (r *MongoRepo) set(ctx context.Context, sid string, set bson.M) (Call, error) {
	set["updatedAt"] = time.Now().UTC()
	var c Call
	err := r.calls.FindOneAndUpdate(ctx, bson.M{"callSid": sid}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Call{}, ErrNotFound
	}
	return c, err
}

func (r *MongoRepo) UpsertRecording(ctx context.Context, rec *Recording) error {
	now := time.Now().UTC()
	_, err := r.recordings.UpdateOne(ctx,
		bson.M{"recordingSid": rec.RecordingSid},
		bson.M{
			"$set": bson.M{
				"userId":    rec.UserID,
				"callSid":   rec.CallSid,
				"url":       rec.URL,
				"duration":  rec.DurationSeconds,
				"updatedAt": now,
			},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *MongoRepo) SetRecordingTranscription(ctx context.Context, recordingSid, transcriptionSid, text, status string) error {
	res, err := r.recordings.UpdateOne(ctx,
		bson.M{"recordingSid": recordingSid},
		bson.M{"$set": bson.M{
			"transcriptionSid":    transcriptionSid,
			"transcriptionText":   text,
			"transcriptionStatus": status,
			"updatedAt":           time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) List(ctx context.Context, userID string, skip, limit int64) ([]Call, int64, error) {
	q := bson.M{"userId": userID}
	total, err := r.calls.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.calls.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []Call{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *MongoRepo) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]Call, error) {
	cur, err := r.calls.Find(ctx, bson.M{"userId": userID, "createdAt": bson.M{"$gte": from, "$lt": to}})
	if err != nil {
		return nil, err
	}
	out := []Call{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
