package campaigns

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
	campaignsCollection = "campaigns"
	logsCollection      = "message_logs"
)

type MongoRepo struct {
	campaigns *mongo.Collection
	logs      *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		campaigns: db.Collection(campaignsCollection),
		logs:      db.Collection(logsCollection),
	}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	if err := utils.EnsureIndexes(ctx, r.campaigns,
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "type", Value: 1}, {Key: "status", Value: 1}}},
	); err != nil {
		return err
	}
	return utils.EnsureIndexes(ctx, r.logs,
		mongo.IndexModel{Keys: bson.D{{Key: "campaignId", Value: 1}, {Key: "status", Value: 1}}},
		mongo.IndexModel{
			Keys:    bson.D{{Key: "providerId", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{"providerId": bson.M{"$type": "string"}}),
		},
	)
}

func (r *MongoRepo) Insert(ctx context.Context, c *Campaign) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.campaigns.InsertOne(ctx, c)
	return err
}

func (r *MongoRepo) InsertLogs(ctx context.Context, logs []*MessageLog) error {
	if len(logs) == 0 {
		return nil
	}
	docs := make([]any, len(logs))
	for i, l := range logs {
		if l.ID.IsZero() {
			l.ID = primitive.NewObjectID()
		}
		docs[i] = l
	}
	_, err := r.logs.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

func (r *MongoRepo) FindByID(ctx context.Context, userID, id string) (Campaign, error) {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return Campaign{}, ErrNotFound
	}
	var c Campaign
	err := r.campaigns.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Campaign{}, ErrNotFound
	}
	return c, err
}

func (r *MongoRepo) List(ctx context.Context, f Filter) ([]Campaign, int64, error) {
	q := bson.M{"userId": f.UserID}
	if f.Type != "" {
		q["type"] = f.Type
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	total, err := r.campaigns.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"recipients": 0})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := r.campaigns.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []Campaign{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *MongoRepo) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]Campaign, error) {
	cur, err := r.campaigns.Find(ctx,
		bson.M{"userId": userID, "createdAt": bson.M{"$gte": from, "$lt": to}},
		options.Find().SetProjection(bson.M{"recipients": 0}),
	)
	if err != nil {
		return nil, err
	}
	out := []Campaign{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepo) UpdateDraft(ctx context.Context, userID, id string, p DraftPatch) (Campaign, error) {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return Campaign{}, ErrNotFound
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Message != nil {
		set["message"] = *p.Message
	}
	if p.Subject != nil {
		set["subject"] = *p.Subject
	}
	if p.AudioURL != nil {
		set["audioUrl"] = *p.AudioURL
	}

	var c Campaign
	err := r.campaigns.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID, "status": StatusDraft},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, ferr := r.FindByID(ctx, userID, id); ferr != nil {
			return Campaign{}, ferr
		}
		return Campaign{}, ErrNotEditable
	}
	return c, err
}

func (r *MongoRepo) Delete(ctx context.Context, userID, id string) (int64, error) {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return 0, ErrNotFound
	}
	res, err := r.campaigns.DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		return 0, ErrNotFound
	}
	logs, err := r.logs.DeleteMany(ctx, bson.M{"campaignId": id})
	if err != nil {
		return 0, err
	}
	return logs.DeletedCount, nil
}

func (r *MongoRepo) CountLogsByStatus(ctx context.Context, campaignID string) (map[LogStatus]int64, error) {
	cur, err := r.logs.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"campaignId": campaignID}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status LogStatus `bson:"_id"`
		Count  int64     `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[LogStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *MongoRepo) ListLogs(ctx context.Context, campaignID string, skip, limit int64) ([]MessageLog, int64, error) {
	q := bson.M{"campaignId": campaignID}
	total, err := r.logs.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if skip > 0 {
		opts.SetSkip(skip)
	}
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.logs.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []MessageLog{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *MongoRepo) MarkLogDelivered(ctx context.Context, providerID string) (MessageLog, bool, error) {
	return r.moveLog(ctx, providerID, bson.M{"status": LogStatusDelivered})
}

func (r *MongoRepo) MarkLogUndelivered(ctx context.Context, providerID, reason string) (MessageLog, bool, error) {
	return r.moveLog(ctx, providerID, bson.M{"status": LogStatusUndelivered, "error": reason})
}

// moveLog applies set to the log only while it is still in the sent state.
func (r *MongoRepo) moveLog(ctx context.Context, providerID string, set bson.M) (MessageLog, bool, error) {
	if providerID == "" {
		return MessageLog{}, false, nil
	}
	set["updatedAt"] = time.Now().UTC()
	var l MessageLog
	err := r.logs.FindOneAndUpdate(ctx,
		bson.M{"providerId": providerID, "status": LogStatusSent},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return MessageLog{}, false, nil
	}
	if err != nil {
		return MessageLog{}, false, err
	}
	return l, true, nil
}

func (r *MongoRepo) IncDelivered(ctx context.Context, campaignID string, n int) error {
	oid, ok := utils.ParseObjectID(campaignID)
	if !ok {
		return ErrNotFound
	}
	_, err := r.campaigns.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"stats.delivered": n}, "$set": bson.M{"updatedAt": time.Now().UTC()}},
	)
	return err
}
