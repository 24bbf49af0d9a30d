package smm

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

const Collection = "smm_orders"

type MongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(Collection)}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	return utils.EnsureIndexes(ctx, r.coll,
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	)
}

func (r *MongoRepo) Insert(ctx context.Context, o *Order) error {
	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := r.coll.InsertOne(ctx, o)
	return err
}

func (r *MongoRepo) FindByID(ctx context.Context, userID, id string) (Order, error) {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return Order{}, ErrNotFound
	}
	var o Order
	err := r.coll.FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *MongoRepo) UpdateStatus(ctx context.Context, userID, id string, p StatusPatch) (Order, error) {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return Order{}, ErrNotFound
	}
	update := bson.M{"$set": bson.M{
		"status":     p.Status,
		"remains":    p.Remains,
		"startCount": p.StartCount,
		"updatedAt":  time.Now().UTC(),
	}}
	var o Order
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "userId": userID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *MongoRepo) List(ctx context.Context, userID string, skip, limit int64) ([]Order, int64, error) {
	filter := bson.M{"userId": userID}
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetSkip(skip).SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []Order{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
