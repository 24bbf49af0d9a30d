package contacts

import (
	"context"
	"errors"
	"regexp"
	"time"

	"brandbuzz/pkg/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "contacts"

type MongoRepo struct {
	coll *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{coll: db.Collection(Collection)}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	return utils.EnsureIndexes(ctx, r.coll,
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "group", Value: 1}}},
	)
}

func (r *MongoRepo) InsertMany(ctx context.Context, cs []*Contact) error {
	if len(cs) == 0 {
		return nil
	}
	docs := make([]any, len(cs))
	for i, c := range cs {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		docs[i] = c
	}
	_, err := r.coll.InsertMany(ctx, docs)
	return err
}

func (r *MongoRepo) List(ctx context.Context, f Filter) ([]Contact, int64, error) {
	q := bson.M{"userId": f.UserID, "status": bson.M{"$ne": StatusDeleted}}
	if f.Group != "" {
		q["group"] = f.Group
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		q["$or"] = bson.A{bson.M{"name": re}, bson.M{"email": re}, bson.M{"phone": re}}
	}
	if len(f.IDs) > 0 {
		q["_id"] = bson.M{"$in": utils.ParseObjectIDs(f.IDs)}
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []Contact{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *MongoRepo) FindByID(ctx context.Context, userID, id string) (Contact, error) {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return Contact{}, ErrNotFound
	}
	var c Contact
	err := r.coll.FindOne(ctx, bson.M{"_id": oid, "userId": userID, "status": bson.M{"$ne": StatusDeleted}}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

func (r *MongoRepo) Update(ctx context.Context, userID, id string, p Patch) (Contact, error) {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return Contact{}, ErrNotFound
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Group != nil {
		set["group"] = *p.Group
	}
	if p.Tags != nil {
		set["tags"] = *p.Tags
	}

	var c Contact
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID, "status": bson.M{"$ne": StatusDeleted}},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Contact{}, ErrNotFound
	}
	return c, err
}

func (r *MongoRepo) SoftDelete(ctx context.Context, userID, id string) error {
	oid, ok := utils.ParseObjectID(id)
	if !ok {
		return ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "userId": userID, "status": bson.M{"$ne": StatusDeleted}},
		bson.M{"$set": bson.M{"status": StatusDeleted, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
