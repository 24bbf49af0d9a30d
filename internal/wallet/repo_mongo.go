package wallet

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
	usersCollection        = "users"
	transactionsCollection = "transactions"
)

// MongoRepo keeps balances on the user document and the ledger in its own
// collection. Every balance change is one FindOneAndUpdate, so concurrent
// debits cannot overdraw.
type MongoRepo struct {
	users        *mongo.Collection
	transactions *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		users:        db.Collection(usersCollection),
		transactions: db.Collection(transactionsCollection),
	}
}

func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	return utils.EnsureIndexes(ctx, r.transactions,
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		mongo.IndexModel{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$type": "string"}}),
		},
	)
}

type balanceDoc struct {
	Balance int64 `bson:"balance"`
}

func (r *MongoRepo) Balance(ctx context.Context, userID string) (int64, error) {
	oid, ok := utils.ParseObjectID(userID)
	if !ok {
		return 0, ErrNotFound
	}
	var d balanceDoc
	err := r.users.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(bson.M{"balance": 1})).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNotFound
	}
	return d.Balance, err
}

func (r *MongoRepo) DecrementIfSufficient(ctx context.Context, userID string, amount int64) (int64, error) {
	oid, ok := utils.ParseObjectID(userID)
	if !ok {
		return 0, ErrNotFound
	}
	after, err := r.inc(ctx, bson.M{"_id": oid, "balance": bson.M{"$gte": amount}}, -amount)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Distinguish an unknown user from a failed balance condition.
		if _, berr := r.Balance(ctx, userID); berr != nil {
			return 0, berr
		}
		return 0, ErrInsufficientFunds
	}
	return after, err
}

func (r *MongoRepo) Increment(ctx context.Context, userID string, amount int64) (int64, error) {
	oid, ok := utils.ParseObjectID(userID)
	if !ok {
		return 0, ErrNotFound
	}
	after, err := r.inc(ctx, bson.M{"_id": oid}, amount)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNotFound
	}
	return after, err
}

func (r *MongoRepo) inc(ctx context.Context, filter bson.M, delta int64) (int64, error) {
	var d balanceDoc
	err := r.users.FindOneAndUpdate(ctx, filter,
		bson.M{
			"$inc": bson.M{"balance": delta},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
		options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetProjection(bson.M{"balance": 1}),
	).Decode(&d)
	return d.Balance, err
}

func (r *MongoRepo) InsertTransaction(ctx context.Context, tx *Transaction) error {
	if tx.ID.IsZero() {
		tx.ID = primitive.NewObjectID()
	}
	_, err := r.transactions.InsertOne(ctx, tx)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateIdempotencyKey
	}
	return err
}

func (r *MongoRepo) FindByIdempotencyKey(ctx context.Context, userID, key string) (Transaction, bool, error) {
	var tx Transaction
	err := r.transactions.FindOne(ctx, bson.M{"userId": userID, "idempotencyKey": key}).Decode(&tx)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Transaction{}, false, nil
	}
	if err != nil {
		return Transaction{}, false, err
	}
	return tx, true, nil
}

func (r *MongoRepo) ListTransactions(ctx context.Context, userID string, skip, limit int64) ([]Transaction, int64, error) {
	filter := bson.M{"userId": userID}
	total, err := r.transactions.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := r.transactions.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	out := make([]Transaction, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *MongoRepo) ListTransactionsBetween(ctx context.Context, userID string, from, to time.Time) ([]Transaction, error) {
	cur, err := r.transactions.Find(ctx,
		bson.M{"userId": userID, "createdAt": bson.M{"$gte": from, "$lt": to}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	out := make([]Transaction, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
