package transaction

import (
	"context"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no transaction matches the id/owner pair.
var ErrNotFound = errors.New("transaction not found")

// Store is the document-store contract for transaction records. Updates are
// partial and always filtered by owner address so one user cannot mutate
// another's record.
type Store interface {
	Create(ctx context.Context, tx *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, id string) (*Transaction, error)
	GetForUser(ctx context.Context, id, userAddress string) (*Transaction, error)
	List(ctx context.Context, userAddress string, status *Status) ([]*Transaction, error)
	ListReceived(ctx context.Context, recipientAddress string) ([]*Transaction, error)
	Search(ctx context.Context, userAddress, query string) ([]*Transaction, error)
	Update(ctx context.Context, id, userAddress string, fields *UpdateFields) error
	SetPermitResult(ctx context.Context, id, permitTxHash string) error
	Delete(ctx context.Context, id, userAddress string) error
}

const collectionName = "transactions"

type mongoStore struct {
	coll *mongo.Collection
}

// NewStore creates a Mongo-backed transaction store.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewStore(db *mongo.Database) Store {
	return &mongoStore{coll: db.Collection(collectionName)}
}

func (s *mongoStore) Create(ctx context.Context, tx *Transaction) (*Transaction, error) {
	now := time.Now().UTC()
	tx.ID = primitive.NewObjectID().Hex()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "failed to insert transaction")
	}

	return tx, nil
}

func (s *mongoStore) GetByID(ctx context.Context, id string) (*Transaction, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *mongoStore) GetForUser(ctx context.Context, id, userAddress string) (*Transaction, error) {
	return s.findOne(ctx, bson.M{"_id": id, "userAddress": userAddress})
}

func (s *mongoStore) findOne(ctx context.Context, filter bson.M) (*Transaction, error) {
	var tx Transaction

	err := s.coll.FindOne(ctx, filter).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "failed to get transaction")
	}

	return &tx, nil
}

func (s *mongoStore) List(ctx context.Context, userAddress string, status *Status) ([]*Transaction, error) {
	filter := bson.M{"userAddress": userAddress}
	if status != nil {
		filter["status"] = *status
	}

	return s.find(ctx, filter)
}

func (s *mongoStore) ListReceived(ctx context.Context, recipientAddress string) ([]*Transaction, error) {
	return s.find(ctx, bson.M{"toRecipients.address": recipientAddress})
}

func (s *mongoStore) Search(ctx context.Context, userAddress, query string) ([]*Transaction, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}

	filter := bson.M{
		"userAddress": userAddress,
		"$or": bson.A{
			bson.M{"subject": pattern},
			bson.M{"message": pattern},
			bson.M{"toRecipients.name": pattern},
			bson.M{"toRecipients.email": pattern},
		},
	}

	return s.find(ctx, filter)
}

func (s *mongoStore) find(ctx context.Context, filter bson.M) ([]*Transaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query transactions")
	}

	var txs []*Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, errors.Wrap(err, "failed to decode transactions")
	}

	return txs, nil
}

func (s *mongoStore) Update(ctx context.Context, id, userAddress string, fields *UpdateFields) error {
	set := bson.M{"updatedAt": time.Now().UTC()}

	if fields.ToRecipients != nil {
		set["toRecipients"] = *fields.ToRecipients
	}
	if fields.CcRecipients != nil {
		set["ccRecipients"] = *fields.CcRecipients
	}
	if fields.BccRecipients != nil {
		set["bccRecipients"] = *fields.BccRecipients
	}
	if fields.Subject != nil {
		set["subject"] = *fields.Subject
	}
	if fields.Message != nil {
		set["message"] = *fields.Message
	}
	if fields.Amount != nil {
		set["amount"] = *fields.Amount
	}
	if fields.TokenType != nil {
		set["tokenType"] = *fields.TokenType
	}
	if fields.Network != nil {
		set["network"] = *fields.Network
	}
	if fields.Status != nil {
		set["status"] = *fields.Status
	}
	if fields.TxHash != nil {
		set["txHash"] = *fields.TxHash
	}
	if fields.IsGasless != nil {
		set["isGasless"] = *fields.IsGasless
	}
	if fields.EIP2612 != nil {
		set["eip2612"] = fields.EIP2612
	}
	if fields.ScheduledDate != nil {
		set["scheduledDate"] = *fields.ScheduledDate
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "userAddress": userAddress},
		bson.M{"$set": set},
	)
	if err != nil {
		return errors.Wrap(err, "failed to update transaction")
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore) SetPermitResult(ctx context.Context, id, permitTxHash string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"eip2612.transactionHash": permitTxHash,
			"eip2612.executed":        true,
			"updatedAt":               time.Now().UTC(),
		}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to record permit result")
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore) Delete(ctx context.Context, id, userAddress string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "userAddress": userAddress})
	if err != nil {
		return errors.Wrap(err, "failed to delete transaction")
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
