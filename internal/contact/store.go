package contact

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

// ErrNotFound is returned when no contact matches the id/owner pair.
var ErrNotFound = errors.New("contact not found")

// Store is the document-store contract for address-book entries.
type Store interface {
	Create(ctx context.Context, c *Contact) (*Contact, error)
	GetForUser(ctx context.Context, id, userAddress string) (*Contact, error)
	List(ctx context.Context, userAddress string) ([]*Contact, error)
	Search(ctx context.Context, userAddress, query string) ([]*Contact, error)
	Update(ctx context.Context, id, userAddress string, fields *UpdateFields) error
	Delete(ctx context.Context, id, userAddress string) error

	// ResolveAddress returns the wallet address stored for the given email
	// in the owner's book, or "" when the contact is unknown or has no
	// wallet on file.
	ResolveAddress(ctx context.Context, ownerAddress, email string) (string, error)
}

const collectionName = "contacts"

type mongoStore struct {
	coll *mongo.Collection
}

// NewStore creates a Mongo-backed contact store.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewStore(db *mongo.Database) Store {
	return &mongoStore{coll: db.Collection(collectionName)}
}

func (s *mongoStore) Create(ctx context.Context, c *Contact) (*Contact, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c.ID = primitive.NewObjectID().Hex()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, c); err != nil {
		return nil, errors.Wrap(err, "failed to insert contact")
	}

	return c, nil
}

func (s *mongoStore) GetForUser(ctx context.Context, id, userAddress string) (*Contact, error) {
	var c Contact

	err := s.coll.FindOne(ctx, bson.M{"_id": id, "userAddress": userAddress}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "failed to get contact")
	}

	return &c, nil
}

func (s *mongoStore) List(ctx context.Context, userAddress string) ([]*Contact, error) {
	return s.find(ctx, bson.M{"userAddress": userAddress})
}

func (s *mongoStore) Search(ctx context.Context, userAddress, query string) ([]*Contact, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}

	return s.find(ctx, bson.M{
		"userAddress": userAddress,
		"$or": bson.A{
			bson.M{"name": pattern},
			bson.M{"email": pattern},
		},
	})
}

func (s *mongoStore) find(ctx context.Context, filter bson.M) ([]*Contact, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query contacts")
	}

	var contacts []*Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, errors.Wrap(err, "failed to decode contacts")
	}

	return contacts, nil
}

func (s *mongoStore) Update(ctx context.Context, id, userAddress string, fields *UpdateFields) error {
	set := bson.M{"updatedAt": time.Now().UTC()}

	if fields.Name != nil {
		set["name"] = *fields.Name
	}
	if fields.Email != nil {
		set["email"] = *fields.Email
	}
	if fields.WalletAddress != nil {
		set["walletAddress"] = *fields.WalletAddress
	}

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "userAddress": userAddress},
		bson.M{"$set": set},
	)
	if err != nil {
		return errors.Wrap(err, "failed to update contact")
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore) Delete(ctx context.Context, id, userAddress string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id, "userAddress": userAddress})
	if err != nil {
		return errors.Wrap(err, "failed to delete contact")
	}

	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *mongoStore) ResolveAddress(ctx context.Context, ownerAddress, email string) (string, error) {
	var c Contact

	err := s.coll.FindOne(ctx, bson.M{
		"userAddress": ownerAddress,
		"email":       primitive.Regex{Pattern: "^" + regexp.QuoteMeta(email) + "$", Options: "i"},
	}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}

		return "", errors.Wrap(err, "failed to resolve contact")
	}

	return c.WalletAddress, nil
}
