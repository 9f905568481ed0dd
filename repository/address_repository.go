package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maisonarome/storefront/models"
)

// ErrAddressNotFound is returned when an address lookup finds nothing.
var ErrAddressNotFound = fmt.Errorf("address not found")

// AddressRepository defines the interface for saved-address data access.
type AddressRepository interface {
	Create(ctx context.Context, address *models.Address) error
	FindByID(ctx context.Context, userID, addressID string) (*models.Address, error)
	ListByUser(ctx context.Context, userID string) ([]models.Address, error)
	Update(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, userID, addressID string) error
	SetDefault(ctx context.Context, userID, addressID string) error
}

// MongoAddressRepository implements AddressRepository over the addresses
// collection.
type MongoAddressRepository struct {
	addresses *mongo.Collection
}

// NewMongoAddressRepository creates a new MongoAddressRepository.
func NewMongoAddressRepository(db *mongo.Database) AddressRepository {
	return &MongoAddressRepository{addresses: db.Collection("addresses")}
}

func (r *MongoAddressRepository) Create(ctx context.Context, address *models.Address) error {
	address.ID = primitive.NewObjectID()
	address.CreatedAt = time.Now()
	address.UpdatedAt = address.CreatedAt

	if address.Default {
		if err := r.clearDefault(ctx, address.UserID); err != nil {
			return err
		}
	}
	_, err := r.addresses.InsertOne(ctx, address)
	return err
}

func (r *MongoAddressRepository) FindByID(ctx context.Context, userID, addressID string) (*models.Address, error) {
	oid, err := primitive.ObjectIDFromHex(addressID)
	if err != nil {
		return nil, ErrAddressNotFound
	}

	var address models.Address
	err = r.addresses.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&address)
	if err == mongo.ErrNoDocuments {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *MongoAddressRepository) ListByUser(ctx context.Context, userID string) ([]models.Address, error) {
	opts := options.Find().SetSort(bson.D{{Key: "default", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := r.addresses.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var addresses []models.Address
	if err := cursor.All(ctx, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (r *MongoAddressRepository) Update(ctx context.Context, address *models.Address) error {
	address.UpdatedAt = time.Now()

	if address.Default {
		if err := r.clearDefault(ctx, address.UserID); err != nil {
			return err
		}
	}

	result, err := r.addresses.ReplaceOne(ctx,
		bson.M{"_id": address.ID, "user_id": address.UserID},
		address,
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *MongoAddressRepository) Delete(ctx context.Context, userID, addressID string) error {
	oid, err := primitive.ObjectIDFromHex(addressID)
	if err != nil {
		return ErrAddressNotFound
	}

	result, err := r.addresses.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrAddressNotFound
	}
	return nil
}

// SetDefault marks one address as the default and clears the flag on the
// user's other addresses.
func (r *MongoAddressRepository) SetDefault(ctx context.Context, userID, addressID string) error {
	oid, err := primitive.ObjectIDFromHex(addressID)
	if err != nil {
		return ErrAddressNotFound
	}

	if err := r.clearDefault(ctx, userID); err != nil {
		return err
	}

	result, err := r.addresses.UpdateOne(ctx,
		bson.M{"_id": oid, "user_id": userID},
		bson.M{"$set": bson.M{"default": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrAddressNotFound
	}
	return nil
}

func (r *MongoAddressRepository) clearDefault(ctx context.Context, userID string) error {
	_, err := r.addresses.UpdateMany(ctx,
		bson.M{"user_id": userID, "default": true},
		bson.M{"$set": bson.M{"default": false}},
	)
	return err
}
