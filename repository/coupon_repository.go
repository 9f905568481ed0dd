package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maisonarome/storefront/models"
)

// ErrCouponNotFound is returned when no active coupon matches a code.
var ErrCouponNotFound = fmt.Errorf("coupon not found")

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	IncrementUsedCount(ctx context.Context, code string) error
	DecrementUsedCount(ctx context.Context, code string) error
	UserUsageCount(ctx context.Context, code, userID string) (int, error)
	RecordUserUsage(ctx context.Context, code, userID string) error
	RemoveUserUsage(ctx context.Context, code, userID string) error
	Deactivate(ctx context.Context, code string) error
	FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error)
}

// MongoCouponRepository implements CouponRepository over the coupons and
// coupon_usages collections.
type MongoCouponRepository struct {
	coupons *mongo.Collection
	usages  *mongo.Collection
}

// NewMongoCouponRepository creates a new MongoCouponRepository.
func NewMongoCouponRepository(db *mongo.Database) CouponRepository {
	return &MongoCouponRepository{
		coupons: db.Collection("coupons"),
		usages:  db.Collection("coupon_usages"),
	}
}

// Create inserts a coupon. Codes are stored upper-cased; a duplicate code
// is rejected by the unique index on `code`.
func (r *MongoCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	coupon.Code = strings.ToUpper(coupon.Code)
	coupon.CreatedAt = time.Now()
	coupon.UpdatedAt = coupon.CreatedAt
	_, err := r.coupons.InsertOne(ctx, coupon)
	return err
}

// FindByCode retrieves an active coupon by code, case-insensitively.
func (r *MongoCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.coupons.FindOne(ctx, bson.M{
		"code":   strings.ToUpper(code),
		"active": true,
	}).Decode(&coupon)
	if err == mongo.ErrNoDocuments {
		return nil, ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// IncrementUsedCount bumps the global redemption counter.
func (r *MongoCouponRepository) IncrementUsedCount(ctx context.Context, code string) error {
	_, err := r.coupons.UpdateOne(ctx,
		bson.M{"code": strings.ToUpper(code)},
		bson.M{
			"$inc": bson.M{"used_count": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

// DecrementUsedCount returns a consumed redemption, floored at zero. Used
// when an order is rolled back after its coupon was already redeemed.
func (r *MongoCouponRepository) DecrementUsedCount(ctx context.Context, code string) error {
	_, err := r.coupons.UpdateOne(ctx,
		bson.M{"code": strings.ToUpper(code), "used_count": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"used_count": -1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	return err
}

// UserUsageCount returns how many times the user has redeemed the coupon.
func (r *MongoCouponRepository) UserUsageCount(ctx context.Context, code, userID string) (int, error) {
	var usage models.CouponUsage
	err := r.usages.FindOne(ctx, bson.M{
		"code":    strings.ToUpper(code),
		"user_id": userID,
	}).Decode(&usage)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return usage.Count, nil
}

// RecordUserUsage upserts the per-user redemption counter.
func (r *MongoCouponRepository) RecordUserUsage(ctx context.Context, code, userID string) error {
	_, err := r.usages.UpdateOne(ctx,
		bson.M{"code": strings.ToUpper(code), "user_id": userID},
		bson.M{
			"$inc": bson.M{"count": 1},
			"$set": bson.M{"last_used": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// RemoveUserUsage undoes one per-user redemption, dropping the record when
// the counter reaches zero.
func (r *MongoCouponRepository) RemoveUserUsage(ctx context.Context, code, userID string) error {
	filter := bson.M{"code": strings.ToUpper(code), "user_id": userID}
	result, err := r.usages.UpdateOne(ctx,
		bson.M{"code": strings.ToUpper(code), "user_id": userID, "count": bson.M{"$gt": 1}},
		bson.M{"$inc": bson.M{"count": -1}},
	)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		_, err = r.usages.DeleteOne(ctx, filter)
	}
	return err
}

// Deactivate turns a coupon off without deleting it.
func (r *MongoCouponRepository) Deactivate(ctx context.Context, code string) error {
	result, err := r.coupons.UpdateOne(ctx,
		bson.M{"code": strings.ToUpper(code)},
		bson.M{"$set": bson.M{"active": false, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrCouponNotFound
	}
	return nil
}

// FindAll retrieves paginated coupons, newest first (admin).
func (r *MongoCouponRepository) FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error) {
	total, err := r.coupons.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.coupons.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var coupons []models.Coupon
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}
