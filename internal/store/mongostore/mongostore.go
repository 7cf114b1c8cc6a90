// Package mongostore keeps listings, requests and users as documents in
// MongoDB, using the "available-food", "requested-food" and "users" collections.
package mongostore

import (
	"context"
	"fmt"
	"regexp"

	"foodforall/internal/query"
	"foodforall/pkg/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	foodCollection    = "available-food"
	requestCollection = "requested-food"
	userCollection    = "users"
)

func listingFilter(f query.ListingFilter) bson.M {
	filter := bson.M{}

	if f.Status != "" {
		filter["foodStatus"] = f.Status
	}

	if f.Name != "" {
		switch f.NameMatch {
		case query.NameMatchContains:
			filter["foodName"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Name), Options: "i"}
		default:
			filter["foodName"] = f.Name
		}
	}

	if f.DonatorEmail != "" {
		filter["donator.donatorEmail"] = f.DonatorEmail
	}

	if f.ID != "" {
		filter["_id"] = f.ID
	}

	return filter
}

func listingSort(order query.SortOrder) bson.D {
	switch order {
	case query.SortQuantityDesc:
		return bson.D{{Key: "foodQuantity", Value: -1}}
	case query.SortExpiryAsc:
		return bson.D{{Key: "expiredDateTime", Value: 1}}
	}
	return bson.D{{Key: "createdAt", Value: 1}}
}

func requestFilter(f query.RequestFilter) bson.M {
	filter := bson.M{}

	if f.RequesterEmail != "" {
		filter["requester.email"] = f.RequesterEmail
	}

	if f.FoodID != "" {
		filter["food._id"] = f.FoodID
	}

	return filter
}

func updateResult(res *mongo.UpdateResult) *types.UpdateResult {
	out := &types.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}

	if res.UpsertedID != nil {
		out.UpsertedID = fmt.Sprint(res.UpsertedID)
	}

	return out
}

// EnsureIndexes creates the indexes the listing and request queries rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(foodCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "foodStatus", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "donator.donatorEmail", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create food indexes: %w", err)
	}

	_, err = db.Collection(requestCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "requester.email", Value: 1}}},
		{Keys: bson.D{{Key: "food._id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create request indexes: %w", err)
	}

	return nil
}

func findOptions(sort bson.D) *options.FindOptions {
	return options.Find().SetSort(sort)
}
