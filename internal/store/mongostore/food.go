package mongostore

import (
	"context"
	"fmt"
	"time"

	"foodforall/internal/query"
	"foodforall/internal/utils"
	"foodforall/pkg/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FoodRepository struct {
	coll *mongo.Collection
}

func NewFoodRepository(db *mongo.Database) *FoodRepository {
	return &FoodRepository{coll: db.Collection(foodCollection)}
}

func (r *FoodRepository) InsertFood(ctx context.Context, food *types.Food) (*types.InsertResult, error) {
	now := time.Now()
	food.ID = utils.NanoID()
	food.CreatedAt = now
	food.UpdatedAt = now
	if food.Status == "" {
		food.Status = types.FoodStatusAvailable
	}

	if _, err := r.coll.InsertOne(ctx, food); err != nil {
		return nil, fmt.Errorf("failed to insert food: %w", err)
	}

	return &types.InsertResult{Acknowledged: true, InsertedID: food.ID}, nil
}

func (r *FoodRepository) Foods(ctx context.Context, q query.ListingQuery) ([]*types.Food, error) {
	cursor, err := r.coll.Find(ctx, listingFilter(q.Filter), findOptions(listingSort(q.Sort)))
	if err != nil {
		return nil, fmt.Errorf("failed to find foods: %w", err)
	}

	foods := make([]*types.Food, 0)
	if err := cursor.All(ctx, &foods); err != nil {
		return nil, fmt.Errorf("failed to decode foods: %w", err)
	}

	return foods, nil
}

func (r *FoodRepository) FoodsByID(ctx context.Context, id string) ([]*types.Food, error) {
	return r.Foods(ctx, query.ListingQuery{Filter: query.ListingFilter{ID: id}})
}

func upsertFoodUpdate(food *types.Food, now time.Time) bson.M {
	set := bson.M{
		"foodName":        food.Name,
		"foodImage":       food.Image,
		"foodQuantity":    food.Quantity,
		"pickupLocation":  food.PickupLocation,
		"expiredDateTime": food.ExpiredDateTime,
		"additionalNotes": food.AdditionalNotes,
		"donator":         food.Donator,
		"updatedAt":       now,
	}
	setOnInsert := bson.M{"createdAt": now}

	if food.Status != "" {
		set["foodStatus"] = food.Status
	} else {
		setOnInsert["foodStatus"] = types.FoodStatusAvailable
	}

	return bson.M{"$set": set, "$setOnInsert": setOnInsert}
}

func (r *FoodRepository) UpsertFood(ctx context.Context, id string, food *types.Food) (*types.UpdateResult, error) {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, upsertFoodUpdate(food, time.Now()), options.Update().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert food %s: %w", id, err)
	}

	return updateResult(res), nil
}

func (r *FoodRepository) UpdateFoodStatus(ctx context.Context, id string, status types.FoodStatus) (*types.UpdateResult, error) {
	update := bson.M{"$set": bson.M{"foodStatus": status, "updatedAt": time.Now()}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update status for food %s: %w", id, err)
	}

	return updateResult(res), nil
}

func (r *FoodRepository) DeleteFood(ctx context.Context, id string) (*types.DeleteResult, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to delete food %s: %w", id, err)
	}

	return &types.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}
