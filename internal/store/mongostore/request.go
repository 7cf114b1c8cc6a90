package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodforall/internal/query"
	"foodforall/internal/utils"
	"foodforall/pkg/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type RequestRepository struct {
	foods    *mongo.Collection
	requests *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{
		foods:    db.Collection(foodCollection),
		requests: db.Collection(requestCollection),
	}
}

// ClaimFood atomically moves the listing from available to requested and
// then inserts the request. Multi-document transactions need a replica set,
// so a failed insert is compensated by reverting the listing status.
func (r *RequestRepository) ClaimFood(ctx context.Context, req *types.FoodRequest) (*types.InsertResult, error) {
	now := time.Now()

	guard := bson.M{"_id": req.Food.ID, "foodStatus": types.FoodStatusAvailable}
	claim := bson.M{"$set": bson.M{"foodStatus": types.FoodStatusRequested, "updatedAt": now}}

	var food types.Food
	err := r.foods.FindOneAndUpdate(ctx, guard, claim, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&food)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrFoodUnavailable
		}
		return nil, fmt.Errorf("failed to claim food %s: %w", req.Food.ID, err)
	}

	req.ID = utils.NanoID()
	req.Food = food
	req.Status = types.FoodStatusRequested
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.RequestedDate.IsZero() {
		req.RequestedDate = now
	}

	if _, err := r.requests.InsertOne(ctx, req); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to insert request: %w", err), revertClaim(ctx, r.foods, food.ID))
	}

	return &types.InsertResult{Acknowledged: true, InsertedID: req.ID}, nil
}

// statusUpdater is the part of *mongo.Collection used to undo a claim.
type statusUpdater interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

const revertTimeout = 5 * time.Second

// revertClaim puts a claimed listing back to available. The insert it undoes
// usually failed because ctx expired, so the update runs on a context that
// keeps ctx's values but not its cancellation.
func revertClaim(ctx context.Context, foods statusUpdater, foodID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), revertTimeout)
	defer cancel()

	revert := bson.M{"$set": bson.M{"foodStatus": types.FoodStatusAvailable, "updatedAt": time.Now()}}
	_, err := foods.UpdateOne(ctx, bson.M{"_id": foodID, "foodStatus": types.FoodStatusRequested}, revert)
	if err != nil {
		return fmt.Errorf("failed to revert claim on food %s: %w", foodID, err)
	}

	return nil
}

func (r *RequestRepository) Requests(ctx context.Context, f query.RequestFilter) ([]*types.FoodRequest, error) {
	cursor, err := r.requests.Find(ctx, requestFilter(f), findOptions(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find requests: %w", err)
	}

	out := make([]*types.FoodRequest, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode requests: %w", err)
	}

	return out, nil
}

func (r *RequestRepository) Request(ctx context.Context, id string) (*types.FoodRequest, error) {
	var req types.FoodRequest
	err := r.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch request %s: %w", id, err)
	}

	return &req, nil
}

func upsertRequestUpdate(req *types.FoodRequest, now time.Time) bson.M {
	set := bson.M{
		"food":            req.Food,
		"requester":       req.Requester,
		"donationMoney":   req.DonationMoney,
		"additionalNotes": req.AdditionalNotes,
		"requestedDate":   req.RequestedDate,
		"updatedAt":       now,
	}
	setOnInsert := bson.M{"createdAt": now}

	if req.Status != "" {
		set["status"] = req.Status
	} else {
		setOnInsert["status"] = types.FoodStatusRequested
	}

	return bson.M{"$set": set, "$setOnInsert": setOnInsert}
}

func (r *RequestRepository) UpsertRequest(ctx context.Context, req *types.FoodRequest) (*types.UpdateResult, error) {
	res, err := r.requests.UpdateOne(ctx, bson.M{"_id": req.ID}, upsertRequestUpdate(req, time.Now()), options.Update().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert request %s: %w", req.ID, err)
	}

	return updateResult(res), nil
}

func (r *RequestRepository) SetPaymentIntent(ctx context.Context, id, paymentIntentID string) error {
	update := bson.M{"$set": bson.M{"paymentIntentId": paymentIntentID, "updatedAt": time.Now()}}

	res, err := r.requests.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to record payment intent for request %s: %w", id, err)
	}

	if res.MatchedCount == 0 {
		return types.ErrRequestNotFound
	}

	return nil
}

func (r *RequestRepository) DeleteRequest(ctx context.Context, id string) (*types.DeleteResult, error) {
	res, err := r.requests.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to delete request %s: %w", id, err)
	}

	return &types.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (r *RequestRepository) CountRequestsByStatus(ctx context.Context, status types.FoodStatus) (int64, error) {
	n, err := r.requests.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}

	return n, nil
}
