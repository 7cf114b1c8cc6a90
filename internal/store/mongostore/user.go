package mongostore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foodforall/pkg/types"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(userCollection)}
}

func (r *UserRepository) UpsertUser(ctx context.Context, user *types.User) (*types.UpdateResult, error) {
	now := time.Now()
	email := strings.TrimSpace(user.Email)

	update := bson.M{
		"$set": bson.M{
			"name":      strings.TrimSpace(user.Name),
			"image":     strings.TrimSpace(user.Image),
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return updateResult(res), nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}

	return n, nil
}
